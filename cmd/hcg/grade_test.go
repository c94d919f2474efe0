package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"hcg/common"
	"hcg/config"
	"hcg/exercise"
	"hcg/state"
)

const sampleExercise = `title: Headings
description: page with a styled heading
checks:
  - id: h1
    type: html
    rule: exists:h1
  - id: color
    type: css
    rule: "rule:h1 color=red"
    hint: make heading red
`

// setupTestEnv creates a test environment with proper context and logger
func setupTestEnv(t *testing.T) (context.Context, *state.LocalEnv) {
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Log = logger
	env.Cfg = cfg
	env.Format = cfg.Report.Format
	return ctx, env
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(name, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return name
}

func sampleClass(t *testing.T) (exPath, src string) {
	t.Helper()
	dir := t.TempDir()
	exPath = writeFile(t, filepath.Join(dir, "exercise.yaml"), sampleExercise)
	src = filepath.Join(dir, "class")
	writeFile(t, filepath.Join(src, "alice", "index.html"), "<h1>Alice</h1>")
	writeFile(t, filepath.Join(src, "alice", "css", "main.css"), "h1 { color: red; }")
	writeFile(t, filepath.Join(src, "bob", "index.html"), "<h2>Bob</h2>")
	writeFile(t, filepath.Join(src, "bob", "style.css"), "h2 { color: blue }\n@import url(x.css);")
	return exPath, src
}

func mustLoad(t *testing.T, name string) *exercise.Exercise {
	t.Helper()
	ex, err := loadExercise(name)
	if err != nil {
		t.Fatalf("loadExercise() error = %v", err)
	}
	return ex
}

func TestGrade_Stdout(t *testing.T) {
	ctx, env := setupTestEnv(t)
	exPath, src := sampleClass(t)

	var out bytes.Buffer
	if err := grade(ctx, env, mustLoad(t, exPath), src, "", &out, env.Log); err != nil {
		t.Fatalf("grade() error = %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"Headings\n",
		"alice: 2/2 passed",
		"bob: 0/2 passed",
		"✗ Selector not found in CSS",
		"! @import",
		"Total: 2/4 passed",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("report misses %q:\n%s", want, text)
		}
	}
}

func TestGrade_JSONFile(t *testing.T) {
	ctx, env := setupTestEnv(t)
	exPath, src := sampleClass(t)
	dst := filepath.Join(t.TempDir(), "reports")
	env.Format = common.ReportFormatJson

	var out bytes.Buffer
	if err := grade(ctx, env, mustLoad(t, exPath), src, dst, &out, env.Log); err != nil {
		t.Fatalf("grade() error = %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("nothing must go to stdout, got %q", out.String())
	}

	data, err := os.ReadFile(filepath.Join(dst, "headings.json"))
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	var got struct {
		Exercise    string `json:"exercise"`
		Submissions []struct {
			Name   string `json:"name"`
			Passed int    `json:"passed"`
		} `json:"submissions"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.Exercise != "Headings" || len(got.Submissions) != 2 || got.Submissions[0].Name != "alice" || got.Submissions[0].Passed != 2 {
		t.Errorf("got %+v", got)
	}

	// second run must not silently replace report
	if err := grade(ctx, env, mustLoad(t, exPath), src, dst, &out, env.Log); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("grade() error = %v, want already exists", err)
	}
	env.Overwrite = true
	if err := grade(ctx, env, mustLoad(t, exPath), src, dst, &out, env.Log); err != nil {
		t.Errorf("grade() with overwrite error = %v", err)
	}
}

func TestGrade_OutputNameTemplate(t *testing.T) {
	ctx, env := setupTestEnv(t)
	exPath, src := sampleClass(t)
	dst := t.TempDir()
	env.Format = common.ReportFormatJunit
	env.Cfg.Report.OutputNameTemplate = `{{ .Format }}/{{ .Exercise | lower }}`

	if err := grade(ctx, env, mustLoad(t, exPath), src, dst, new(bytes.Buffer), env.Log); err != nil {
		t.Fatalf("grade() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "junit", "headings.xml")); err != nil {
		t.Errorf("report not found: %v", err)
	}
}

func TestGrade_Strict(t *testing.T) {
	ctx, env := setupTestEnv(t)
	exPath, src := sampleClass(t)
	env.Strict = true

	err := grade(ctx, env, mustLoad(t, exPath), src, "", new(bytes.Buffer), env.Log)
	if err == nil || err.Error() != "2 of 4 checks failed" {
		t.Errorf("grade() error = %v", err)
	}

	// all checks pass for alice alone
	if err := grade(ctx, env, mustLoad(t, exPath), filepath.Join(src, "alice"), "", new(bytes.Buffer), env.Log); err != nil {
		t.Errorf("grade() error = %v", err)
	}
}

func TestGrade_ExtraCSS(t *testing.T) {
	ctx, env := setupTestEnv(t)
	exPath, src := sampleClass(t)
	env.ExtraCSS = writeFile(t, filepath.Join(t.TempDir(), "extra.css"), "h1 { color: RED !important }")
	env.Cfg.Report.ShowPassed = false

	var out bytes.Buffer
	if err := grade(ctx, env, mustLoad(t, exPath), filepath.Join(src, "bob", "index.html"), "", &out, env.Log); err != nil {
		t.Fatalf("grade() error = %v", err)
	}
	if !strings.Contains(out.String(), "index.html: 1/2 passed") {
		t.Errorf("extra stylesheet must be graded:\n%s", out.String())
	}
}

func TestGrade_Errors(t *testing.T) {
	ctx, env := setupTestEnv(t)
	exPath, src := sampleClass(t)

	if err := grade(ctx, env, mustLoad(t, exPath), filepath.Join(src, "nobody"), "", new(bytes.Buffer), env.Log); err == nil {
		t.Error("missing source must fail")
	}

	env.Cfg.Report.TextTemplate = "{{ .Broken"
	if err := grade(ctx, env, mustLoad(t, exPath), src, "", new(bytes.Buffer), env.Log); err == nil {
		t.Error("broken template must fail")
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if err := grade(canceled, env, mustLoad(t, exPath), src, "", new(bytes.Buffer), env.Log); err == nil {
		t.Error("canceled grading must fail")
	}
}

func TestLoadExercise_Invalid(t *testing.T) {
	name := writeFile(t, filepath.Join(t.TempDir(), "bad.yaml"), "title: x\nchecks:\n  - id: a\n    type: html\n    rule: blink:p\n")
	if _, err := loadExercise(name); err == nil || !strings.Contains(err.Error(), "is not valid") {
		t.Errorf("loadExercise() error = %v", err)
	}
}

func TestVerify(t *testing.T) {
	log := zaptest.NewLogger(t)
	dir := t.TempDir()

	good := writeFile(t, filepath.Join(dir, "good.yaml"), sampleExercise)
	if err := verify(good, log); err != nil {
		t.Errorf("verify() error = %v", err)
	}

	bad := writeFile(t, filepath.Join(dir, "bad.yaml"), "checks:\n  - id: a\n    type: html\n    rule: blink:p\n  - id: b\n    type: css\n    rule: \"rule:\"\n")
	err := verify(bad, log)
	if err == nil || !strings.Contains(err.Error(), "3 problem(s)") {
		t.Errorf("verify() error = %v", err)
	}

	if err := verify(filepath.Join(dir, "absent.yaml"), log); err == nil {
		t.Error("missing exercise must fail")
	}
}

func TestReadLimit(t *testing.T) {
	tests := []struct {
		html, css int
		want      int64
	}{
		{0, 0, 0},
		{10, 0, 0},
		{10, 20, 20},
		{30, 20, 30},
	}
	for _, tt := range tests {
		if got := readLimit(&config.GradingConfig{MaxHTMLBytes: tt.html, MaxCSSBytes: tt.css}); got != tt.want {
			t.Errorf("readLimit(%d, %d) = %d, want %d", tt.html, tt.css, got, tt.want)
		}
	}
}

func TestGrade_DebugReport(t *testing.T) {
	ctx, env := setupTestEnv(t)
	exPath, src := sampleClass(t)

	rpt, err := (&config.ReporterConfig{Destination: filepath.Join(t.TempDir(), "debug.zip")}).Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	env.Rpt = rpt

	if err := grade(ctx, env, mustLoad(t, exPath), src, "", new(bytes.Buffer), env.Log); err != nil {
		t.Fatalf("grade() error = %v", err)
	}
	if err := rpt.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	zr, err := zip.OpenReader(rpt.Name())
	if err != nil {
		t.Fatalf("unable to open debug report: %v", err)
	}
	defer zr.Close()

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{"MANIFEST", "report.txt", "graded/alice.txt", "graded/bob.txt"} {
		if !names[want] {
			t.Errorf("debug report misses %s, has %v", want, names)
		}
	}
}
