package submission

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"hcg/common"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func writeZip(t *testing.T, name string, files map[string]string) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), name)
	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return zipPath
}

func subNames(subs []Submission) []string {
	out := make([]string, 0, len(subs))
	for _, s := range subs {
		out = append(out, s.Name)
	}
	return out
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"page.html": "<h1>Hi</h1>",
		"style.css": "h1 { color: red; }",
		"extra.css": "p { margin: 0; }",
	})

	subs, err := Load(context.Background(), filepath.Join(dir, "page.html"), Options{ExtraCSS: filepath.Join(dir, "extra.css")}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("got %d submissions, want 1", len(subs))
	}
	s := subs[0]
	if s.Name != "page.html" || s.Kind != common.SourceKindFile {
		t.Errorf("Name = %q, Kind = %s", s.Name, s.Kind)
	}
	if s.HTML != "<h1>Hi</h1>" {
		t.Errorf("HTML = %q", s.HTML)
	}
	// sibling stylesheet is not picked for a single file
	if s.CSS != "p { margin: 0; }" {
		t.Errorf("CSS = %q", s.CSS)
	}
}

func TestLoad_Directory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "class")
	writeFiles(t, dir, map[string]string{
		"student10/index.html":    "<p>10</p>",
		"student2/index.html":     "<p>2</p>",
		"student2/b.css":          "b{}",
		"student2/a10.css":        "a10{}",
		"student2/a9.css":         "a9{}",
		"student2/css/theme.css":  "theme{}",
		"student2/notes.txt":      "ignored",
		"student3/about.html":     "<p>about</p>",
		"student3/index.htm":      "<p>3</p>",
		"assets/css/orphan.css":   "orphan{}",
		"student10/img/logo.css":  "logo{}",
		"student10/img/logo.html": "<p>logo</p>",
	})

	subs, err := Load(context.Background(), dir, Options{}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"student2", "student3", "student10", "student10/img"}
	if got := subNames(subs); !slices.Equal(got, want) {
		t.Fatalf("names = %v, want %v", got, want)
	}

	s2 := subs[0]
	if s2.Kind != common.SourceKindDirectory {
		t.Errorf("Kind = %s", s2.Kind)
	}
	if s2.CSS != "a9{}\na10{}\nb{}\ntheme{}" {
		t.Errorf("CSS = %q", s2.CSS)
	}
	if !slices.Equal(s2.CSSFiles, []string{"student2/a9.css", "student2/a10.css", "student2/b.css", "student2/css/theme.css"}) {
		t.Errorf("CSSFiles = %v", s2.CSSFiles)
	}

	s3 := subs[1]
	if s3.HTML != "<p>3</p>" || s3.HTMLFile != "student3/index.htm" {
		t.Errorf("index page must be preferred, got %s", s3.HTMLFile)
	}
	if len(s3.Problems) != 1 {
		t.Errorf("Problems = %v", s3.Problems)
	}

	if subs[2].CSS != "" {
		t.Errorf("stylesheet of nested page leaked: %q", subs[2].CSS)
	}
}

func TestLoad_DirectoryRoot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "alice")
	writeFiles(t, dir, map[string]string{"index.html": "<p>a</p>", "style.css": "p{}"})

	subs, err := Load(context.Background(), dir, Options{}, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(subs) != 1 || subs[0].Name != "alice" || subs[0].CSS != "p{}" {
		t.Errorf("got %+v", subs)
	}
}

func TestLoad_Archive(t *testing.T) {
	zipPath := writeZip(t, "week1.zip", map[string]string{
		"bob/index.html":   "<p>bob</p>",
		"bob/style.css":    "p{}",
		"alice/index.html": "<p>alice</p>",
		"alice/logo.png":   "\x89PNG\r\n\x1a\n",
		"other/x.css":      "x{}",
	})

	subs, err := Load(context.Background(), zipPath, Options{}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := subNames(subs); !slices.Equal(got, []string{"alice", "bob"}) {
		t.Fatalf("names = %v", got)
	}
	if subs[1].Kind != common.SourceKindArchive || subs[1].CSS != "p{}" || subs[1].HTML != "<p>bob</p>" {
		t.Errorf("bob = %+v", subs[1])
	}

	t.Run("path inside archive", func(t *testing.T) {
		subs, err := Load(context.Background(), filepath.Join(zipPath, "bob"), Options{}, nil)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(subs) != 1 || subs[0].Name != "bob" || subs[0].CSS != "p{}" {
			t.Errorf("got %+v", subs)
		}
	})

	t.Run("missing path inside archive", func(t *testing.T) {
		if _, err := Load(context.Background(), filepath.Join(zipPath, "carol"), Options{}, nil); !errors.Is(err, errNoSubmissions) {
			t.Errorf("Load() error = %v, want %v", err, errNoSubmissions)
		}
	})
}

func TestLoad_ArchiveWithoutExtension(t *testing.T) {
	zipPath := writeZip(t, "upload.bin", map[string]string{"index.html": "<p>x</p>"})

	subs, err := Load(context.Background(), zipPath, Options{}, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(subs) != 1 || subs[0].Name != "upload" {
		t.Errorf("got %+v", subs)
	}
}

func TestLoad_Binary(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"index.html": "<p>x</p>",
		"style.css":  "GIF89a\x01\x00\x01\x00",
	})

	subs, err := Load(context.Background(), dir, Options{}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if subs[0].CSS != "" || len(subs[0].CSSFiles) != 0 {
		t.Errorf("binary stylesheet must be skipped: %+v", subs[0])
	}
	if len(subs[0].Problems) != 1 || !strings.Contains(subs[0].Problems[0], "style.css") {
		t.Errorf("Problems = %v", subs[0].Problems)
	}
}

func TestLoad_Encodings(t *testing.T) {
	cp1251, err := charmap.Windows1251.NewEncoder().String("<p>Привет</p>")
	if err != nil {
		t.Fatal(err)
	}
	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String("<p>Привет</p>")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name    string
		content string
		forced  bool
		want    string
	}{
		{"utf8", "<p>Привет</p>", false, "<p>Привет</p>"},
		{"utf8 bom", "\xef\xbb\xbf<p>Привет</p>", false, "<p>Привет</p>"},
		{"meta", `<meta charset="windows-1251">` + cp1251, false, `<meta charset="windows-1251"><p>Привет</p>`},
		{"forced", cp1251, true, "<p>Привет</p>"},
		{"utf16 bom wins over forced", utf16, true, "<p>Привет</p>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFiles(t, dir, map[string]string{"index.html": tt.content})

			opts := Options{}
			if tt.forced {
				opts.CodePage = charmap.Windows1251
			}
			subs, err := Load(context.Background(), filepath.Join(dir, "index.html"), opts, nil)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if subs[0].HTML != tt.want {
				t.Errorf("HTML = %q, want %q", subs[0].HTML, tt.want)
			}
		})
	}
}

func TestLoad_MaxBytes(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"index.html": strings.Repeat("x", 100)})

	subs, err := Load(context.Background(), dir, Options{MaxBytes: 10}, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(subs[0].HTML) != 11 {
		t.Errorf("len(HTML) = %d, want 11", len(subs[0].HTML))
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"notes.txt":       "text",
		"empty/style.css": "p{}",
		"page.html":       "<p>x</p>",
	})

	tests := []struct {
		name string
		src  string
		opts Options
	}{
		{"missing", filepath.Join(dir, "absent"), Options{}},
		{"not html", filepath.Join(dir, "notes.txt"), Options{}},
		{"no pages", filepath.Join(dir, "empty"), Options{}},
		{"path below file", filepath.Join(dir, "page.html", "x"), Options{}},
		{"path below directory", filepath.Join(dir, "empty", "x"), Options{}},
		{"missing extra css", filepath.Join(dir, "page.html"), Options{ExtraCSS: filepath.Join(dir, "nope.css")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(context.Background(), tt.src, tt.opts, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_Canceled(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"index.html": "<p>x</p>"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Load(ctx, dir, Options{}, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestSubmission_String(t *testing.T) {
	s := &Submission{
		Name:     "alice",
		Kind:     common.SourceKindDirectory,
		HTMLFile: "alice/index.html",
		CSSFiles: []string{"alice/a.css"},
		HTML:     "<p>x</p>",
		CSS:      "p {}\nh1 {}",
	}
	want := "Submission[\"alice\"] kind[directory]\n" +
		"  Page: \"alice/index.html\"\n" +
		"  Stylesheet[0]: \"alice/a.css\"\n" +
		"  HTML:\n" +
		"    <p>x</p>\n" +
		"  CSS:\n" +
		"    p {}\n" +
		"    h1 {}\n"
	if got := s.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}

	var empty *Submission
	if empty.String() != "<nil Submission>" {
		t.Errorf("nil String() = %q", empty.String())
	}
}
