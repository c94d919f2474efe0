package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"hcg/common"
	"hcg/config"
	"hcg/exercise"
	"hcg/report"
	"hcg/state"
	"hcg/submission"
)

func runGrade(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("grade")

	exPath, src, dst := cmd.Args().Get(0), cmd.Args().Get(1), cmd.Args().Get(2)
	if len(exPath) == 0 {
		return errors.New("no exercise has been specified")
	}
	if len(src) == 0 {
		return errors.New("no submission source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}
	if len(dst) > 0 {
		if dst, err = filepath.Abs(dst); err != nil {
			return err
		}
	}
	if cmd.Args().Len() > 3 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[3:]))
	}

	env.Format = env.Cfg.Report.Format
	if cmd.IsSet("format") {
		if env.Format, err = common.ParseReportFormat(cmd.String("format")); err != nil {
			log.Warn("Unknown report format requested, using configured one", zap.Stringer("format", env.Cfg.Report.Format), zap.Error(err))
			env.Format = env.Cfg.Report.Format
		}
	}
	env.Overwrite, env.Strict, env.ExtraCSS = cmd.Bool("overwrite"), cmd.Bool("strict"), cmd.String("css")

	// Old sources and zip archives may use archaic code page without saying so
	if cp := cmd.String("force-cp"); len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil || env.CodePage == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting non UTF-8 sources", zap.String("charset", n))
		}
	}

	ex, err := loadExercise(exPath)
	if err != nil {
		return err
	}
	if env.Rpt != nil {
		if err := env.Rpt.StoreCopy("exercise/"+filepath.Base(exPath), exPath); err != nil {
			log.Debug("Unable to store exercise in debug report", zap.Error(err))
		}
		if err := env.Rpt.StoreCopy("source", src); err != nil {
			log.Debug("Unable to store source in debug report", zap.Error(err))
		}
	}

	log.Info("Grading starting", zap.String("exercise", ex.Title), zap.String("source", src), zap.String("destination", dst), zap.Stringer("format", env.Format))
	defer func(start time.Time) {
		log.Info("Grading completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return grade(ctx, env, ex, src, dst, os.Stdout, log)
}

func loadExercise(name string) (*exercise.Exercise, error) {
	ex, err := exercise.Load(name)
	if err != nil {
		return nil, err
	}
	if err := ex.Validate(); err != nil {
		return nil, fmt.Errorf("exercise '%s' is not valid: %w", name, err)
	}
	return ex, nil
}

// grade handles grading independently of CLI framework. Report goes to stdout
// when dst is empty.
func grade(ctx context.Context, env *state.LocalEnv, ex *exercise.Exercise, src, dst string, stdout io.Writer, log *zap.Logger) error {
	subs, err := submission.Load(ctx, src, submission.Options{
		ExtraCSS: env.ExtraCSS,
		CodePage: env.CodePage,
		MaxBytes: readLimit(&env.Cfg.Grading),
	}, log)
	if err != nil {
		return fmt.Errorf("unable to load submissions: %w", err)
	}

	rpt, err := report.New(ex.Title, ex.Description)
	if err != nil {
		return err
	}

	g := env.NewGrader()
	for _, s := range subs {
		results := g.Grade(ctx, s.HTML, s.CSS, ex.Checks)

		diags := slices.Clone(s.Problems)
		if env.Cfg.Grading.Diagnostics && (env.Cfg.Grading.MaxCSSBytes == 0 || len(s.CSS) <= env.Cfg.Grading.MaxCSSBytes) {
			diags = append(diags, g.Diagnose(s.CSS)...)
		}
		rpt.Add(s.Name, s.HTMLFile, results, diags)
		if env.Rpt != nil {
			env.Rpt.StoreData(fmt.Sprintf("graded/%s.txt", config.CleanFileName(s.Name)), []byte(s.String()+"\n"+g.Rules(s.CSS).String()))
		}

		last := rpt.Submissions[len(rpt.Submissions)-1]
		log.Info("Submission graded", zap.String("name", s.Name), zap.Stringer("kind", s.Kind),
			zap.Int("passed", last.Passed), zap.Int("total", last.Total), zap.Int("errors", last.Errors()))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := writeReport(env, rpt, dst, stdout, log); err != nil {
		return err
	}

	if env.Strict && rpt.Failed() {
		passed, total := rpt.Totals()
		return fmt.Errorf("%d of %d checks failed", total-passed, total)
	}
	return nil
}

func writeReport(env *state.LocalEnv, rpt *report.Report, dst string, stdout io.Writer, log *zap.Logger) error {
	var buf bytes.Buffer
	err := rpt.Write(&buf, env.Format,
		report.WithShowPassed(env.Cfg.Report.ShowPassed),
		report.WithTextTemplate(env.Cfg.Report.TextTemplate))
	if err != nil {
		return fmt.Errorf("unable to render report: %w", err)
	}
	env.Rpt.StoreData("report"+env.Format.Ext(), buf.Bytes())

	if len(dst) == 0 {
		_, err := stdout.Write(buf.Bytes())
		return err
	}

	outputName, err := rpt.OutputName(dst, env.Cfg.Report.OutputNameTemplate, env.Format)
	if err != nil {
		log.Warn("Unable to prepare output filename, using default", zap.Error(err))
	}

	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	if err := os.WriteFile(outputName, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("unable to write report: %w", err)
	}
	log.Info("Report written", zap.String("file", outputName))
	return nil
}

// readLimit caps single file reads so oversized inputs still reach grader
// limits without being loaded whole.
func readLimit(conf *config.GradingConfig) int64 {
	if conf.MaxHTMLBytes == 0 || conf.MaxCSSBytes == 0 {
		return 0
	}
	return int64(max(conf.MaxHTMLBytes, conf.MaxCSSBytes))
}
