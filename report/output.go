package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/gosimple/slug"

	"hcg/common"
	"hcg/config"
)

// nameValues is what output name template sees.
type nameValues struct {
	*Report
	Format string
	Date   string
}

// OutputName returns path of report file under dir. Name is either expanded
// template (may contain subdirectories) or slug of exercise title, extension
// always follows format. When template cannot be expanded default name is
// returned together with error.
func (r *Report) OutputName(dir, tmpl string, format common.ReportFormat) (string, error) {
	def := filepath.Join(dir, r.defaultName()+format.Ext())
	if len(tmpl) == 0 {
		return def, nil
	}

	expanded, err := r.expandName(tmpl, format)
	if err != nil {
		return def, err
	}
	segments := splitPath(filepath.FromSlash(expanded))
	if len(segments) == 0 {
		return def, nil
	}

	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, dir)
	for _, s := range segments {
		parts = append(parts, config.CleanFileName(s))
	}
	parts[len(parts)-1] += format.Ext()
	return filepath.Join(parts...), nil
}

func (r *Report) defaultName() string {
	if name := slug.Make(r.Exercise); len(name) > 0 {
		return name
	}
	return "report"
}

func (r *Report) expandName(tmpl string, format common.ReportFormat) (string, error) {
	t, err := template.New("output_name_template").Funcs(sprig.FuncMap()).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("unable to parse output name template: %w", err)
	}
	values := nameValues{
		Report: r,
		Format: format.String(),
		Date:   r.GeneratedAt.Format("2006-01-02"),
	}
	buf := new(bytes.Buffer)
	if err := t.Execute(buf, values); err != nil {
		return "", fmt.Errorf("unable to expand output name template: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// splitPath breaks path into its non empty segments, parent references are
// dropped so name never leaves destination directory.
func splitPath(path string) []string {
	segments := make([]string, 0, 8)
	for head, tail := filepath.Split(path); ; head, tail = filepath.Split(head) {
		if tail != "" && tail != "." && tail != ".." {
			segments = slices.Insert(segments, 0, tail)
		}
		head = strings.TrimSuffix(head, string(os.PathSeparator))
		if head == "" || head == path {
			break
		}
		path = head
	}
	return segments
}
