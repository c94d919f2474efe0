// Package submission collects learner work (html page and its stylesheets)
// from files, directories and zip archives.
package submission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/h2non/filetype"
	"github.com/maruel/natural"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"hcg/archive"
	"hcg/common"
)

// Submission is a single page to grade.
type Submission struct {
	// Name identifies submission in reports: directory relative to source,
	// or file name.
	Name string
	Kind common.SourceKind
	// HTMLFile and CSSFiles are paths of files submission was built from,
	// relative to source.
	HTMLFile string
	CSSFiles []string
	HTML     string
	CSS      string
	// Problems are non fatal issues found while loading, they end up in
	// report diagnostics.
	Problems []string
}

// Options controls how sources are read.
type Options struct {
	// ExtraCSS is path to stylesheet appended to every submission.
	ExtraCSS string
	// CodePage is used for file content which is not valid UTF-8 and does not
	// declare its encoding, and for non UTF-8 names in archives.
	CodePage encoding.Encoding
	// MaxBytes caps how much of a single file is read (0 - no limit). Longer
	// files are truncated to MaxBytes+1 so size checks downstream still fail.
	MaxBytes int64
}

var errNoSubmissions = errors.New("no html files found")

// group accumulates files of a single directory.
type group struct {
	html []string
	css  []string
}

// source abstracts file access for directories and archives.
type source interface {
	read(name string) ([]byte, error)
}

// Load finds submissions under src, which is html file, directory, zip
// archive or path inside zip archive ("lessons.zip/week1").
func Load(ctx context.Context, src string, opts Options, log *zap.Logger) ([]Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("submission")

	extra, err := readExtra(opts)
	if err != nil {
		return nil, err
	}

	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.IsDir() {
			if len(tail) != 0 {
				return nil, fmt.Errorf("submission source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			return loadDir(ctx, head, extra, opts, log)
		}
		if !fi.Mode().IsRegular() {
			return nil, fmt.Errorf("unexpected path mode for (%s)", head)
		}

		zipped, err := isArchiveFile(head)
		if err != nil {
			return nil, fmt.Errorf("unable to check archive type: %w", err)
		}
		if zipped {
			prefix := strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			return loadArchive(ctx, head, filepath.ToSlash(prefix), extra, opts, log)
		}
		if len(tail) != 0 || !isHTMLName(head) {
			return nil, fmt.Errorf("submission source is not html file, directory or zip archive (%s)", src)
		}
		return loadFile(head, extra, opts, log)
	}
	return nil, fmt.Errorf("submission source was not found (%s)", src)
}

func loadFile(name string, extra []byte, opts Options, log *zap.Logger) ([]Submission, error) {
	src := dirSource{dir: filepath.Dir(name), limit: opts.MaxBytes}
	base := filepath.Base(name)

	sub, err := build(src, base, base, nil, extra, opts, log)
	if err != nil {
		return nil, err
	}
	sub.Kind = common.SourceKindFile
	return []Submission{sub}, nil
}

func loadDir(ctx context.Context, dir string, extra []byte, opts Options, log *zap.Logger) ([]Submission, error) {
	groups := make(map[string]*group)
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", p), zap.Error(err))
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		add(groups, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	subs, err := collect(ctx, dirSource{dir: dir, limit: opts.MaxBytes}, filepath.Base(dir), groups, extra, opts, log)
	if err != nil {
		return nil, err
	}
	for i := range subs {
		subs[i].Kind = common.SourceKindDirectory
	}
	return subs, nil
}

func loadArchive(ctx context.Context, name, prefix string, extra []byte, opts Options, log *zap.Logger) ([]Submission, error) {
	zs := zipSource{entries: make(map[string]archive.Entry), limit: opts.MaxBytes}
	groups := make(map[string]*group)

	// path inside archive is always a directory
	if len(prefix) > 0 && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	err := archive.Walk(ctx, name, prefix, opts.CodePage, func(_ string, e archive.Entry) error {
		rel := strings.TrimPrefix(e.Name, prefix)
		zs.entries[rel] = e
		add(groups, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to process archive: %w", err)
	}

	root := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if len(prefix) > 0 {
		root = path.Base(strings.TrimSuffix(prefix, "/"))
	}
	subs, err := collect(ctx, zs, root, groups, extra, opts, log)
	if err != nil {
		return nil, err
	}
	for i := range subs {
		subs[i].Kind = common.SourceKindArchive
	}
	return subs, nil
}

func add(groups map[string]*group, rel string) {
	var isHTML bool
	switch {
	case isHTMLName(rel):
		isHTML = true
	case strings.EqualFold(path.Ext(rel), ".css"):
	default:
		return
	}
	dir := path.Dir(rel)
	g, ok := groups[dir]
	if !ok {
		g = &group{}
		groups[dir] = g
	}
	if isHTML {
		g.html = append(g.html, rel)
	} else {
		g.css = append(g.css, rel)
	}
}

// collect builds submission for every group holding html, groups are
// processed in natural order of directory names.
func collect(ctx context.Context, src source, root string, groups map[string]*group, extra []byte, opts Options, log *zap.Logger) ([]Submission, error) {
	dirs := make([]string, 0, len(groups))
	for dir, g := range groups {
		if len(g.html) > 0 {
			dirs = append(dirs, dir)
		}
	}
	if len(dirs) == 0 {
		return nil, errNoSubmissions
	}
	slices.SortFunc(dirs, compareNatural)

	// stylesheets kept in subdirectories ("css/main.css") belong to the
	// closest page above them
	for dir, g := range groups {
		if len(g.html) > 0 {
			continue
		}
		owner := ownerOf(dir, groups)
		if owner == nil {
			log.Debug("Skipping stylesheets without html", zap.String("dir", dir), zap.Strings("css", g.css))
			continue
		}
		owner.css = append(owner.css, g.css...)
	}

	subs := make([]Submission, 0, len(dirs))
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g := groups[dir]
		slices.SortFunc(g.html, compareNatural)
		slices.SortFunc(g.css, compareNatural)

		page := pickPage(g.html)
		if len(g.html) > 1 {
			log.Warn("Several html files in directory, grading one", zap.String("dir", dir), zap.String("graded", page))
		}

		name := dir
		if dir == "." {
			name = root
		}
		sub, err := build(src, name, page, g.css, extra, opts, log)
		if err != nil {
			return nil, err
		}
		if len(g.html) > 1 {
			sub.Problems = append(sub.Problems, fmt.Sprintf("%d html files found, only %s was graded", len(g.html), page))
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func ownerOf(dir string, groups map[string]*group) *group {
	for dir != "." {
		dir = path.Dir(dir)
		if g, ok := groups[dir]; ok && len(g.html) > 0 {
			return g
		}
	}
	return nil
}

// pickPage prefers index page, otherwise first page in natural order.
func pickPage(pages []string) string {
	for _, p := range pages {
		switch strings.ToLower(path.Base(p)) {
		case "index.html", "index.htm":
			return p
		}
	}
	return pages[0]
}

func build(src source, name, page string, styles []string, extra []byte, opts Options, log *zap.Logger) (Submission, error) {
	sub := Submission{Name: name, HTMLFile: page}

	data, err := src.read(page)
	if err != nil {
		return sub, fmt.Errorf("unable to read %s: %w", page, err)
	}
	if problem := checkText(page, data); len(problem) > 0 {
		log.Warn("Skipping binary file", zap.String("file", page))
		sub.Problems = append(sub.Problems, problem)
	} else {
		text, err := decode(data, "text/html", opts.CodePage)
		if err != nil {
			return sub, fmt.Errorf("unable to decode %s: %w", page, err)
		}
		sub.HTML = text
	}

	var css strings.Builder
	for _, name := range styles {
		data, err := src.read(name)
		if err != nil {
			return sub, fmt.Errorf("unable to read %s: %w", name, err)
		}
		if problem := checkText(name, data); len(problem) > 0 {
			log.Warn("Skipping binary file", zap.String("file", name))
			sub.Problems = append(sub.Problems, problem)
			continue
		}
		text, err := decode(data, "text/css", opts.CodePage)
		if err != nil {
			return sub, fmt.Errorf("unable to decode %s: %w", name, err)
		}
		appendStyle(&css, text)
		sub.CSSFiles = append(sub.CSSFiles, name)
	}
	if extra != nil {
		appendStyle(&css, string(extra))
	}
	sub.CSS = css.String()

	log.Debug("Submission loaded", zap.String("name", sub.Name), zap.String("html", page), zap.Strings("css", sub.CSSFiles),
		zap.Int("html bytes", len(sub.HTML)), zap.Int("css bytes", len(sub.CSS)))
	return sub, nil
}

func appendStyle(b *strings.Builder, text string) {
	if b.Len() > 0 {
		b.WriteByte('\n')
	}
	b.WriteString(text)
}

func readExtra(opts Options) ([]byte, error) {
	if len(opts.ExtraCSS) == 0 {
		return nil, nil
	}
	data, err := readFile(opts.ExtraCSS, opts.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("unable to read stylesheet: %w", err)
	}
	if problem := checkText(opts.ExtraCSS, data); len(problem) > 0 {
		return nil, errors.New(problem)
	}
	text, err := decode(data, "text/css", opts.CodePage)
	if err != nil {
		return nil, fmt.Errorf("unable to decode stylesheet: %w", err)
	}
	return []byte(text), nil
}

func isHTMLName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// isArchiveFile checks file signature, extension does not matter.
func isArchiveFile(name string) (bool, error) {
	f, err := os.Open(name)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return filetype.Is(head[:n], "zip"), nil
}

// checkText returns problem description when data looks like a known binary
// format.
func checkText(name string, data []byte) string {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return fmt.Sprintf("%s is %s (%s), not text, skipped", name, kind.Extension, kind.MIME.Value)
}

func compareNatural(a, b string) int {
	switch {
	case natural.Less(a, b):
		return -1
	case natural.Less(b, a):
		return 1
	}
	return 0
}

type dirSource struct {
	dir   string
	limit int64
}

func (s dirSource) read(name string) ([]byte, error) {
	return readFile(filepath.Join(s.dir, filepath.FromSlash(name)), s.limit)
}

type zipSource struct {
	entries map[string]archive.Entry
	limit   int64
}

func (s zipSource) read(name string) ([]byte, error) {
	e, ok := s.entries[name]
	if !ok {
		return nil, fs.ErrNotExist
	}
	rc, err := e.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return readLimited(rc, s.limit)
}

func readFile(name string, limit int64) ([]byte, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLimited(f, limit)
}

// readLimited reads at most limit+1 bytes.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	return io.ReadAll(r)
}
