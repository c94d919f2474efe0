package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"hcg/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates empty debug report. When destination cannot be created
// report goes to temporary directory.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	r := &Report{items: make(map[string]item)}

	f, err := os.Create(conf.Destination)
	if err != nil {
		if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err != nil {
			return nil, fmt.Errorf("unable to create report: %w", err)
		}
	}
	r.file = f
	return r, nil
}

// item is either a path (file or directory) collected when report is closed,
// or data captured when it was stored.
type item struct {
	origin string
	path   string
	data   []byte
	stamp  time.Time
}

// Report collects grading inputs, configuration, logs and results into a zip
// archive to help troubleshooting. All methods are no-op on nil Report, so
// callers do not have to check whether report was requested.
type Report struct {
	mu    sync.Mutex
	items map[string]item
	file  *os.File
}

// Name returns absolute name of the archive.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store remembers path to file or directory, its content is read on Close.
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.items[name]; ok && old.origin != path {
		panic(fmt.Sprintf("debug report entry %q already refers to %s, not %s", name, old.origin, path))
	}
	it := item{origin: path, path: path}
	if abs, err := filepath.Abs(path); err == nil {
		it.path = abs
	}
	r.items[name] = it
}

// StoreData puts data into archive under name. Repeated names get a
// timestamp suffix.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[r.unique(name, time.Now())] = item{data: slices.Clone(data), stamp: time.Now()}
}

// StoreCopy captures content of a file or directory as it is now. Grading
// inputs are stored this way so archive shows what was actually graded.
func (r *Report) StoreCopy(name, path string) error {
	if r == nil {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if info.Mode().IsRegular() {
		data, err := os.ReadFile(abs)
		if err != nil {
			return err
		}
		r.items[r.unique(name, now)] = item{origin: path, data: data, stamp: info.ModTime()}
		return nil
	}
	if !info.IsDir() {
		return nil
	}
	// directory is flattened into data entries under name/
	prefix := r.unique(name, now)
	return filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return err
		}
		rel, err := filepath.Rel(abs, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		r.items[filepath.ToSlash(filepath.Join(prefix, rel))] = item{origin: p, data: data, stamp: now}
		return nil
	})
}

func (r *Report) unique(name string, t time.Time) string {
	if _, ok := r.items[name]; ok {
		return fmt.Sprintf("%s-%d", name, t.UnixNano())
	}
	return name
}

// Close writes archive. Paths which do not exist at this point are skipped.
func (r *Report) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	defer r.file.Close()

	r.mu.Lock()
	defer r.mu.Unlock()

	arc := zip.NewWriter(r.file)
	names := slices.Sorted(maps.Keys(r.items))

	if err := addEntry(arc, "MANIFEST", time.Now(), bytes.NewReader(r.manifest(names))); err != nil {
		return err
	}
	for _, name := range names {
		it := r.items[name]
		if it.data != nil {
			if err := addEntry(arc, name, it.stamp, bytes.NewReader(it.data)); err != nil {
				return err
			}
			continue
		}
		if err := addPath(arc, name, it.path); err != nil {
			return err
		}
	}
	return arc.Close()
}

func (r *Report) manifest(names []string) []byte {
	var buf bytes.Buffer
	now := time.Now()
	for _, name := range names {
		it := r.items[name]
		stamp := it.stamp
		if stamp.IsZero() {
			stamp = now
		}
		fmt.Fprintf(&buf, "%s\t%s\t%s : %s\n", stamp.UTC().Format(time.UnixDate), name, it.origin, it.path)
	}
	return buf.Bytes()
}

func addPath(arc *zip.Writer, name, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	if info.Mode().IsRegular() {
		return addFile(arc, name, path, info.ModTime())
	}
	if !info.IsDir() {
		return nil
	}
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			// ignore links, sockets, etc.
			return err
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		return addFile(arc, filepath.ToSlash(filepath.Join(name, rel)), p, fi.ModTime())
	})
}

func addFile(arc *zip.Writer, name, path string, modified time.Time) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return addEntry(arc, name, modified, f)
}

func addEntry(arc *zip.Writer, name string, modified time.Time, src io.Reader) error {
	w, err := arc.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
