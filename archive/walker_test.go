package archive

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

type zipEntry struct {
	name    string
	content string
	nonUTF8 bool
}

func makeZip(t *testing.T, entries ...zipEntry) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "test.zip")

	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	defer zipFile.Close()

	w := zip.NewWriter(zipFile)
	for _, e := range entries {
		fw, err := w.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Deflate, NonUTF8: e.nonUTF8})
		if err != nil {
			t.Fatalf("Failed to create file %s in zip: %v", e.name, err)
		}
		if _, err := fw.Write([]byte(e.content)); err != nil {
			t.Fatalf("Failed to write content for %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return zipPath
}

func names(t *testing.T, archive, prefix string) []string {
	t.Helper()
	var visited []string
	err := Walk(context.Background(), archive, prefix, nil, func(a string, e Entry) error {
		if a != archive {
			t.Errorf("archive = %s, want %s", a, archive)
		}
		visited = append(visited, e.Name)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	return visited
}

func TestWalk(t *testing.T) {
	zipPath := makeZip(t,
		zipEntry{name: "alice/index.html", content: "<h1>A</h1>"},
		zipEntry{name: "alice/style.css", content: "h1{}"},
		zipEntry{name: "bob/"},
		zipEntry{name: "bob/index.html", content: "<h1>B</h1>"},
		zipEntry{name: "README", content: "readme"},
	)

	tests := []struct {
		prefix string
		want   []string
	}{
		{"alice/", []string{"alice/index.html", "alice/style.css"}},
		{"bob/", []string{"bob/index.html"}},
		{"", []string{"alice/index.html", "alice/style.css", "bob/index.html", "README"}},
		{"Alice/", nil},
		{"carol/", nil},
	}
	for _, tt := range tests {
		t.Run("prefix "+tt.prefix, func(t *testing.T) {
			if got := names(t, zipPath, tt.prefix); !slices.Equal(got, tt.want) {
				t.Errorf("visited %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWalk_StopsOnError(t *testing.T) {
	zipPath := makeZip(t, zipEntry{name: "a.html"}, zipEntry{name: "b.html"}, zipEntry{name: "c.html"})

	stop := errors.New("stop")
	var count int
	err := Walk(context.Background(), zipPath, "", nil, func(string, Entry) error {
		if count++; count == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Errorf("Walk() error = %v, want %v", err, stop)
	}
	if count != 2 {
		t.Errorf("visited %d files, want 2", count)
	}
}

func TestWalk_Canceled(t *testing.T) {
	zipPath := makeZip(t, zipEntry{name: "a.html"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Walk(ctx, zipPath, "", nil, func(string, Entry) error {
		t.Error("no entry must be visited")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Walk() error = %v, want context.Canceled", err)
	}
}

func TestWalk_InvalidArchive(t *testing.T) {
	noop := func(string, Entry) error { return nil }

	if err := Walk(context.Background(), filepath.Join(t.TempDir(), "absent.zip"), "", nil, noop); err == nil {
		t.Error("expected error for nonexistent file")
	}

	bad := filepath.Join(t.TempDir(), "bad.zip")
	if err := os.WriteFile(bad, []byte("not a zip"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := Walk(context.Background(), bad, "", nil, noop); err == nil {
		t.Error("expected error for invalid zip")
	}
}

func TestWalk_UnsafePaths(t *testing.T) {
	for _, name := range []string{"../evil.html", "site/../../evil.html", "/etc/passwd", `\windows\evil.html`, `C:\evil.html`, `site\..\..\evil.html`} {
		t.Run(name, func(t *testing.T) {
			zipPath := makeZip(t, zipEntry{name: "ok.html"}, zipEntry{name: name})
			err := Walk(context.Background(), zipPath, "", nil, func(string, Entry) error { return nil })
			if err == nil || !strings.Contains(err.Error(), "unsafe path") {
				t.Errorf("Walk() error = %v, want unsafe path error", err)
			}
		})
	}
}

func TestWalk_NonUTF8Names(t *testing.T) {
	raw, err := charmap.Windows1251.NewEncoder().String("урок/index.html")
	if err != nil {
		t.Fatal(err)
	}
	zipPath := makeZip(t, zipEntry{name: raw, content: "<p>x</p>", nonUTF8: true})

	var got string
	err = Walk(context.Background(), zipPath, "", charmap.Windows1251, func(_ string, e Entry) error {
		got = e.Name
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if got != "урок/index.html" {
		t.Errorf("Name = %q, want decoded name", got)
	}

	if n := names(t, zipPath, ""); len(n) != 1 || n[0] != raw {
		t.Errorf("without code page name must stay as is, got %q", n)
	}
}

func TestEntry_Open(t *testing.T) {
	zipPath := makeZip(t, zipEntry{name: "index.html", content: "<h1>Hello</h1>"})

	var visited bool
	if err := Walk(context.Background(), zipPath, "", nil, func(_ string, e Entry) error {
		visited = true
		rc, err := e.Open()
		if err != nil {
			return err
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return err
		}
		if string(data) != "<h1>Hello</h1>" {
			t.Errorf("content = %q", data)
		}
		return nil
	}); err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if !visited {
		t.Fatal("entry not visited")
	}
}
