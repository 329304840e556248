package logx

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/r9s-ai/open-line-parsers/pkg/config"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func listArchives(t *testing.T, dir, base string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var out []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), base+".") {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out
}

func TestNewRotateWriterValidation(t *testing.T) {
	if _, err := NewRotateWriter(RotateOptions{Path: " ", MaxSizeMB: 1, MaxBackups: 1}); err == nil {
		t.Fatalf("expected error for empty path")
	}
	p := filepath.Join(t.TempDir(), "a.log")
	if _, err := NewRotateWriter(RotateOptions{Path: p, MaxSizeMB: 0, MaxBackups: 1}); err == nil {
		t.Fatalf("expected error for invalid max_size_mb")
	}
	if _, err := NewRotateWriter(RotateOptions{Path: p, MaxSizeMB: 1, MaxBackups: 0}); err == nil {
		t.Fatalf("expected error for invalid max_backups")
	}
}

func TestRotateWriterRotatesBySize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lp.log")
	clock := &testClock{now: time.Date(2026, 2, 1, 12, 0, 0, 1, time.Local)}

	w, err := NewRotateWriter(RotateOptions{Path: path, MaxBackups: 10, Now: clock.Now, maxSizeBytes: 16})
	if err != nil {
		t.Fatalf("NewRotateWriter err=%v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	if _, err := w.Write([]byte("0123456789\n")); err != nil {
		t.Fatalf("first write err=%v", err)
	}
	if got := listArchives(t, dir, "lp.log"); len(got) != 0 {
		t.Fatalf("unexpected archives %v", got)
	}
	if _, err := w.Write([]byte("abcdefghij\n")); err != nil {
		t.Fatalf("second write err=%v", err)
	}
	archives := listArchives(t, dir, "lp.log")
	if len(archives) != 1 {
		t.Fatalf("expected 1 archive, got %v", archives)
	}
	b, err := os.ReadFile(filepath.Join(dir, archives[0]))
	if err != nil || string(b) != "0123456789\n" {
		t.Fatalf("archive content=%q err=%v", b, err)
	}
	b, err = os.ReadFile(path)
	if err != nil || string(b) != "abcdefghij\n" {
		t.Fatalf("active content=%q err=%v", b, err)
	}
}

func TestRotateWriterOversizedFirstWriteDoesNotRotate(t *testing.T) {
	dir := t.TempDir()
	w, err := NewRotateWriter(RotateOptions{Path: filepath.Join(dir, "lp.log"), MaxBackups: 1, maxSizeBytes: 4})
	if err != nil {
		t.Fatalf("NewRotateWriter err=%v", err)
	}
	defer func() { _ = w.Close() }()
	if _, err := w.Write([]byte("longer than four")); err != nil {
		t.Fatalf("write err=%v", err)
	}
	if got := listArchives(t, dir, "lp.log"); len(got) != 0 {
		t.Fatalf("unexpected archives %v", got)
	}
}

func TestRotateWriterKeepsNewestBackups(t *testing.T) {
	dir := t.TempDir()
	clock := &testClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.Local)}
	w, err := NewRotateWriter(RotateOptions{
		Path:         filepath.Join(dir, "lp.log"),
		MaxBackups:   2,
		Compress:     true,
		Now:          clock.Now,
		maxSizeBytes: 8,
	})
	if err != nil {
		t.Fatalf("NewRotateWriter err=%v", err)
	}
	defer func() { _ = w.Close() }()

	for i := 0; i < 5; i++ {
		clock.advance(time.Second)
		if _, err := w.Write([]byte("payload!")); err != nil {
			t.Fatalf("write %d err=%v", i, err)
		}
	}
	archives := listArchives(t, dir, "lp.log")
	if len(archives) != 2 {
		t.Fatalf("expected 2 archives, got %v", archives)
	}
	for _, a := range archives {
		if !strings.HasSuffix(a, ".gz") {
			t.Fatalf("archive not compressed: %s", a)
		}
	}

	f, err := os.Open(filepath.Join(dir, archives[1]))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer func() { _ = f.Close() }()
	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	b, err := io.ReadAll(zr)
	if err != nil || string(b) != "payload!" {
		t.Fatalf("archive content=%q err=%v", b, err)
	}
}

func TestRotateWriterClosed(t *testing.T) {
	w, err := NewRotateWriter(RotateOptions{Path: filepath.Join(t.TempDir(), "lp.log"), MaxSizeMB: 1, MaxBackups: 1})
	if err != nil {
		t.Fatalf("NewRotateWriter err=%v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close err=%v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second close err=%v", err)
	}
	if _, err := w.Write([]byte("x")); err == nil {
		t.Fatalf("expected write after close to fail")
	}
}

func TestFormatRequestLine(t *testing.T) {
	ts := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	got := FormatRequestLine(ts, 200, 1500*time.Millisecond, " 127.0.0.1 ", "POST", "/api/rows", false)
	want := "2026/01/02 - 15:04:05 | 200 | 1.5s | 127.0.0.1 | POST /api/rows"
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}

	got = FormatRequestLine(ts, 404, time.Millisecond, "", "GET", "/x", true)
	if !strings.Contains(got, yellow+" 404 "+resetFG) || !strings.Contains(got, "| - |") {
		t.Fatalf("unexpected colored line %q", got)
	}
}

func TestColorizeStatusClasses(t *testing.T) {
	for status, want := range map[int]string{201: green, 302: white, 429: yellow, 503: red} {
		if got := ColorizeStatus(status, true); !strings.HasPrefix(got, want) {
			t.Fatalf("status %d: got %q", status, got)
		}
	}
}

func TestUseColorNonFile(t *testing.T) {
	if UseColor(&bytes.Buffer{}) {
		t.Fatalf("buffer is never a terminal")
	}
}

func TestOpen(t *testing.T) {
	t.Run("fallback writer", func(t *testing.T) {
		var buf bytes.Buffer
		l, c, err := Open(config.LoggingConfig{}, &buf)
		if err != nil || c != nil {
			t.Fatalf("Open closer=%v err=%v", c, err)
		}
		l.Printf("hello key=%q", "v")
		if !strings.Contains(buf.String(), `hello key="v"`) {
			t.Fatalf("unexpected output %q", buf.String())
		}
	})

	t.Run("plain file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sub", "lp.log")
		l, c, err := Open(config.LoggingConfig{Path: path}, nil)
		if err != nil {
			t.Fatalf("Open err=%v", err)
		}
		l.Println("to file")
		if err := c.Close(); err != nil {
			t.Fatalf("close err=%v", err)
		}
		b, _ := os.ReadFile(path)
		if !strings.Contains(string(b), "to file") {
			t.Fatalf("file content=%q", b)
		}
	})

	t.Run("rotating file", func(t *testing.T) {
		cfg := config.LoggingConfig{Path: filepath.Join(t.TempDir(), "lp.log")}
		cfg.Rotate = config.LogRotateConfig{Enabled: true, MaxSizeMB: 1, MaxBackups: 2}
		_, c, err := Open(cfg, nil)
		if err != nil {
			t.Fatalf("Open err=%v", err)
		}
		defer func() { _ = c.Close() }()
		if _, ok := c.(*RotateWriter); !ok {
			t.Fatalf("closer type=%T want *RotateWriter", c)
		}
	})
}
