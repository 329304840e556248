package logx

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const archiveTimeLayout = "20060102-150405.000000000"

type RotateOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	Compress   bool
	Now        func() time.Time

	// maxSizeBytes overrides MaxSizeMB in tests.
	maxSizeBytes int64
}

// RotateWriter is an append-only file writer that moves the active file aside
// once it would grow past the size limit. Archives are named
// <path>.<timestamp>[.gz]; only the newest MaxBackups are kept.
type RotateWriter struct {
	mu sync.Mutex

	path string
	dir  string
	base string

	maxSizeBytes int64
	maxBackups   int
	compress     bool
	now          func() time.Time

	f      *os.File
	size   int64
	closed bool
}

type archiveFile struct {
	path string
	when time.Time
}

func NewRotateWriter(opts RotateOptions) (*RotateWriter, error) {
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		return nil, errors.New("log rotate path is empty")
	}
	limit := opts.maxSizeBytes
	if limit <= 0 {
		if opts.MaxSizeMB <= 0 {
			return nil, errors.New("max_size_mb must be > 0")
		}
		limit = int64(opts.MaxSizeMB) * 1024 * 1024
	}
	if opts.MaxBackups <= 0 {
		return nil, errors.New("max_backups must be > 0")
	}

	nowFn := opts.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
	}

	f, size, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	return &RotateWriter{
		path:         path,
		dir:          dir,
		base:         filepath.Base(path),
		maxSizeBytes: limit,
		maxBackups:   opts.MaxBackups,
		compress:     opts.Compress,
		now:          nowFn,
		f:            f,
		size:         size,
	}, nil
}

func (w *RotateWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, os.ErrClosed
	}
	if w.size > 0 && w.size+int64(len(p)) > w.maxSizeBytes {
		if err := w.rotateLocked(); err != nil {
			return 0, err
		}
	}
	n, err := w.f.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *RotateWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

func (w *RotateWriter) rotateLocked() error {
	if err := w.f.Close(); err != nil {
		return err
	}
	w.f = nil

	archive := fmt.Sprintf("%s.%s", w.path, w.now().In(time.Local).Format(archiveTimeLayout))
	renameErr := os.Rename(w.path, archive)
	if renameErr != nil && errors.Is(renameErr, os.ErrNotExist) {
		renameErr = nil
		archive = ""
	}

	f, size, err := openAppend(w.path)
	if err != nil {
		return err
	}
	w.f, w.size = f, size
	if renameErr != nil {
		return renameErr
	}

	if archive != "" && w.compress {
		if err := gzipFile(archive); err != nil {
			return err
		}
	}
	w.pruneLocked()
	return nil
}

func (w *RotateWriter) pruneLocked() {
	files, err := w.archivesLocked()
	if err != nil {
		return
	}
	for i := w.maxBackups; i < len(files); i++ {
		_ = os.Remove(files[i].path)
	}
}

// archivesLocked lists archives, newest first.
func (w *RotateWriter) archivesLocked() ([]archiveFile, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, err
	}
	prefix := w.base + "."
	var files []archiveFile
	for _, ent := range entries {
		name := ent.Name()
		if ent.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		ts := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".gz")
		when, err := time.ParseInLocation(archiveTimeLayout, ts, time.Local)
		if err != nil {
			continue
		}
		files = append(files, archiveFile{path: filepath.Join(w.dir, name), when: when})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].when.After(files[j].when)
	})
	return files, nil
}

func openAppend(path string) (*os.File, int64, error) {
	// #nosec G304 -- log path comes from trusted config/env.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, 0, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, err
	}
	return f, st.Size(), nil
}

func gzipFile(path string) error {
	// #nosec G304 -- archive path is derived from the log path.
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = src.Close()
	}()

	tmp := path + ".gz.tmp"
	dst, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(dst)
	_, err = io.Copy(gz, src)
	if cerr := gz.Close(); err == nil {
		err = cerr
	}
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path+".gz"); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Remove(path)
}
