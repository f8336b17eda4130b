package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Rotator is an io.Writer that rolls its file over once it reaches MaxSize.
type Rotator struct {
	Filename   string
	MaxSize    int64
	MaxBackups int

	mu   sync.Mutex
	file *os.File
	size int64
}

// Setup sends the standard logger to stdout and, when filename is set, to a
// rotating file as well. The returned closer is never nil.
func Setup(filename string, maxSizeMB int64, maxBackups int) io.Closer {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if filename == "" {
		return io.NopCloser(nil)
	}
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}

	r := &Rotator{
		Filename:   filename,
		MaxSize:    maxSizeMB * 1024 * 1024,
		MaxBackups: maxBackups,
	}
	if err := r.openExistingOrNew(); err != nil {
		log.Printf("logger: cannot open %s, using stdout only: %v", filename, err)
		return io.NopCloser(nil)
	}
	log.SetOutput(io.MultiWriter(os.Stdout, r))
	return r
}

func (r *Rotator) openExistingOrNew() error {
	if err := os.MkdirAll(filepath.Dir(r.Filename), 0o755); err != nil {
		return err
	}
	info, err := os.Stat(r.Filename)
	if os.IsNotExist(err) {
		return r.openNew()
	}
	if err != nil {
		return err
	}
	f, err := os.OpenFile(r.Filename, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	r.file = f
	r.size = info.Size()
	return nil
}

func (r *Rotator) openNew() error {
	f, err := os.OpenFile(r.Filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	r.file = f
	r.size = 0
	return nil
}

func (r *Rotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		if err := r.openExistingOrNew(); err != nil {
			return 0, err
		}
	}
	if r.size > 0 && r.size+int64(len(p)) > r.MaxSize {
		if err := r.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "logger: rotation failed: %v\n", err)
		}
	}
	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

func (r *Rotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// rotate shifts name.N to name.N+1, dropping anything past MaxBackups, and
// starts a fresh file.
func (r *Rotator) rotate() error {
	if r.file != nil {
		r.file.Close()
		r.file = nil
	}

	if r.MaxBackups <= 0 {
		return r.openNew()
	}
	_ = os.Remove(fmt.Sprintf("%s.%d", r.Filename, r.MaxBackups))
	for i := r.MaxBackups - 1; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", r.Filename, i)
		if _, err := os.Stat(oldPath); os.IsNotExist(err) {
			continue
		}
		if err := os.Rename(oldPath, fmt.Sprintf("%s.%d", r.Filename, i+1)); err != nil {
			return err
		}
	}
	if _, err := os.Stat(r.Filename); err == nil {
		if err := os.Rename(r.Filename, r.Filename+".1"); err != nil {
			return err
		}
	}
	return r.openNew()
}
