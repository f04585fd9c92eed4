package logging

import (
	"os"
	"sync"
)

// capWriter appends to a log file and truncates it once it would grow
// past the cap, so a long-lived relay cannot fill the disk.
type capWriter struct {
	mu   sync.Mutex
	path string
	max  int64
	file *os.File
	size int64
}

func newCapWriter(path string, maxMB int) (*capWriter, error) {
	if maxMB <= 0 {
		maxMB = 10
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &capWriter{path: path, max: int64(maxMB) * 1024 * 1024, file: f, size: info.Size()}, nil
}

func (w *capWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.size+int64(len(p)) > w.max {
		_ = w.file.Close()
		f, err := os.OpenFile(w.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			return 0, err
		}
		w.file = f
		w.size = 0
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *capWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
