package ledger

import (
	"bufio"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/desertthunder/strippers/internal/models"
)

// FileLedger keeps the ledger in a plain text file.
//
// Reads share a lock; Append and Remove take it exclusively. Remove rewrites through a temp file in the same
// directory and renames it over the original, so a reader sees either the old or the new content.
type FileLedger struct {
	path string
	mu   sync.RWMutex
}

// NewFileLedger returns a ledger stored at path. The file is created on first append.
func NewFileLedger(path string) *FileLedger {
	return &FileLedger{path: path}
}

// Path returns the backing file.
func (l *FileLedger) Path() string {
	return l.path
}

func (l *FileLedger) Contains(ctx context.Context, key models.SongKey) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	lines, err := l.readLines()
	if err != nil {
		return false, err
	}

	want := Line(key)
	for _, line := range lines {
		if line == want {
			return true, nil
		}
	}
	return false, nil
}

func (l *FileLedger) Append(ctx context.Context, key models.SongKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return ioError("open", err)
	}

	if _, err := f.WriteString(Line(key) + "\n"); err != nil {
		f.Close()
		return ioError("append", err)
	}
	if err := f.Close(); err != nil {
		return ioError("close", err)
	}
	return nil
}

func (l *FileLedger) Remove(ctx context.Context, key models.SongKey) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	lines, err := l.readLines()
	if err != nil {
		return 0, err
	}

	target := Line(key)
	kept := lines[:0]
	removed := 0
	for _, line := range lines {
		if line == target {
			removed++
			continue
		}
		kept = append(kept, line)
	}

	if removed == 0 {
		return 0, nil
	}
	if err := l.rewrite(kept); err != nil {
		return 0, err
	}
	return removed, nil
}

func (l *FileLedger) Dump(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", ioError("read", err)
	}
	return string(data), nil
}

func (l *FileLedger) Entries(ctx context.Context) ([]models.SongKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	lines, err := l.readLines()
	if err != nil {
		return nil, err
	}

	keys := make([]models.SongKey, 0, len(lines))
	for _, line := range lines {
		if key, ok := ParseLine(line); ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// readLines returns the non-empty lines of the file. Callers hold the lock.
func (l *FileLedger) readLines() ([]string, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, ioError("open", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, ioError("scan", err)
	}
	return lines, nil
}

// rewrite replaces the file with lines. Callers hold the write lock.
func (l *FileLedger) rewrite(lines []string) error {
	tmp, err := os.CreateTemp(filepath.Dir(l.path), "."+filepath.Base(l.path)+".*")
	if err != nil {
		return ioError("create temp", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName)
		}
	}()

	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		w.WriteString(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return ioError("write temp", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return ioError("sync temp", err)
	}
	if err := tmp.Close(); err != nil {
		return ioError("close temp", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return ioError("chmod temp", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		return ioError("rename", err)
	}

	committed = true
	return nil
}
