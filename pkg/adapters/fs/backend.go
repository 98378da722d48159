// Package fs stores each key as a JSON file in a directory, optionally
// versioned with git, and reports external edits through fsnotify.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/sheaf/pkg/git"
	"github.com/aretw0/sheaf/pkg/storage"
)

const (
	// FileExt is the extension of every stored key.
	FileExt = ".json"
	// LockName is the git lock file created inside the directory.
	LockName = ".sheaf.lock"
)

// Config holds the configuration for the filesystem backend.
type Config struct {
	Path         string
	Quota        int64 // total bytes across keys, zero means unlimited
	Versioning   bool  // commit every write to a git repository at Path
	MustExist    bool
	Logger       *slog.Logger
	ErrorHandler func(error) // receives watcher errors
}

// Backend implements storage.Backend on the filesystem.
type Backend struct {
	Path   string
	config Config
	git    *git.Client
	writes *writeCache

	writeMu sync.Mutex // serializes Put and Remove

	mu            sync.RWMutex
	watcherActive bool
	lastEvent     *time.Time
}

// NewBackend creates a filesystem backend. Call Initialize before use.
func NewBackend(config Config) *Backend {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Backend{
		Path:   config.Path,
		config: config,
		git:    git.NewClient(config.Path, LockName, config.Logger),
		writes: newWriteCache(),
	}
}

// Initialize prepares the directory and, when versioning, the git repository.
func (b *Backend) Initialize(ctx context.Context) error {
	if b.config.MustExist {
		info, err := os.Stat(b.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("store path does not exist: %s", b.Path)
		}
		if err != nil {
			return fmt.Errorf("failed to stat store path: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("store path is not a directory: %s", b.Path)
		}
	} else if err := os.MkdirAll(b.Path, 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	if !b.config.Versioning {
		return nil
	}
	if !git.IsInstalled() {
		return fmt.Errorf("git is not installed")
	}

	wasNewRepo := false
	if !b.git.IsRepo() {
		if err := b.git.Init(ctx); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
		wasNewRepo = true
	}

	mod, err := b.ensureIgnore()
	if err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}
	if mod && wasNewRepo {
		if err := b.git.Add(ctx, ".gitignore"); err != nil {
			return fmt.Errorf("failed to add .gitignore: %w", err)
		}
		if err := b.git.Commit(ctx, "chore: configure sheaf ignore"); err != nil {
			return fmt.Errorf("failed to commit .gitignore: %w", err)
		}
	}
	return nil
}

// ensureIgnore keeps the lock and temp files out of version control.
func (b *Backend) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(b.Path, ".gitignore")
	wanted := []string{LockName, TempFilePrefix + "*"}

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, w := range wanted {
		if !present[w] {
			missing = append(missing, w)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}
	if _, err := f.WriteString(strings.Join(missing, "\n") + "\n"); err != nil {
		return false, err
	}
	return true, nil
}

func validateKey(key string) error {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") ||
		strings.HasPrefix(key, TempFilePrefix) || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}

func (b *Backend) filename(key string) string {
	return key + FileExt
}

// Put writes data to <key>.json atomically and commits it when versioning.
func (b *Backend) Put(ctx context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if b.config.Quota > 0 {
		used, err := b.usedExcept(ctx, key)
		if err != nil {
			return err
		}
		if used+int64(len(data)) > b.config.Quota {
			return fmt.Errorf("%w: %d of %d bytes", storage.ErrQuotaExceeded, used+int64(len(data)), b.config.Quota)
		}
	}

	// Recorded first so the watcher never sees the write as external.
	b.writes.recordWrite(key, data)
	if err := writeFileAtomic(filepath.Join(b.Path, b.filename(key)), data, 0o644); err != nil {
		b.writes.forget(key)
		return fmt.Errorf("failed to write file: %w", err)
	}

	if b.config.Versioning {
		return b.commit(ctx, "update "+key, func() error {
			return b.git.Add(ctx, b.filename(key))
		})
	}
	return nil
}

// Get reads <key>.json.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(b.Path, b.filename(key)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Remove deletes <key>.json. A missing key is not an error.
func (b *Backend) Remove(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	b.writes.recordRemove(key)
	err := os.Remove(filepath.Join(b.Path, b.filename(key)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to remove file: %w", err)
	}

	if b.config.Versioning {
		return b.commit(ctx, "delete "+key, func() error {
			return b.git.Rm(ctx, b.filename(key))
		})
	}
	return nil
}

// Entries lists the stored keys sorted by name.
func (b *Backend) Entries(ctx context.Context) ([]storage.Entry, error) {
	dir, err := os.ReadDir(b.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list store: %w", err)
	}

	entries := make([]storage.Entry, 0, len(dir))
	for _, d := range dir {
		key, ok := keyFromName(d.Name())
		if !ok || d.IsDir() {
			continue
		}
		info, err := d.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		entries = append(entries, storage.Entry{
			Key:     key,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// History returns up to n commit subjects for key, newest first.
// It is empty when versioning is disabled.
func (b *Backend) History(ctx context.Context, key string, n int) ([]string, error) {
	if !b.config.Versioning {
		return nil, nil
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}
	return b.git.Log(ctx, b.filename(key), n)
}

// keyFromName maps a file name to its key, rejecting foreign files.
func keyFromName(name string) (string, bool) {
	if !strings.HasSuffix(name, FileExt) || strings.HasPrefix(name, TempFilePrefix) || strings.HasPrefix(name, ".") {
		return "", false
	}
	key := strings.TrimSuffix(name, FileExt)
	return key, key != ""
}

func (b *Backend) usedExcept(ctx context.Context, key string) (int64, error) {
	entries, err := b.Entries(ctx)
	if err != nil {
		return 0, err
	}
	var used int64
	for _, e := range entries {
		if e.Key != key {
			used += e.Size
		}
	}
	return used, nil
}

func (b *Backend) commit(ctx context.Context, msg string, stage func() error) error {
	unlock, err := b.git.Lock(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	if err := stage(); err != nil {
		return fmt.Errorf("failed to stage change: %w", err)
	}
	if err := b.git.Commit(ctx, msg); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}
	return nil
}

var _ storage.Backend = (*Backend)(nil)
var _ storage.Watchable = (*Backend)(nil)
