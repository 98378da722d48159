// Package git runs the git binary to version a storage directory.
package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultLockTimeout bounds how long Lock waits for another writer.
const DefaultLockTimeout = 10 * time.Second

// ErrLockTimeout is returned when the repository lock could not be acquired.
var ErrLockTimeout = errors.New("timed out waiting for git lock")

// Client wraps git command execution with a file-based lock for process safety.
type Client struct {
	WorkDir     string
	Logger      *slog.Logger
	LockTimeout time.Duration
	lockPath    string
}

// NewClient creates a git client for workDir. lockName is the lock file
// created inside workDir while a writer holds the repository.
func NewClient(workDir, lockName string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		WorkDir:     workDir,
		Logger:      logger,
		LockTimeout: DefaultLockTimeout,
		lockPath:    filepath.Join(workDir, lockName),
	}
}

// IsInstalled reports whether git is available in PATH.
func IsInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// IsRepo reports whether WorkDir is the top of a git repository.
func (c *Client) IsRepo() bool {
	info, err := os.Stat(filepath.Join(c.WorkDir, ".git"))
	return err == nil && info.IsDir()
}

// Lock acquires the file-based lock, polling until it is free, the context
// ends, or LockTimeout elapses. The returned func releases it.
func (c *Client) Lock(ctx context.Context) (func(), error) {
	deadline := time.Now().Add(c.LockTimeout)
	for {
		f, err := os.OpenFile(c.lockPath, os.O_CREATE|os.O_EXCL, 0o666)
		if err == nil {
			f.Close()
			return func() { _ = os.Remove(c.lockPath) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// Run executes a raw git command in the working directory.
// It does not take the lock; callers writing to the repository must hold it.
func (c *Client) Run(ctx context.Context, args ...string) (string, error) {
	c.Logger.Debug("executing git", "args", args, "dir", c.WorkDir)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.WorkDir

	out, err := cmd.CombinedOutput()
	output := string(out)
	if err != nil {
		return output, fmt.Errorf("git %s failed: %w\nOutput: %s", args[0], err, output)
	}
	return strings.TrimSpace(output), nil
}

// Init initializes a repository. Re-running it is safe.
func (c *Client) Init(ctx context.Context) error {
	_, err := c.Run(ctx, "init")
	return err
}

// Add stages files.
func (c *Client) Add(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	_, err := c.Run(ctx, append([]string{"add", "--"}, files...)...)
	return err
}

// Rm removes files from the index. The working tree copy is left alone.
func (c *Client) Rm(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	_, err := c.Run(ctx, append([]string{"rm", "--cached", "--ignore-unmatch", "-q", "--"}, files...)...)
	return err
}

// Commit records the staged changes. Nothing staged is not an error.
func (c *Client) Commit(ctx context.Context, msg string) error {
	if _, err := c.Run(ctx, "diff", "--cached", "--quiet"); err == nil {
		return nil
	}
	_, err := c.Run(ctx,
		"-c", "user.name=sheaf",
		"-c", "user.email=sheaf@localhost",
		"commit", "-q", "-m", msg)
	return err
}

// Log returns up to n one-line commit subjects touching path, newest first.
func (c *Client) Log(ctx context.Context, path string, n int) ([]string, error) {
	out, err := c.Run(ctx, "log", fmt.Sprintf("-n%d", n), "--format=%h %s", "--", path)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// Status returns the porcelain status of the repository.
func (c *Client) Status(ctx context.Context) (string, error) {
	return c.Run(ctx, "status", "--porcelain")
}
