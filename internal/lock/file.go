// Package lock provides cross-process file locks with PID-based stale detection.
package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/jayteealao/gitbean/internal/errors"
)

// retryDelay is how often Acquire polls a held lock.
const retryDelay = 50 * time.Millisecond

// Lock is a held file lock for a named resource.
type Lock struct {
	flock   *flock.Flock
	pidFile string
	name    string
}

// Manager hands out locks stored under a single directory.
type Manager struct {
	lockDir string
}

// NewManager creates a lock manager rooted at <dataDir>/locks.
func NewManager(dataDir string) (*Manager, error) {
	lockDir := filepath.Join(dataDir, "locks")
	if err := os.MkdirAll(lockDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	return &Manager{lockDir: lockDir}, nil
}

func (m *Manager) paths(name string) (lockPath, pidFile string) {
	return filepath.Join(m.lockDir, name+".lock"), filepath.Join(m.lockDir, name+".pid")
}

// Acquire blocks until the named lock is held or ctx is done.
// PID files left behind by dead processes are removed first.
func (m *Manager) Acquire(ctx context.Context, name string) (*Lock, error) {
	lockPath, pidFile := m.paths(name)

	m.cleanStaleLock(pidFile)

	fl := flock.New(lockPath)
	locked, err := fl.TryLockContext(ctx, retryDelay)
	if err != nil {
		if pid, perr := readPIDFile(pidFile); perr == nil {
			return nil, fmt.Errorf("%w: %s held by PID %d: %v", errors.ErrLocked, name, pid, err)
		}
		return nil, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", errors.ErrLocked, name)
	}

	return m.held(fl, name, pidFile)
}

// TryAcquire attempts to take the lock without waiting.
// It returns nil, nil when the lock is held elsewhere.
func (m *Manager) TryAcquire(name string) (*Lock, error) {
	lockPath, pidFile := m.paths(name)

	m.cleanStaleLock(pidFile)

	fl := flock.New(lockPath)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to try lock %s: %w", name, err)
	}
	if !locked {
		return nil, nil
	}

	return m.held(fl, name, pidFile)
}

// IsLocked reports whether the named lock is held, and by which PID if known.
func (m *Manager) IsLocked(name string) (bool, int, error) {
	lockPath, pidFile := m.paths(name)

	fl := flock.New(lockPath)
	locked, err := fl.TryLock()
	if err != nil {
		return false, 0, fmt.Errorf("failed to check lock %s: %w", name, err)
	}
	if locked {
		fl.Unlock()
		return false, 0, nil
	}

	pid, err := readPIDFile(pidFile)
	if err != nil {
		return true, 0, nil
	}
	return true, pid, nil
}

func (m *Manager) held(fl *flock.Flock, name, pidFile string) (*Lock, error) {
	if err := writePIDFile(pidFile); err != nil {
		fl.Unlock()
		return nil, fmt.Errorf("failed to write PID file: %w", err)
	}
	return &Lock{
		flock:   fl,
		pidFile: pidFile,
		name:    name,
	}, nil
}

// cleanStaleLock removes PID files whose owning process is gone.
func (m *Manager) cleanStaleLock(pidFile string) {
	pid, err := readPIDFile(pidFile)
	if err != nil {
		return
	}
	if isProcessRunning(pid) {
		return
	}
	// The kernel dropped the dead owner's flock; only the PID file is stale.
	os.Remove(pidFile)
}

// Release releases the lock and removes its PID file. The lock file stays:
// unlinking it would let a waiter lock the old inode while a newcomer locks
// a fresh one.
func (l *Lock) Release() error {
	os.Remove(l.pidFile)

	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Name returns the resource name this lock guards.
func (l *Lock) Name() string {
	return l.name
}

func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// isProcessRunning checks if a process with the given PID is alive.
func isProcessRunning(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// On Unix FindProcess always succeeds, so probe with signal 0.
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}

	errStr := err.Error()
	if strings.Contains(errStr, "process already finished") ||
		strings.Contains(errStr, "no such process") ||
		strings.Contains(errStr, "Access is denied") {
		return false
	}

	// Unknown state: treat as alive.
	return true
}
