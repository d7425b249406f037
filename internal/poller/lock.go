package poller

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// Lock is an OS advisory lock guaranteeing a single poller per cache
// directory. The kernel releases it if the process dies, so a crash never
// leaves a stale lock behind.
type Lock struct {
	f *os.File
}

// AcquireLock takes a non-blocking exclusive flock on path, failing
// immediately when another instance holds it. The holder's pid is written
// into the file for operators; the flock is what actually guards.
func AcquireLock(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("poller: opening lock file %s: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("poller: another instance holds %s: %w", path, err)
	}

	if err := f.Truncate(0); err == nil {
		_, _ = f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	}
	return &Lock{f: f}, nil
}

// Release drops the lock and closes the file.
func (l *Lock) Release() error {
	if err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN); err != nil {
		l.f.Close()
		return fmt.Errorf("poller: releasing lock: %w", err)
	}
	return l.f.Close()
}
