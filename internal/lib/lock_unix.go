//go:build unix

package lib

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// probeLock reports whether another process holds an exclusive lock on path.
// Writers that do not take a lock are not detected.
func probeLock(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	fd := int(f.Fd())
	err = unix.Flock(fd, unix.LOCK_SH|unix.LOCK_NB)
	switch {
	case err == nil:
		_ = unix.Flock(fd, unix.LOCK_UN)
		return false, nil
	case errors.Is(err, unix.EWOULDBLOCK):
		return true, nil
	case errors.Is(err, unix.ENOLCK), errors.Is(err, unix.EOPNOTSUPP), errors.Is(err, unix.ENOTSUP):
		// The filesystem has no flock support; nobody can hold one either.
		return false, nil
	default:
		return false, fmt.Errorf("failed to probe lock: %w", err)
	}
}
