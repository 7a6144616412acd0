//go:build windows

package lib

import (
	"errors"
	"os"

	"golang.org/x/sys/windows"
)

// probeLock reports whether another process has path open without read
// sharing, or holds a byte-range lock on it.
func probeLock(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if isLockError(err) {
			return true, nil
		}
		return false, err
	}
	defer f.Close()

	handle := windows.Handle(f.Fd())
	var overlapped windows.Overlapped
	err = windows.LockFileEx(handle, windows.LOCKFILE_FAIL_IMMEDIATELY, 0, 1, 0, &overlapped)
	if err != nil {
		if isLockError(err) {
			return true, nil
		}
		return false, err
	}
	_ = windows.UnlockFileEx(handle, 0, 1, 0, &overlapped)
	return false, nil
}

func isLockError(err error) bool {
	return errors.Is(err, windows.ERROR_SHARING_VIOLATION) || errors.Is(err, windows.ERROR_LOCK_VIOLATION)
}
