package serial

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// ErrDeviceBusy means another process holds the device lock
var ErrDeviceBusy = errors.New("serial device busy")

const (
	lockRetries    = 50
	lockRetryDelay = 2 * time.Millisecond
)

// LockPath returns the advisory lock file used for device
func LockPath(dir, device string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(filepath.Clean(device))
	return filepath.Join(dir, "servoarm"+name+".lock")
}

// lockDevice takes the advisory lock for device so two host tools never
// talk to the same controller at once
func lockDevice(dir, device string) (*flock.Flock, error) {
	fileLock := flock.New(LockPath(dir, device))

	retries := 0
	for {
		locked, err := fileLock.TryLock()
		if err != nil {
			return nil, errors.Wrapf(err, "could not try locking %s", device)
		}
		if locked {
			return fileLock, nil
		}
		retries++
		if retries > lockRetries {
			return nil, errors.Wrapf(ErrDeviceBusy, "%s (lock %s)", device, fileLock.Path())
		}
		// if we didn't obtain the lock let's try again after a short delay
		time.Sleep(lockRetryDelay)
	}
}
