//go:build windows

package ops

import (
	"os"

	"github.com/hpungsan/tweetsched/internal/errors"
)

// openFileNoFollowRead opens a file for reading.
// On Windows, O_NOFOLLOW is not available; LoadImage still rejects symlinks
// before we get here.
func openFileNoFollowRead(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewInvalidRequest("image not found").WithDetail("path", path)
		}
		return nil, errors.NewInternal(err)
	}
	return f, nil
}
