// Package process stops headless browser processes left behind by PDF
// rendering.
package process

import "errors"

// ErrInvalidPID is returned for PIDs that would address the caller's own
// process group.
var ErrInvalidPID = errors.New("invalid pid")

// KillTree stops pid and every process it spawned. Chrome forks renderer
// and GPU helpers that outlive the launcher, so killing the parent alone is
// not enough.
func KillTree(pid int) error {
	if pid <= 0 {
		return ErrInvalidPID
	}
	return killTree(pid)
}
