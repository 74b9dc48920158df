//go:build !windows

package process

import "syscall"

// killTree signals the whole process group; rod starts Chrome as a group
// leader.
func killTree(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}
