//go:build linux

package delegate

import "golang.org/x/sys/unix"

// threadID returns the id of the OS thread running the caller. It is stable only for a
// goroutine locked to its thread.
func threadID() (int, bool) {
	return unix.Gettid(), true
}
