//go:build !linux

package delegate

// threadID reports no identity where the OS thread id is not available. Reentrancy then
// relies on the context marker alone.
func threadID() (int, bool) {
	return 0, false
}
