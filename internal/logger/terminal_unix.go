//go:build linux || darwin

package logger

import "golang.org/x/sys/unix"

// isTerminal reports whether fd refers to a terminal, deciding whether
// colored output is appropriate.
func isTerminal(fd uintptr) bool {
	_, err := unix.IoctlGetTermios(int(fd), termiosRequest)
	return err == nil
}
