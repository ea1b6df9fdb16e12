//go:build !linux && !darwin && !freebsd && !openbsd && !netbsd && !dragonfly

package logging

// IsTerminal always reports false on platforms without termios.
func IsTerminal(fd uintptr) bool {
	return false
}
