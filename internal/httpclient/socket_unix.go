//go:build linux || darwin

package httpclient

import "syscall"

// setSocketOptions widens the kernel's send/receive buffers for the dial
// context used by many-connection multi-segment downloads.
func setSocketOptions(fd uintptr) {
	syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_RCVBUF, 1024*1024)
	syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_SNDBUF, 1024*1024)
}
