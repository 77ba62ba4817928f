//go:build !windows

package gateways

import "golang.org/x/sys/unix"

// diskFree returns the bytes available to unprivileged users on the
// filesystem holding path.
func diskFree(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	//nolint:gosec // G115: Bavail is non-negative on all supported platforms
	return uint64(st.Bavail) * uint64(st.Bsize), nil
}
