//go:build windows

package gateways

import "golang.org/x/sys/windows"

// diskFree returns the bytes available to the calling user on the volume
// holding path.
func diskFree(path string) (uint64, error) {
	var free, total, totalFree uint64
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}
	if err := windows.GetDiskFreeSpaceEx(p, &free, &total, &totalFree); err != nil {
		return 0, err
	}
	return free, nil
}
