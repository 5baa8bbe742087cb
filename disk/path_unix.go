//go:build !windows

package disk

import "path/filepath"

// resolvePath follows udev-style aliases such as /dev/disk/by-id/... to the
// device node they point at. Unresolvable paths are returned as is.
func resolvePath(path string) string {
	if target, err := filepath.EvalSymlinks(path); err == nil {
		return target
	}
	return path
}
