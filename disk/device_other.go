//go:build !linux && !darwin && !windows

package disk

import (
	"fmt"
	"os"
	"runtime"
)

var errUnsupported = fmt.Errorf("raw device access not implemented on %s", runtime.GOOS)

func openRaw(string) (*os.File, error) { return nil, errUnsupported }

func queryGeometry(*os.File) (Geometry, error) { return Geometry{}, errUnsupported }

func candidatePath(n int) string { return fmt.Sprintf("/dev/disk%d", n) }

func boostPriority() error { return errUnsupported }
