//go:build darwin

package disk

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	dkiocGetBlockSize  = 0x40046418 // _IOR('d', 24, uint32)
	dkiocGetBlockCount = 0x40086419 // _IOR('d', 25, uint64)
)

// openRaw opens the device synchronously and turns off the unified buffer
// cache for this descriptor. Use the /dev/rdiskN node for unbuffered access.
func openRaw(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, err
	}
	if _, err := unix.FcntlInt(f.Fd(), unix.F_NOCACHE, 1); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("F_NOCACHE: %w", err)
	}
	return f, nil
}

func queryGeometry(f *os.File) (Geometry, error) {
	fd := int(f.Fd())

	var blockSize uint32
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), dkiocGetBlockSize, uintptr(unsafe.Pointer(&blockSize))); errno != 0 {
		return Geometry{}, fmt.Errorf("DKIOCGETBLOCKSIZE: %w", errno)
	}

	var blockCount uint64
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), dkiocGetBlockCount, uintptr(unsafe.Pointer(&blockCount))); errno != 0 {
		return Geometry{}, fmt.Errorf("DKIOCGETBLOCKCOUNT: %w", errno)
	}

	return deriveGeometry(int64(blockCount)*int64(blockSize), blockSize, 0, 0)
}

func candidatePath(n int) string {
	return fmt.Sprintf("/dev/rdisk%d", n)
}

// boostPriority sets nice -20 for the process. Darwin has no per-thread
// realtime class reachable without Mach thread policy calls.
func boostPriority() error {
	if err := unix.Setpriority(unix.PRIO_PROCESS, 0, -20); err != nil {
		return fmt.Errorf("setpriority: %w", err)
	}
	return nil
}
