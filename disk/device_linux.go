//go:build linux

package disk

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	blkSSZGet    = 0x1268     // _IO(0x12, 104)
	blkGetSize64 = 0x80081272 // _IOR(0x12, 114, size_t)
	hdioGetGeo   = 0x0301

	ioprioWhoProcess = 1
	ioprioClassRT    = 1
	ioprioClassShift = 13
)

// hdGeometry mirrors struct hd_geometry from <linux/hdreg.h>.
type hdGeometry struct {
	Heads     uint8
	Sectors   uint8
	Cylinders uint16
	Start     uintptr
}

// openRaw opens the block device bypassing the page cache. Linux never locks a
// block device unless O_EXCL is passed, so other readers/writers are tolerated.
func openRaw(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_RDWR|os.O_SYNC|unix.O_DIRECT, 0)
}

func queryGeometry(f *os.File) (Geometry, error) {
	fd := int(f.Fd())

	ssz, err := unix.IoctlGetInt(fd, blkSSZGet)
	if err != nil {
		return Geometry{}, fmt.Errorf("BLKSSZGET: %w", err)
	}

	var size uint64
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), blkGetSize64, uintptr(unsafe.Pointer(&size))); errno != 0 {
		return Geometry{}, fmt.Errorf("BLKGETSIZE64: %w", errno)
	}

	// HDIO_GETGEO cylinders are 16 bit and wrap on anything modern; only heads
	// and sectors are taken from it. Drivers without getgeo (loop, dm) fall
	// back to the 255/63 translation.
	var hd hdGeometry
	var heads, spt uint32
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), hdioGetGeo, uintptr(unsafe.Pointer(&hd))); errno == 0 {
		heads, spt = uint32(hd.Heads), uint32(hd.Sectors)
	}

	return deriveGeometry(int64(size), uint32(ssz), heads, spt)
}

func candidatePath(n int) string {
	return fmt.Sprintf("/dev/sd%c", 'a'+n)
}

// boostPriority sets nice -20 and the realtime I/O class on the calling thread.
// Both require CAP_SYS_NICE / CAP_SYS_ADMIN.
func boostPriority() error {
	if err := unix.Setpriority(unix.PRIO_PROCESS, 0, -20); err != nil {
		return fmt.Errorf("setpriority: %w", err)
	}
	prio := ioprioClassRT << ioprioClassShift
	if _, _, errno := unix.Syscall(unix.SYS_IOPRIO_SET, ioprioWhoProcess, 0, uintptr(prio)); errno != 0 {
		return fmt.Errorf("ioprio_set: %w", errno)
	}
	return nil
}
