//go:build windows

package disk

import (
	"fmt"
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	ioctlDiskGetDriveGeometry   = 0x70000
	ioctlStorageGetDeviceNumber = 0x2D1080
	threadPriorityTimeCritical  = 15
)

type storageDeviceNumber struct {
	DeviceType      uint32
	DeviceNumber    uint32
	PartitionNumber uint32
}

// resolvePath maps a volume path (E: or \\.\E:) to the physical drive that
// holds it. Anything else, or a volume that cannot be mapped, is returned as is.
func resolvePath(path string) string {
	letter := strings.TrimPrefix(path, `\\.\`)
	if len(letter) != 2 || letter[1] != ':' {
		return path
	}
	c := letter[0] &^ 0x20
	if c < 'A' || c > 'Z' {
		return path
	}
	vol, err := windows.UTF16PtrFromString(`\\.\` + string(c) + `:`)
	if err != nil {
		return path
	}
	h, err := windows.CreateFile(vol, 0, windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE, nil, windows.OPEN_EXISTING, 0, 0)
	if err != nil {
		return path
	}
	defer windows.CloseHandle(h)

	var sdn storageDeviceNumber
	var bytesReturned uint32
	err = windows.DeviceIoControl(h, ioctlStorageGetDeviceNumber,
		nil, 0,
		(*byte)(unsafe.Pointer(&sdn)), uint32(unsafe.Sizeof(sdn)),
		&bytesReturned, nil)
	if err != nil {
		return path
	}
	return candidatePath(int(sdn.DeviceNumber))
}

// diskGeometry mirrors DISK_GEOMETRY.
type diskGeometry struct {
	Cylinders         int64
	MediaType         uint32
	TracksPerCylinder uint32
	SectorsPerTrack   uint32
	BytesPerSector    uint32
}

// openRaw opens \\.\PhysicalDriveN with write-through, unbuffered I/O and
// shared read/write access.
func openRaw(path string) (*os.File, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, err
	}
	handle, err := windows.CreateFile(
		p,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_WRITE_THROUGH|windows.FILE_FLAG_NO_BUFFERING,
		0,
	)
	if err != nil {
		return nil, err
	}

	file := os.NewFile(uintptr(handle), path)
	if file == nil {
		windows.CloseHandle(handle)
		return nil, fmt.Errorf("cannot create file from handle")
	}
	return file, nil
}

func queryGeometry(f *os.File) (Geometry, error) {
	var dg diskGeometry
	var bytesReturned uint32
	err := windows.DeviceIoControl(
		windows.Handle(f.Fd()),
		ioctlDiskGetDriveGeometry,
		nil, 0,
		(*byte)(unsafe.Pointer(&dg)), uint32(unsafe.Sizeof(dg)),
		&bytesReturned,
		nil,
	)
	if err != nil {
		return Geometry{}, fmt.Errorf("IOCTL_DISK_GET_DRIVE_GEOMETRY: %w", err)
	}
	return Geometry{
		Cylinders:         dg.Cylinders,
		TracksPerCylinder: dg.TracksPerCylinder,
		SectorsPerTrack:   dg.SectorsPerTrack,
		BytesPerSector:    dg.BytesPerSector,
	}, nil
}

func candidatePath(n int) string {
	return fmt.Sprintf(`\\.\PhysicalDrive%d`, n)
}

// boostPriority moves the process to the realtime class and the calling thread
// to time-critical. Both need the increase-base-priority privilege.
func boostPriority() error {
	if err := windows.SetPriorityClass(windows.CurrentProcess(), windows.REALTIME_PRIORITY_CLASS); err != nil {
		return fmt.Errorf("SetPriorityClass: %w", err)
	}

	k32 := windows.NewLazySystemDLL("kernel32.dll")
	setThreadPriority := k32.NewProc("SetThreadPriority")
	r1, _, lastErr := setThreadPriority.Call(uintptr(windows.CurrentThread()), threadPriorityTimeCritical)
	if r1 == 0 {
		return fmt.Errorf("SetThreadPriority: %w", lastErr)
	}
	return nil
}
