package disk

import "errors"

var (
	// ErrOpen is returned when the device cannot be opened for raw access.
	ErrOpen = errors.New("open device")
	// ErrGeometry is returned when the target is not a disk or refuses the geometry query.
	ErrGeometry = errors.New("query geometry")
	// ErrPriority is returned when the scheduler refuses the priority boost.
	ErrPriority = errors.New("boost priority")
	// ErrFilePayload is returned when a raw-write payload cannot be loaded.
	ErrFilePayload = errors.New("load payload")
)
