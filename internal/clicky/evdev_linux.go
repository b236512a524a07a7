//go:build linux

// ABOUTME: evdev device probing through ioctls on /dev/input/event*
// ABOUTME: Builds the stable identity key and opens devices non-blocking
package clicky

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	evKey = 0x01

	keyRelease = 0
	keyPress   = 1

	iocRead = 2
)

// inputEvent mirrors struct input_event
type inputEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

const inputEventSize = int(unsafe.Sizeof(inputEvent{}))

// inputID mirrors struct input_id
type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

func ioc(dir, typ, nr, size uintptr) uintptr {
	return dir<<30 | size<<16 | typ<<8 | nr
}

func eviocgbit(ev, size uintptr) uintptr { return ioc(iocRead, 'E', 0x20+ev, size) }
func eviocgname(size uintptr) uintptr    { return ioc(iocRead, 'E', 0x06, size) }
func eviocgphys(size uintptr) uintptr    { return ioc(iocRead, 'E', 0x07, size) }

var eviocgid = ioc(iocRead, 'E', 0x02, unsafe.Sizeof(inputID{}))

func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func ioctlString(fd int, req func(uintptr) uintptr) (string, error) {
	buf := make([]byte, 256)
	if err := ioctl(fd, req(uintptr(len(buf))), unsafe.Pointer(&buf[0])); err != nil {
		return "", err
	}
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf), nil
}

func supportsKeys(fd int) (bool, error) {
	var bits [4]byte
	if err := ioctl(fd, eviocgbit(0, uintptr(len(bits))), unsafe.Pointer(&bits[0])); err != nil {
		return false, err
	}
	return bits[evKey/8]&(1<<(evKey%8)) != 0, nil
}

// EvdevSource enumerates evdev nodes under a directory
type EvdevSource struct {
	Pattern string
}

// NewEvdevSource returns a source for /dev/input/event*
func NewEvdevSource() *EvdevSource {
	return &EvdevSource{Pattern: "/dev/input/event*"}
}

// Enumerate probes every matching node and keeps those reporting key events.
// Nodes that cannot be opened (permissions, races with unplug) are skipped.
func (s *EvdevSource) Enumerate() ([]DeviceInfo, error) {
	paths, err := filepath.Glob(s.Pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.Pattern, err)
	}
	sort.Strings(paths)

	infos := make([]DeviceInfo, 0, len(paths))
	for _, path := range paths {
		info, ok := probe(path)
		if ok {
			infos = append(infos, info)
		}
	}
	return infos, nil
}

func probe(path string) (DeviceInfo, bool) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return DeviceInfo{}, false
	}
	defer unix.Close(fd)

	keys, err := supportsKeys(fd)
	if err != nil || !keys {
		return DeviceInfo{}, false
	}

	name, _ := ioctlString(fd, eviocgname)
	phys, _ := ioctlString(fd, eviocgphys)

	var id inputID
	if err := ioctl(fd, eviocgid, unsafe.Pointer(&id)); err != nil {
		return DeviceInfo{}, false
	}

	return DeviceInfo{
		Key:  identityKey(phys, id, name),
		Path: path,
		Name: name,
	}, true
}

func identityKey(phys string, id inputID, name string) string {
	return fmt.Sprintf("%s|%04x:%04x:%04x:%04x|%s",
		phys, id.Bustype, id.Vendor, id.Product, id.Version, name)
}

// Open opens the device for non-blocking reads
func (s *EvdevSource) Open(info DeviceInfo) (Handle, error) {
	fd, err := unix.Open(info.Path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("failed to open %s: %w", info.Path, err)
	}
	return Handle(fd), nil
}
