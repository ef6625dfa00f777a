package newfs

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// IOCTLRequest identifies one of the two pieces of geometry the device
// driver collaborator reports, mirroring ddriver's IOC_REQ_DEVICE_SIZE /
// IOC_REQ_DEVICE_IO_SZ from the reference driver.
type IOCTLRequest int

const (
	IOCTLDeviceSize IOCTLRequest = iota
	IOCTLIOUnitSize
)

// DeviceDriver is the out-of-scope block device collaborator: open, close,
// seek, read/write one I/O unit at a time, and report geometry. Real
// backing stores (or test doubles) implement this directly.
type DeviceDriver interface {
	Open(path string) error
	Close() error
	Seek(offset int64, whence int) (int64, error)
	ReadIOUnit(buf []byte) (int, error)
	WriteIOUnit(buf []byte) (int, error)
	IOCTL(req IOCTLRequest) (uint64, error)
}

// FileDriver is the concrete DeviceDriver used by the CLI: an ordinary
// regular file standing in for the block device image.
type FileDriver struct {
	f      *os.File
	ioSize uint32
}

// NewFileDriver creates a FileDriver reporting the given I/O unit size
// (the ddriver default is 512 bytes).
func NewFileDriver(ioSize uint32) *FileDriver {
	return &FileDriver{ioSize: ioSize}
}

func (d *FileDriver) Open(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("newfs: open device: %w", err)
	}
	d.f = f
	return nil
}

func (d *FileDriver) Close() error {
	if d.f == nil {
		return nil
	}
	return d.f.Close()
}

func (d *FileDriver) Seek(offset int64, whence int) (int64, error) {
	return d.f.Seek(offset, whence)
}

func (d *FileDriver) ReadIOUnit(buf []byte) (int, error) {
	return d.f.Read(buf)
}

func (d *FileDriver) WriteIOUnit(buf []byte) (int, error) {
	return d.f.Write(buf)
}

func (d *FileDriver) IOCTL(req IOCTLRequest) (uint64, error) {
	switch req {
	case IOCTLIOUnitSize:
		return uint64(d.ioSize), nil
	case IOCTLDeviceSize:
		var st unix.Stat_t
		if err := unix.Fstat(int(d.f.Fd()), &st); err != nil {
			return 0, fmt.Errorf("newfs: stat device: %w", err)
		}
		return uint64(st.Size), nil
	default:
		return 0, ErrInval
	}
}

// Device is the block-aligned I/O shim (C1). The underlying DeviceDriver
// only accepts transfers aligned to IOSize; Device rounds arbitrary byte
// ranges out to BlockSize boundaries and does a read-modify-write for
// partial writes, the way newfs_driver_read/newfs_driver_write do in the
// reference.
type Device struct {
	drv       DeviceDriver
	IOSize    uint32
	BlockSize uint32
	DiskSize  uint64
}

// OpenDevice opens path through drv and queries its geometry.
func OpenDevice(drv DeviceDriver, path string) (*Device, error) {
	if err := drv.Open(path); err != nil {
		return nil, err
	}
	ioSize, err := drv.IOCTL(IOCTLIOUnitSize)
	if err != nil {
		return nil, wrapIO(err)
	}
	diskSize, err := drv.IOCTL(IOCTLDeviceSize)
	if err != nil {
		return nil, wrapIO(err)
	}
	return &Device{
		drv:       drv,
		IOSize:    uint32(ioSize),
		BlockSize: uint32(ioSize) * 2,
		DiskSize:  diskSize,
	}, nil
}

func (d *Device) Close() error {
	return d.drv.Close()
}

func roundDown(value, round int64) int64 {
	if value%round == 0 {
		return value
	}
	return (value / round) * round
}

func roundUp(value, round int64) int64 {
	if value%round == 0 {
		return value
	}
	return (value/round + 1) * round
}

func wrapIO(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrIO, err)
}

// readAligned reads the BlockSize-aligned window
// [alignedOffset, alignedOffset+alignedSize) using repeated IOSize transfers.
func (d *Device) readAligned(alignedOffset int64, alignedSize int64) ([]byte, error) {
	if _, err := d.drv.Seek(alignedOffset, 0); err != nil {
		return nil, wrapIO(err)
	}
	buf := make([]byte, alignedSize)
	cur := buf
	for len(cur) > 0 {
		n, err := d.drv.ReadIOUnit(cur[:d.IOSize])
		if err != nil {
			return nil, wrapIO(err)
		}
		if uint32(n) != d.IOSize {
			return nil, fmt.Errorf("%w: short read (%d of %d)", ErrIO, n, d.IOSize)
		}
		cur = cur[d.IOSize:]
	}
	return buf, nil
}

func (d *Device) writeAligned(alignedOffset int64, buf []byte) error {
	if _, err := d.drv.Seek(alignedOffset, 0); err != nil {
		return wrapIO(err)
	}
	cur := buf
	for len(cur) > 0 {
		n, err := d.drv.WriteIOUnit(cur[:d.IOSize])
		if err != nil {
			return wrapIO(err)
		}
		if uint32(n) != d.IOSize {
			return fmt.Errorf("%w: short write (%d of %d)", ErrIO, n, d.IOSize)
		}
		cur = cur[d.IOSize:]
	}
	return nil
}

// ReadAt copies size bytes at offset out of the device, handling alignment
// internally.
func (d *Device) ReadAt(offset int64, size int) ([]byte, error) {
	blk := int64(d.BlockSize)
	alignedOffset := roundDown(offset, blk)
	bias := offset - alignedOffset
	alignedSize := roundUp(bias+int64(size), blk)

	buf, err := d.readAligned(alignedOffset, alignedSize)
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	copy(out, buf[bias:bias+int64(size)])
	return out, nil
}

// WriteAt writes data at offset into the device, read-modify-writing the
// aligned window it falls in.
func (d *Device) WriteAt(offset int64, data []byte) error {
	blk := int64(d.BlockSize)
	alignedOffset := roundDown(offset, blk)
	bias := offset - alignedOffset
	alignedSize := roundUp(bias+int64(len(data)), blk)

	buf, err := d.readAligned(alignedOffset, alignedSize)
	if err != nil {
		return err
	}
	copy(buf[bias:bias+int64(len(data))], data)
	return d.writeAligned(alignedOffset, buf)
}
