package newfs

// memDriver is an in-memory DeviceDriver test double, standing in for the
// ddriver block device the same way KarpelesLab-squashfs/mock_test.go's
// mockReader stands in for a squashfs image's io.ReaderAt.
type memDriver struct {
	ioSize uint32
	data   []byte
	pos    int64
}

func newMemDriver(ioSize uint32, totalBytes int) *memDriver {
	return &memDriver{ioSize: ioSize, data: make([]byte, totalBytes)}
}

func (m *memDriver) Open(path string) error { return nil }
func (m *memDriver) Close() error           { return nil }

func (m *memDriver) Seek(offset int64, whence int) (int64, error) {
	m.pos = offset
	return m.pos, nil
}

func (m *memDriver) ReadIOUnit(buf []byte) (int, error) {
	n := copy(buf, m.data[m.pos:m.pos+int64(len(buf))])
	m.pos += int64(n)
	return n, nil
}

func (m *memDriver) WriteIOUnit(buf []byte) (int, error) {
	n := copy(m.data[m.pos:m.pos+int64(len(buf))], buf)
	m.pos += int64(n)
	return n, nil
}

func (m *memDriver) IOCTL(req IOCTLRequest) (uint64, error) {
	switch req {
	case IOCTLIOUnitSize:
		return uint64(m.ioSize), nil
	case IOCTLDeviceSize:
		return uint64(len(m.data)), nil
	default:
		return 0, ErrInval
	}
}

// testMount formats and mounts a fresh in-memory volume sized to cover the
// superblock, both bitmaps, all 512 inodes, and all 2048 data blocks.
func testMount() (*Superblock, *memDriver) {
	const ioSize = 512
	const blockSize = ioSize * 2
	totalBytes := (superBlocks + mapInodeBlks + mapDataBlks + maxInodes + maxDataBlocks) * blockSize
	drv := newMemDriver(ioSize, totalBytes)
	sb, err := Mount(drv, "mem")
	if err != nil {
		panic(err)
	}
	return sb, drv
}
