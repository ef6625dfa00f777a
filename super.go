package newfs

import "log"

const (
	maxInodes     = 512
	maxDataBlocks = 2048
	superBlocks   = 1
	mapInodeBlks  = 1
	mapDataBlks   = 1
	rootIno       = 0
)

// FileType distinguishes the two representable file types, mirroring
// NEWFS_FILE_TYPE from types.h.
type FileType uint32

const (
	TypeRegular FileType = iota
	TypeDirectory
)

// Superblock is the in-memory mount state: geometry, both allocation
// bitmaps, and the root of the dentry tree. It plays the role
// KarpelesLab-squashfs's Superblock plays for its own tree, generalized to
// a writable, uncompressed, fixed-layout format.
type Superblock struct {
	dev *Device

	sizeUsage uint32

	mapInodeBlocks uint32
	mapInodeOffset uint32
	mapDataBlocks  uint32
	mapDataOffset  uint32
	inodeOffset    uint32
	dataOffset     uint32

	inodeBitmap *bitmapView
	dataBitmap  *bitmapView

	root *Dentry
}

func (sb *Superblock) blockSize() uint32 { return sb.dev.BlockSize }

// inoOffset returns the byte offset of inode ino's fixed one-block slot,
// NEWFS_INO_OFS(ino).
func (sb *Superblock) inoOffset(ino uint32) int64 {
	return int64(sb.inodeOffset) + int64(ino)*int64(sb.blockSize())
}

// dataOfs returns the byte offset of data block blockNum, NEWFS_DATA_OFS.
func (sb *Superblock) dataOfs(blockNum uint32) int64 {
	return int64(sb.dataOffset) + int64(blockNum)*int64(sb.blockSize())
}

// Mount opens the device through drv, formats it on first use (when the
// superblock magic doesn't match), loads both bitmaps, and builds the root
// dentry, following newfs_mount's format-on-first-mount sequence.
func Mount(drv DeviceDriver, path string) (*Superblock, error) {
	dev, err := OpenDevice(drv, path)
	if err != nil {
		return nil, err
	}

	sb := &Superblock{dev: dev}

	raw, err := dev.ReadAt(0, superblockRecordSize)
	if err != nil {
		return nil, err
	}
	rec, err := decodeSuperblock(raw)
	if err != nil {
		return nil, err
	}

	needsFormat := rec.Magic != magicNum
	if needsFormat {
		rec = sb.layout(dev.BlockSize)
		if err := sb.writeSuperblockRecord(rec); err != nil {
			return nil, err
		}
	}

	sb.sizeUsage = rec.SizeUsage
	sb.mapInodeBlocks = rec.MapInodeBlocks
	sb.mapInodeOffset = rec.MapInodeOffset
	sb.mapDataBlocks = rec.MapDataBlocks
	sb.mapDataOffset = rec.MapDataOffset
	sb.inodeOffset = rec.InodeOffset
	sb.dataOffset = rec.DataOffset

	inodeBitmapBytes, err := dev.ReadAt(int64(sb.mapInodeOffset), int(sb.mapInodeBlocks*dev.BlockSize))
	if err != nil {
		return nil, err
	}
	dataBitmapBytes, err := dev.ReadAt(int64(sb.mapDataOffset), int(sb.mapDataBlocks*dev.BlockSize))
	if err != nil {
		return nil, err
	}
	sb.inodeBitmap = loadBitmapView(inodeBitmapBytes, maxInodes)
	sb.dataBitmap = loadBitmapView(dataBitmapBytes, maxDataBlocks)

	root := &Dentry{name: "/", ftype: TypeDirectory, ino: rootIno, sb: sb}

	if needsFormat {
		log.Printf("newfs: formatting new volume")
		if err := sb.allocInode(root); err != nil {
			return nil, err
		}
		if err := sb.syncInode(root.inode); err != nil {
			return nil, err
		}
	}

	rootInode, err := sb.readInode(root, rootIno)
	if err != nil {
		return nil, err
	}
	root.inode = rootInode
	sb.root = root

	return sb, nil
}

func (sb *Superblock) layout(blockSize uint32) *superblockRecord {
	mapInodeOffset := uint32(superBlocks) * blockSize
	mapDataOffset := mapInodeOffset + mapInodeBlks*blockSize
	inodeOffset := mapDataOffset + mapDataBlks*blockSize
	dataOffset := inodeOffset + maxInodes*blockSize

	return &superblockRecord{
		Magic:          magicNum,
		SizeUsage:      0,
		MapInodeBlocks: mapInodeBlks,
		MapInodeOffset: mapInodeOffset,
		MapDataBlocks:  mapDataBlks,
		MapDataOffset:  mapDataOffset,
		InodeOffset:    inodeOffset,
		DataOffset:     dataOffset,
	}
}

func (sb *Superblock) writeSuperblockRecord(rec *superblockRecord) error {
	return sb.dev.WriteAt(0, encodeSuperblock(rec))
}

// Unmount writes the bitmaps and the whole dentry tree back to the device
// and closes it, mirroring newfs_umount's write-bitmaps-then-sync-tree
// sequence.
func (sb *Superblock) Unmount() error {
	rec := &superblockRecord{
		Magic:          magicNum,
		SizeUsage:      sb.sizeUsage,
		MapInodeBlocks: sb.mapInodeBlocks,
		MapInodeOffset: sb.mapInodeOffset,
		MapDataBlocks:  sb.mapDataBlocks,
		MapDataOffset:  sb.mapDataOffset,
		InodeOffset:    sb.inodeOffset,
		DataOffset:     sb.dataOffset,
	}
	if err := sb.writeSuperblockRecord(rec); err != nil {
		return err
	}
	if err := sb.dev.WriteAt(int64(sb.mapInodeOffset), sb.inodeBitmap.Bytes()); err != nil {
		return err
	}
	if err := sb.dev.WriteAt(int64(sb.mapDataOffset), sb.dataBitmap.Bytes()); err != nil {
		return err
	}
	if sb.root != nil && sb.root.inode != nil {
		if err := sb.syncInode(sb.root.inode); err != nil {
			return err
		}
	}
	return sb.dev.Close()
}
