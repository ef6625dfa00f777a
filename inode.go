package newfs

import "log"

// Inode is the in-memory index node: geometry plus either a child list
// (directories) or cached data blocks (regular files), mirroring struct
// newfs_inode.
type Inode struct {
	sb *Superblock

	Ino      uint32
	Size     uint32
	DirCount uint32
	FType    FileType

	dentry   *Dentry   // the dentry that names this inode
	children []*Dentry // direct children, in head-insertion order, for directories
	blockNum [dataPerFile]uint32
	blocks   [dataPerFile][]byte // cached data blocks, for regular files
}

// Dentry is one entry in the directory tree: a name, a type, the inode
// number it points at, and (once loaded) the inode itself. Mirrors struct
// newfs_dentry; parent/brother singly-linked-list shape is replaced with a
// parent pointer plus a Go slice on the owning Inode.
type Dentry struct {
	sb *Superblock

	name   string
	ftype  FileType
	ino    uint32
	parent *Dentry
	inode  *Inode
}

func (d *Dentry) Name() string   { return d.name }
func (d *Dentry) Type() FileType { return d.ftype }

// Inode lazily loads and returns the inode this dentry points to, the way
// newfs_lookup calls newfs_read_inode on first dereference.
func (d *Dentry) Inode() (*Inode, error) {
	if d.inode != nil {
		return d.inode, nil
	}
	inode, err := d.sb.readInode(d, d.ino)
	if err != nil {
		return nil, err
	}
	d.inode = inode
	return inode, nil
}

// IsDir reports whether the dentry names a directory.
func (d *Dentry) IsDir() bool { return d.ftype == TypeDirectory }

// Children returns the loaded child dentries of a directory inode.
func (d *Dentry) Children() ([]*Dentry, error) {
	inode, err := d.Inode()
	if err != nil {
		return nil, err
	}
	return inode.children, nil
}

// readInode loads inode ino from disk, wiring dentry as its owning dentry
// (newfs_read_inode).
func (sb *Superblock) readInode(dentry *Dentry, ino uint32) (*Inode, error) {
	raw, err := sb.dev.ReadAt(sb.inoOffset(ino), inodeRecordSize)
	if err != nil {
		return nil, err
	}
	rec, err := decodeInode(raw)
	if err != nil {
		return nil, err
	}

	inode := &Inode{
		sb:     sb,
		Ino:    rec.Ino,
		Size:   rec.Size,
		FType:  FileType(rec.FType),
		dentry: dentry,
	}
	copy(inode.blockNum[:], rec.BlockNum[:])

	switch inode.FType {
	case TypeDirectory:
		inode.DirCount = rec.DirCount
		for i := uint32(0); i < inode.DirCount; i++ {
			blk := i / entriesPerBlock(sb)
			posInBlk := i % entriesPerBlock(sb)
			offset := sb.dataOfs(inode.blockNum[blk]) + int64(posInBlk)*int64(dentryRecordSize)
			draw, err := sb.dev.ReadAt(offset, dentryRecordSize)
			if err != nil {
				return nil, err
			}
			drec, err := decodeDentry(draw)
			if err != nil {
				return nil, err
			}
			child := &Dentry{
				sb:     sb,
				name:   drec.name(),
				ftype:  FileType(drec.FType),
				ino:    drec.Ino,
				parent: dentry,
			}
			inode.children = append(inode.children, child)
		}
	case TypeRegular:
		for i := 0; i < dataPerFile; i++ {
			buf, err := sb.dev.ReadAt(sb.dataOfs(inode.blockNum[i]), int(sb.blockSize()))
			if err != nil {
				return nil, err
			}
			inode.blocks[i] = buf
		}
	}

	return inode, nil
}

// entriesPerBlock is how many dentry records fit in one data block.
func entriesPerBlock(sb *Superblock) uint32 {
	return sb.blockSize() / dentryRecordSize
}

// syncInodeRecord writes only the inode's own fixed-width record, the way
// newfs_sync_inode_d does.
func (sb *Superblock) syncInodeRecord(inode *Inode) error {
	rec := &inodeRecord{
		Ino:      inode.Ino,
		Size:     inode.Size,
		DirCount: inode.DirCount,
		FType:    uint32(inode.FType),
	}
	copy(rec.BlockNum[:], inode.blockNum[:])
	return sb.dev.WriteAt(sb.inoOffset(inode.Ino), encodeInode(rec))
}

// syncInode recursively writes inode and, for directories, its children's
// dentry records into the inode's own owned data blocks, and recurses into
// any child whose inode is loaded. Dentry records are always addressed
// through the directory's data blocks, never the inode table, filling its
// DATA_PER_FILE owned blocks in order; a directory with more children than
// those blocks hold makes write-back return ErrNoSpace.
func (sb *Superblock) syncInode(inode *Inode) error {
	if err := sb.syncInodeRecord(inode); err != nil {
		return err
	}

	switch inode.FType {
	case TypeDirectory:
		perBlock := entriesPerBlock(sb)
		for i, child := range inode.children {
			blk := uint32(i) / perBlock
			posInBlk := uint32(i) % perBlock
			if blk >= dataPerFile {
				return ErrNoSpace
			}
			offset := sb.dataOfs(inode.blockNum[blk]) + int64(posInBlk)*int64(dentryRecordSize)
			drec := &dentryRecord{FType: uint32(child.ftype), Ino: child.ino}
			setDentryName(drec, child.name)
			if err := sb.dev.WriteAt(offset, encodeDentry(drec)); err != nil {
				log.Printf("newfs: write-back io error for %q: %v", child.name, err)
				return err
			}
			if child.inode != nil {
				if err := sb.syncInode(child.inode); err != nil {
					return err
				}
			}
		}
	case TypeRegular:
		for i := 0; i < dataPerFile; i++ {
			if inode.blocks[i] == nil {
				continue
			}
			if err := sb.dev.WriteAt(sb.dataOfs(inode.blockNum[i]), inode.blocks[i]); err != nil {
				log.Printf("newfs: write-back io error for ino %d block %d: %v", inode.Ino, i, err)
				return err
			}
		}
	}
	return nil
}

// addChild links child under parent's inode using head insertion, matching
// newfs_alloc_dentry's list-insertion order (most-recently-created child
// first; acceptable since directory iteration order is unspecified).
func addChild(parent *Inode, child *Dentry) {
	parent.children = append([]*Dentry{child}, parent.children...)
	parent.DirCount++
}
