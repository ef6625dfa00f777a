package newfs

import "path"

// Attr is the subset of stat(2) fields newfs can report, the way
// newfs_getattr fills in a stat buffer.
type Attr struct {
	Mode   uint32
	Size   uint64
	Nlink  uint32
	Blocks uint64
}

// Stat resolves path and reports its attributes. Directory size is
// dir_cnt*sizeof(dentry_d), matching newfs_getattr; the root additionally
// reports nlink 2 and a block count derived from the whole disk, the special
// cases the reference hardcodes for "/".
func (sb *Superblock) Stat(p string) (*Attr, error) {
	dentry, found, isRoot := sb.Lookup(p)
	if !found {
		return nil, ErrNotFound
	}
	inode, err := dentry.Inode()
	if err != nil {
		return nil, err
	}

	attr := &Attr{Mode: inode.FType.UnixMode(), Nlink: 1}
	switch inode.FType {
	case TypeDirectory:
		attr.Size = uint64(inode.DirCount) * uint64(dentryRecordSize)
		if isRoot {
			attr.Nlink = 2
			attr.Blocks = sb.dev.DiskSize / uint64(sb.blockSize())
		}
	case TypeRegular:
		attr.Size = uint64(inode.Size)
	}
	return attr, nil
}

// splitParent breaks p into its parent directory path and final component.
func splitParent(p string) (dir, name string) {
	dir = path.Dir(p)
	name = path.Base(p)
	return
}

// create resolves the parent directory of p, allocates a new inode of
// ftype named by p's final component, links it in, and returns its
// dentry. Shared by Mkdir and Mknod, which in the reference are near
// carbon copies of each other apart from the NEWFS_FILE_TYPE passed in.
func (sb *Superblock) create(p string, ftype FileType) (*Dentry, error) {
	dir, name := splitParent(p)
	if len(name) == 0 || len(name) > maxFileName {
		return nil, ErrInval
	}

	parentDentry, found, _ := sb.Lookup(dir)
	if !found {
		return nil, ErrNotFound
	}
	parentInode, err := parentDentry.Inode()
	if err != nil {
		return nil, err
	}
	if parentInode.FType != TypeDirectory {
		return nil, ErrUnsupported
	}
	for _, child := range parentInode.children {
		if namesEqual(child.name, name) {
			return nil, ErrExists
		}
	}

	child := &Dentry{sb: sb, name: name, ftype: ftype, parent: parentDentry}
	if err := sb.allocInode(child); err != nil {
		return nil, err
	}
	addChild(parentInode, child)

	return child, nil
}

// Mkdir creates a new, empty directory at p.
func (sb *Superblock) Mkdir(p string) (*Dentry, error) {
	return sb.create(p, TypeDirectory)
}

// Mknod creates a new, empty dentry at p whose type follows mode, the way
// newfs_mknod branches S_ISREG(mode) vs S_ISDIR(mode) rather than always
// creating a regular file.
func (sb *Superblock) Mknod(p string, mode uint32) (*Dentry, error) {
	ftype := TypeRegular
	if mode&S_IFMT == S_IFDIR {
		ftype = TypeDirectory
	}
	return sb.create(p, ftype)
}

// DirEntry is one entry returned by Readdir.
type DirEntry struct {
	Name string
	Type FileType
}

// Readdir lists the direct children of the directory at p, one call
// returning the whole listing (the reference returns entries one at a
// time via a FUSE offset cursor; that's a transport detail folded into
// newfsfuse, not part of this listing operation).
func (sb *Superblock) Readdir(p string) ([]DirEntry, error) {
	dentry, found, _ := sb.Lookup(p)
	if !found {
		return nil, ErrNotFound
	}
	inode, err := dentry.Inode()
	if err != nil {
		return nil, err
	}
	if inode.FType != TypeDirectory {
		return nil, ErrUnsupported
	}
	entries := make([]DirEntry, 0, len(inode.children))
	for _, child := range inode.children {
		entries = append(entries, DirEntry{Name: child.name, Type: child.ftype})
	}
	return entries, nil
}

// fileCapacity is the fixed byte budget a regular file's DATA_PER_FILE
// blocks provide.
func (sb *Superblock) fileCapacity() int {
	return dataPerFile * int(sb.blockSize())
}

// Read copies up to len(buf) bytes starting at offset out of the file at
// p, splitting across the cached per-block buffers the way newfs_read's
// start_blk/end_blk logic does.
func (sb *Superblock) Read(p string, offset int64, buf []byte) (int, error) {
	dentry, found, _ := sb.Lookup(p)
	if !found {
		return 0, ErrNotFound
	}
	inode, err := dentry.Inode()
	if err != nil {
		return 0, err
	}
	if inode.FType != TypeRegular {
		return 0, ErrIsDir
	}
	if offset < 0 || offset > int64(inode.Size) {
		return 0, ErrSeek
	}

	n := len(buf)
	if int64(n) > int64(inode.Size)-offset {
		n = int(int64(inode.Size) - offset)
	}
	if n <= 0 {
		return 0, nil
	}

	blkSz := int64(sb.blockSize())
	read := 0
	for read < n {
		pos := offset + int64(read)
		blk := int(pos / blkSz)
		within := int(pos % blkSz)
		chunk := int(blkSz) - within
		if chunk > n-read {
			chunk = n - read
		}
		copy(buf[read:read+chunk], inode.blocks[blk][within:within+chunk])
		read += chunk
	}
	return read, nil
}

// Write copies data into the file at p starting at offset, growing Size
// (but never the fixed block budget) as needed, the way newfs_write splits
// a write across the first partial block, full middle blocks, and a last
// partial block.
func (sb *Superblock) Write(p string, offset int64, data []byte) (int, error) {
	dentry, found, _ := sb.Lookup(p)
	if !found {
		return 0, ErrNotFound
	}
	inode, err := dentry.Inode()
	if err != nil {
		return 0, err
	}
	if inode.FType != TypeRegular {
		return 0, ErrIsDir
	}
	if offset < 0 {
		return 0, ErrSeek
	}
	if offset+int64(len(data)) > int64(sb.fileCapacity()) {
		return 0, ErrNoSpace
	}

	blkSz := int64(sb.blockSize())
	written := 0
	for written < len(data) {
		pos := offset + int64(written)
		blk := int(pos / blkSz)
		within := int(pos % blkSz)
		chunk := int(blkSz) - within
		if chunk > len(data)-written {
			chunk = len(data) - written
		}
		copy(inode.blocks[blk][within:within+chunk], data[written:written+chunk])
		written += chunk
	}

	if end := offset + int64(written); uint32(end) > inode.Size {
		inode.Size = uint32(end)
	}
	return written, nil
}

// Truncate resizes the file at p to size, which must fit the fixed block
// budget. Shrinking zero-fills the bytes beyond the new size so a later
// grow doesn't resurrect stale data; growing zero-fills the newly exposed
// range. The reference just assigns inode->size with no zero-fill; this is
// the Truncate semantics decision recorded for this implementation.
func (sb *Superblock) Truncate(p string, size uint32) error {
	dentry, found, _ := sb.Lookup(p)
	if !found {
		return ErrNotFound
	}
	inode, err := dentry.Inode()
	if err != nil {
		return err
	}
	if inode.FType != TypeRegular {
		return ErrIsDir
	}
	if int64(size) > int64(sb.fileCapacity()) {
		return ErrNoSpace
	}

	old := inode.Size
	lo, hi := old, size
	if size < old {
		lo, hi = size, old
	}
	zeroRange(inode, int64(lo), int64(hi), int64(sb.blockSize()))

	inode.Size = size
	return nil
}

func zeroRange(inode *Inode, lo, hi, blkSz int64) {
	for pos := lo; pos < hi; {
		blk := int(pos / blkSz)
		within := int(pos % blkSz)
		chunk := int(blkSz) - within
		if int64(chunk) > hi-pos {
			chunk = int(hi - pos)
		}
		buf := inode.blocks[blk][within : within+chunk]
		for i := range buf {
			buf[i] = 0
		}
		pos += int64(chunk)
	}
}

// Utimens is a no-op: newfs tracks no mtime/atime fields on disk, matching
// newfs_utimens's stub.
func (sb *Superblock) Utimens(p string) error {
	_, found, _ := sb.Lookup(p)
	if !found {
		return ErrNotFound
	}
	return nil
}

// AccessMode mirrors the R_OK/W_OK/X_OK/F_OK request newfs_access checks.
type AccessMode int

const (
	AccessExists AccessMode = iota
	AccessRead
	AccessWrite
	AccessExec
)

// Access checks p. R_OK/W_OK/X_OK are unconditionally granted, matching
// newfs_access's always-TRUE handling for those; only F_OK (AccessExists)
// gates on whether the path actually resolves.
func (sb *Superblock) Access(p string, mode AccessMode) error {
	switch mode {
	case AccessRead, AccessWrite, AccessExec:
		return nil
	default:
		_, found, _ := sb.Lookup(p)
		if !found {
			return ErrNotFound
		}
		return nil
	}
}
