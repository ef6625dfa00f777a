package newfs

// allocInode claims a free bit in the inode bitmap for dentry, plus
// DATA_PER_FILE data blocks for every inode regardless of type — a
// directory's blocks hold its dentry records, a regular file's blocks hold
// its bytes. Mirrors newfs_alloc_inode, except on a failure to obtain all
// data blocks the tentative bits this call set are rolled back rather than
// left set with no inode to own them.
func (sb *Superblock) allocInode(dentry *Dentry) error {
	ino := sb.inodeBitmap.findFirstZero()
	if ino < 0 {
		return ErrNoSpace
	}
	sb.inodeBitmap.Set(ino, true)

	inode := &Inode{
		sb:     sb,
		Ino:    uint32(ino),
		FType:  dentry.ftype,
		dentry: dentry,
	}

	claimed, err := sb.allocDataBlocks(dataPerFile)
	if err != nil {
		sb.inodeBitmap.Set(ino, false)
		return err
	}
	copy(inode.blockNum[:], claimed)

	if inode.FType == TypeRegular {
		for i := range inode.blocks {
			inode.blocks[i] = make([]byte, sb.blockSize())
		}
	}

	dentry.inode = inode
	dentry.ino = inode.Ino
	return nil
}

// allocDataBlocks claims n free bits in the data bitmap, rolling back
// every bit it set this call if it runs out partway through.
func (sb *Superblock) allocDataBlocks(n int) ([]uint32, error) {
	claimed := make([]uint32, 0, n)
	for len(claimed) < n {
		blk := sb.dataBitmap.findFirstZero()
		if blk < 0 {
			for _, c := range claimed {
				sb.dataBitmap.Set(int(c), false)
			}
			return nil, ErrNoSpace
		}
		sb.dataBitmap.Set(blk, true)
		claimed = append(claimed, uint32(blk))
	}
	return claimed, nil
}
