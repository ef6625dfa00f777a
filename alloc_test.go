package newfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAllocInodeRollsBackOnDataExhaustion covers the allocator-rollback
// decision: if the data bitmap runs dry partway through satisfying
// DATA_PER_FILE blocks, neither the inode bit nor the partially claimed
// data bits should remain set.
func TestAllocInodeRollsBackOnDataExhaustion(t *testing.T) {
	sb, _ := testMount()

	// Exhaust all but 2 data blocks, leaving fewer than DATA_PER_FILE free.
	// The root directory already owns DATA_PER_FILE blocks after mount.
	freeLeft := 2
	claimed := 0
	for i := 0; i < maxDataBlocks; i++ {
		if sb.dataBitmap.Get(i) {
			continue
		}
		claimed++
		if claimed > maxDataBlocks-dataPerFile-freeLeft {
			break
		}
		sb.dataBitmap.Set(i, true)
	}

	inoFreeBefore := sb.inodeBitmap.findFirstZero()
	require.GreaterOrEqual(t, inoFreeBefore, 0)

	dentry := &Dentry{sb: sb, name: "f", ftype: TypeRegular}
	err := sb.allocInode(dentry)
	require.ErrorIs(t, err, ErrNoSpace)

	assert.False(t, sb.inodeBitmap.Get(inoFreeBefore), "inode bit must be rolled back on failure")

	free := 0
	for i := 0; i < maxDataBlocks; i++ {
		if !sb.dataBitmap.Get(i) {
			free++
		}
	}
	assert.Equal(t, freeLeft, free, "no tentative data bits should remain set")
}

// TestAllocDentryTracksDirCount is P4: after every alloc_inode/alloc_dentry,
// dir_cnt equals the number of children traversable from the parent.
func TestAllocDentryTracksDirCount(t *testing.T) {
	sb, _ := testMount()
	root, err := sb.root.Inode()
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := sb.Mkdir("/dir" + string(rune('a'+i)))
		require.NoError(t, err)
		assert.EqualValues(t, i+1, root.DirCount)
		assert.Len(t, root.children, i+1)
	}
}
