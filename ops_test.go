package newfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFreshMountRootAttrs is end-to-end scenario 1 and P5.
func TestFreshMountRootAttrs(t *testing.T) {
	sb, drv := testMount()

	attr, err := sb.Stat("/")
	require.NoError(t, err)
	assert.EqualValues(t, TypeDirectory.UnixMode(), attr.Mode)
	assert.EqualValues(t, 2, attr.Nlink)

	diskSize, err := drv.IOCTL(IOCTLDeviceSize)
	require.NoError(t, err)
	wantBlocks := diskSize / uint64(sb.blockSize())
	assert.EqualValues(t, wantBlocks, attr.Blocks)
}

// TestMkdirThenStat is P1 and end-to-end scenario 2.
func TestMkdirThenStat(t *testing.T) {
	sb, _ := testMount()

	_, err := sb.Mkdir("/a")
	require.NoError(t, err)

	attr, err := sb.Stat("/a")
	require.NoError(t, err)
	assert.EqualValues(t, TypeDirectory.UnixMode(), attr.Mode)
	assert.EqualValues(t, 0, attr.Size)
}

// TestMkdirTwiceFails is end-to-end scenario 5.
func TestMkdirTwiceFails(t *testing.T) {
	sb, _ := testMount()

	_, err := sb.Mkdir("/a")
	require.NoError(t, err)

	_, err = sb.Mkdir("/a")
	assert.ErrorIs(t, err, ErrExists)
}

// TestWriteThenReadRoundTrips is P2 and end-to-end scenario 3.
func TestWriteThenReadRoundTrips(t *testing.T) {
	sb, _ := testMount()

	_, err := sb.Mkdir("/a")
	require.NoError(t, err)
	_, err = sb.Mknod("/a/f", S_IFREG)
	require.NoError(t, err)

	n, err := sb.Write("/a/f", 0, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	buf := make([]byte, 5)
	n, err = sb.Read("/a/f", 0, buf)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))

	attr, err := sb.Stat("/a/f")
	require.NoError(t, err)
	assert.EqualValues(t, 5, attr.Size)
}

// TestWriteBeyondCurrentSizeGrows is end-to-end scenario 4.
func TestWriteBeyondCurrentSizeGrows(t *testing.T) {
	sb, _ := testMount()

	_, err := sb.Mknod("/f", S_IFREG)
	require.NoError(t, err)

	blk := int64(sb.blockSize())
	_, err = sb.Write("/f", 0, []byte("hello"))
	require.NoError(t, err)

	_, err = sb.Write("/f", blk, []byte("X"))
	require.NoError(t, err)

	attr, err := sb.Stat("/f")
	require.NoError(t, err)
	assert.EqualValues(t, blk+1, attr.Size)

	buf := make([]byte, 1)
	n, err := sb.Read("/f", blk, buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "X", string(buf))
}

// TestWriteAcrossBlockBoundaryUpdatesBothBlocks covers the block-boundary
// boundary behavior from spec.md §8.
func TestWriteAcrossBlockBoundaryUpdatesBothBlocks(t *testing.T) {
	sb, _ := testMount()
	_, err := sb.Mknod("/f", S_IFREG)
	require.NoError(t, err)

	blk := int64(sb.blockSize())
	n, err := sb.Write("/f", blk-1, []byte("XY"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	inode, err := func() (*Inode, error) {
		d, _, _ := sb.Lookup("/f")
		return d.Inode()
	}()
	require.NoError(t, err)
	assert.Equal(t, byte('X'), inode.blocks[0][blk-1])
	assert.Equal(t, byte('Y'), inode.blocks[1][0])
}

// TestWriteAtCapacityBoundaryRefused covers the fixed-budget boundary
// behavior from spec.md §8.
func TestWriteAtCapacityBoundaryRefused(t *testing.T) {
	sb, _ := testMount()
	_, err := sb.Mknod("/f", S_IFREG)
	require.NoError(t, err)

	_, err = sb.Write("/f", int64(sb.fileCapacity()), []byte("z"))
	assert.ErrorIs(t, err, ErrNoSpace)
}

// TestUnmountRemountPreservesTree is P3 and end-to-end scenario 6.
func TestUnmountRemountPreservesTree(t *testing.T) {
	sb, drv := testMount()

	_, err := sb.Mkdir("/a")
	require.NoError(t, err)
	_, err = sb.Mknod("/a/f", S_IFREG)
	require.NoError(t, err)
	_, err = sb.Write("/a/f", 0, []byte("hello"))
	require.NoError(t, err)
	_, err = sb.Mkdir("/a/b")
	require.NoError(t, err)
	_, err = sb.Mkdir("/a/c")
	require.NoError(t, err)

	require.NoError(t, sb.Unmount())

	sb2, err := Mount(drv, "mem")
	require.NoError(t, err)

	entries, err := sb2.Readdir("/a")
	require.NoError(t, err)
	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name] = true
	}
	assert.True(t, names["f"])
	assert.True(t, names["b"])
	assert.True(t, names["c"])
	assert.Len(t, entries, 3)

	buf := make([]byte, 5)
	n, err := sb2.Read("/a/f", 0, buf)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))
}

func TestTruncateShrinkZeroesTail(t *testing.T) {
	sb, _ := testMount()
	_, err := sb.Mknod("/f", S_IFREG)
	require.NoError(t, err)
	_, err = sb.Write("/f", 0, []byte("hello world"))
	require.NoError(t, err)

	require.NoError(t, sb.Truncate("/f", 5))
	require.NoError(t, sb.Truncate("/f", 11))

	buf := make([]byte, 11)
	n, err := sb.Read("/f", 0, buf)
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.Equal(t, "hello\x00\x00\x00\x00\x00\x00", string(buf))
}

func TestAccessUnknownPathIsNotFound(t *testing.T) {
	sb, _ := testMount()
	err := sb.Access("/nope", AccessExists)
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestAccessReadOnMissingPathAlwaysSucceeds mirrors newfs_access's
// unconditional TRUE for R_OK/W_OK/X_OK, independent of is_find.
func TestAccessReadOnMissingPathAlwaysSucceeds(t *testing.T) {
	sb, _ := testMount()
	assert.NoError(t, sb.Access("/nope", AccessRead))
}

// TestMknodWithDirModeCreatesDirectory covers newfs_mknod's S_ISDIR branch.
func TestMknodWithDirModeCreatesDirectory(t *testing.T) {
	sb, _ := testMount()
	dentry, err := sb.Mknod("/d", S_IFDIR)
	require.NoError(t, err)
	assert.Equal(t, TypeDirectory, dentry.Type())

	attr, err := sb.Stat("/d")
	require.NoError(t, err)
	assert.EqualValues(t, TypeDirectory.UnixMode(), attr.Mode)
}

func TestReaddirOnFileIsUnsupported(t *testing.T) {
	sb, _ := testMount()
	_, err := sb.Mknod("/f", S_IFREG)
	require.NoError(t, err)
	_, err = sb.Readdir("/f")
	assert.ErrorIs(t, err, ErrUnsupported)
}
