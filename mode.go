package newfs

import "io/fs"

// Only two file types are representable on disk (NEWFS_REG_FILE, NEWFS_DIR),
// so this is trimmed down from a general unix mode mapping to just those,
// based on: https://golang.org/src/os/stat_linux.go

const (
	S_IFMT  = 0xf000
	S_IFREG = 0x8000
	S_IFDIR = 0x4000

	defaultPerm = 0777
)

// ModeOf returns the fs.FileMode a node of this type reports to the bridge,
// always NEWFS_DEFAULT_PERM (0777) permission bits.
func (t FileType) ModeOf() fs.FileMode {
	if t == TypeDirectory {
		return fs.ModeDir | defaultPerm
	}
	return defaultPerm
}

// UnixMode returns the raw unix mode_t value (S_IFREG|S_IFDIR plus perms).
func (t FileType) UnixMode() uint32 {
	if t == TypeDirectory {
		return S_IFDIR | defaultPerm
	}
	return S_IFREG | defaultPerm
}
