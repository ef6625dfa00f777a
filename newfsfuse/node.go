// Package newfsfuse bridges a mounted newfs.Superblock to the kernel via
// github.com/hanwen/go-fuse/v2/fs, the way KarpelesLab-squashfs's
// inode_fuse.go bridges its own read-only tree, generalized here to the
// modern InodeEmbedder API and to read-write operations.
package newfsfuse

import (
	"context"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/chenyangzhu1/newfs"
)

// Node wraps a resolved path into the mounted filesystem. The embedded
// fs.Inode gives it InodeEmbedder identity; newfs.Superblock and path are
// enough to re-resolve on every call, since the core package owns the
// actual cached tree.
type Node struct {
	fs.Inode

	sb   *newfs.Superblock
	path string
}

var (
	_ fs.NodeOnAdder   = (*Node)(nil)
	_ fs.NodeGetattrer = (*Node)(nil)
	_ fs.NodeSetattrer = (*Node)(nil)
	_ fs.NodeAccesser  = (*Node)(nil)
	_ fs.NodeOpener    = (*Node)(nil)
	_ fs.NodeOpendirer = (*Node)(nil)
	_ fs.NodeReaddirer = (*Node)(nil)
	_ fs.NodeLookuper  = (*Node)(nil)
	_ fs.NodeMkdirer   = (*Node)(nil)
	_ fs.NodeMknoder   = (*Node)(nil)
	_ fs.NodeReader    = (*Node)(nil)
	_ fs.NodeWriter    = (*Node)(nil)
	_ fs.NodeUnlinker  = (*Node)(nil)
	_ fs.NodeRmdirer   = (*Node)(nil)
	_ fs.NodeRenamer   = (*Node)(nil)
)

// Root constructs the filesystem's root InodeEmbedder for fs.Mount.
func Root(sb *newfs.Superblock) fs.InodeEmbedder {
	return &Node{sb: sb, path: "/"}
}

func child(n *Node, name string) *Node {
	p := n.path
	if p == "/" {
		p = "/" + name
	} else {
		p = p + "/" + name
	}
	return &Node{sb: n.sb, path: p}
}

func errnoOf(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	return newfs.ErrnoOf(err)
}

func fillAttr(out *fuse.Attr, attr *newfs.Attr) {
	out.Mode = attr.Mode
	out.Size = attr.Size
	out.Nlink = attr.Nlink
	out.Blocks = attr.Blocks
	if out.Nlink == 0 {
		out.Nlink = 1
	}
}

// OnAdd is a no-op hook kept for symmetry with NodeOnAdder; mount
// bootstrap already happened in newfs.Mount before fs.Mount is called.
func (n *Node) OnAdd(ctx context.Context) {}

func (n *Node) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	attr, err := n.sb.Stat(n.path)
	if err != nil {
		return errnoOf(err)
	}
	fillAttr(&out.Attr, attr)
	return 0
}

func (n *Node) Setattr(ctx context.Context, f fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	if sz, ok := in.GetSize(); ok {
		if err := n.sb.Truncate(n.path, uint32(sz)); err != nil {
			return errnoOf(err)
		}
	}
	if _, ok := in.GetMTime(); ok {
		if err := n.sb.Utimens(n.path); err != nil {
			return errnoOf(err)
		}
	}
	attr, err := n.sb.Stat(n.path)
	if err != nil {
		return errnoOf(err)
	}
	fillAttr(&out.Attr, attr)
	return 0
}

func (n *Node) Access(ctx context.Context, mask uint32) syscall.Errno {
	mode := newfs.AccessExists
	switch {
	case mask&4 != 0:
		mode = newfs.AccessRead
	case mask&2 != 0:
		mode = newfs.AccessWrite
	case mask&1 != 0:
		mode = newfs.AccessExec
	}
	if err := n.sb.Access(n.path, mode); err != nil {
		return errnoOf(err)
	}
	return 0
}

func (n *Node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if err := n.sb.Access(n.path, newfs.AccessExists); err != nil {
		return nil, 0, errnoOf(err)
	}
	return nil, 0, 0
}

func (n *Node) Opendir(ctx context.Context) syscall.Errno {
	if err := n.sb.Access(n.path, newfs.AccessExists); err != nil {
		return errnoOf(err)
	}
	return 0
}

type dirStream struct {
	entries []newfs.DirEntry
	pos     int
}

func (s *dirStream) HasNext() bool { return s.pos < len(s.entries) }

func (s *dirStream) Next() (fuse.DirEntry, syscall.Errno) {
	e := s.entries[s.pos]
	s.pos++
	mode := uint32(syscall.S_IFREG)
	if e.Type == newfs.TypeDirectory {
		mode = syscall.S_IFDIR
	}
	return fuse.DirEntry{Name: e.Name, Mode: mode}, 0
}

func (s *dirStream) Close() {}

func (n *Node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	entries, err := n.sb.Readdir(n.path)
	if err != nil {
		return nil, errnoOf(err)
	}
	return &dirStream{entries: entries}, 0
}

func (n *Node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	c := child(n, name)
	attr, err := n.sb.Stat(c.path)
	if err != nil {
		return nil, errnoOf(err)
	}
	fillAttr(&out.Attr, attr)
	mode := uint32(syscall.S_IFREG)
	if attr.Mode&newfs.S_IFDIR == newfs.S_IFDIR {
		mode = syscall.S_IFDIR
	}
	ino := n.NewInode(ctx, c, fs.StableAttr{Mode: mode})
	return ino, 0
}

func (n *Node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	c := child(n, name)
	if _, err := n.sb.Mkdir(c.path); err != nil {
		return nil, errnoOf(err)
	}
	attr, err := n.sb.Stat(c.path)
	if err != nil {
		return nil, errnoOf(err)
	}
	fillAttr(&out.Attr, attr)
	ino := n.NewInode(ctx, c, fs.StableAttr{Mode: syscall.S_IFDIR})
	return ino, 0
}

func (n *Node) Mknod(ctx context.Context, name string, mode uint32, dev uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	c := child(n, name)
	if _, err := n.sb.Mknod(c.path, mode); err != nil {
		return nil, errnoOf(err)
	}
	attr, err := n.sb.Stat(c.path)
	if err != nil {
		return nil, errnoOf(err)
	}
	fillAttr(&out.Attr, attr)
	stableMode := uint32(syscall.S_IFREG)
	if attr.Mode&newfs.S_IFDIR == newfs.S_IFDIR {
		stableMode = syscall.S_IFDIR
	}
	ino := n.NewInode(ctx, c, fs.StableAttr{Mode: stableMode})
	return ino, 0
}

func (n *Node) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	nread, err := n.sb.Read(n.path, off, dest)
	if err != nil {
		return nil, errnoOf(err)
	}
	return fuse.ReadResultData(dest[:nread]), 0
}

func (n *Node) Write(ctx context.Context, f fs.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	nwritten, err := n.sb.Write(n.path, off, data)
	if err != nil {
		return 0, errnoOf(err)
	}
	return uint32(nwritten), 0
}

// Unlink, Rmdir, and Rename are not implemented by the core filesystem
// (matching the reference's NULL function pointers for these callbacks);
// they report ENOSYS rather than silently succeeding.
func (n *Node) Unlink(ctx context.Context, name string) syscall.Errno {
	return syscall.ENOSYS
}

func (n *Node) Rmdir(ctx context.Context, name string) syscall.Errno {
	return syscall.ENOSYS
}

func (n *Node) Rename(ctx context.Context, name string, newParent fs.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	return syscall.ENOSYS
}
