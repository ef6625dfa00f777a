package newfs

import "strings"

// Lookup resolves path against the root dentry, returning the deepest
// dentry reached, whether the full path was found, and whether the result
// is the root itself. Mirrors newfs_lookup's level-by-level walk, except
// name comparison requires equal length in addition to equal bytes (the
// reference's memcmp(name, fname, strlen(fname)) accepts any fname that
// merely starts with name; that bug is not reproduced here).
func (sb *Superblock) Lookup(path string) (dentry *Dentry, found bool, isRoot bool) {
	components := splitPath(path)
	if len(components) == 0 {
		return sb.root, true, true
	}

	cursor := sb.root
	var last *Dentry

	for lvl, name := range components {
		inode, err := cursor.Inode()
		if err != nil {
			return cursor, false, false
		}

		if inode.FType == TypeRegular && lvl < len(components)-1 {
			return inode.dentry, false, false
		}

		if inode.FType != TypeDirectory {
			return inode.dentry, false, false
		}

		var hit *Dentry
		for _, child := range inode.children {
			if namesEqual(child.name, name) {
				hit = child
				break
			}
		}
		if hit == nil {
			return cursor, false, false
		}
		last = hit
		cursor = hit

		if lvl == len(components)-1 {
			break
		}
	}

	if last == nil {
		return cursor, false, false
	}
	if last.inode == nil {
		inode, err := last.Inode()
		if err != nil {
			return last, false, false
		}
		last.inode = inode
	}
	return last, true, false
}

func namesEqual(stored, query string) bool {
	return len(stored) == len(query) && stored == query
}

// splitPath breaks a "/"-separated path into non-empty components, the
// same decomposition strtok(path, "/") performs.
func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
