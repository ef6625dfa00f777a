package newfs

import "github.com/boljen/go-bitmap"

// bitmapView wraps a bitmap.Bitmap with the find-first-zero scan the
// allocator needs, the way dargueta-disko's Allocator does over its own
// AllocationBitmap.
type bitmapView struct {
	bm bitmap.Bitmap
	n  int
}

func loadBitmapView(data []byte, n int) *bitmapView {
	return &bitmapView{bm: bitmap.Bitmap(data), n: n}
}

func (b *bitmapView) Get(i int) bool {
	return b.bm.Get(i)
}

func (b *bitmapView) Set(i int, v bool) {
	b.bm.Set(i, v)
}

func (b *bitmapView) Bytes() []byte {
	return b.bm.Data(false)
}

// findFirstZero returns the lowest-index unset bit, or -1 if the bitmap is
// full.
func (b *bitmapView) findFirstZero() int {
	for i := 0; i < b.n; i++ {
		if !b.bm.Get(i) {
			return i
		}
	}
	return -1
}
