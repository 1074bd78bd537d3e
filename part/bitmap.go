package part

import (
	"math/bits"

	"github.com/hideo55/go-popcount"
)

// bitmap marks which of the 256 key bytes have a child.
type bitmap [4]uint64 // 256 bits representing 2**8 entries

func (b *bitmap) set(c byte) {
	b[c>>6] |= 1 << (c & 0x3F)
}

func (b *bitmap) has(c byte) bool {
	return (b[c>>6]>>(c&0x3F))&0x01 != 0
}

// next returns the smallest marked byte >= from; from may be 256.
func (b *bitmap) next(from int) (byte, bool) {
	for ofs := from >> 6; ofs < len(b); ofs++ {
		bmp := b[ofs]
		if ofs == from>>6 {
			bmp &= ^uint64(0) << (from & 0x3F)
		}
		if bmp != 0 {
			return byte(ofs<<6 + bits.TrailingZeros64(bmp)), true
		}
	}
	return 0, false
}

// rank counts the marked bytes below c.
func (b *bitmap) rank(c byte) int {
	ofs := c >> 6
	cnt := popcount.Count(b[ofs] & ((1 << (c & 0x3F)) - 1))
	for j := byte(0); j < ofs; j++ {
		cnt += popcount.Count(b[j])
	}
	return int(cnt)
}

func (b *bitmap) count() int {
	return int(popcount.CountSlice(b[:]))
}
