package part

import (
	"encoding/binary"
	"os"
	"strings"

	"github.com/hideo55/go-popcount"
	"golang.org/x/sys/cpu"
)

// Kernel selects how Node16 searches its sorted key array.
type Kernel uint8

const (
	// KernelAuto uses the kernel picked at start-up (see DefaultKernel).
	KernelAuto Kernel = iota
	// KernelScalar scans the keys one by one.
	KernelScalar
	// KernelSWAR compares eight keys per uint64 word and counts matching lanes.
	KernelSWAR
)

// searchFunc returns the index of the first of the n sorted keys that is >= c (n if none).
type searchFunc func(keys *[16]byte, n int, c byte) int

var defaultKernel = KernelScalar

func init() {
	if cpu.X86.HasPOPCNT || cpu.ARM64.HasASIMD {
		defaultKernel = KernelSWAR
	}
	// environment override
	if k, ok := ParseKernel(os.Getenv("PART_NODE16")); ok && k != KernelAuto {
		defaultKernel = k
	}
}

// DefaultKernel reports the kernel KernelAuto resolves to: SWAR when the CPU has a hardware
// popcount, scalar otherwise, unless PART_NODE16=scalar|swar says otherwise.
func DefaultKernel() Kernel {
	return defaultKernel
}

func ParseKernel(s string) (Kernel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto":
		return KernelAuto, true
	case "scalar":
		return KernelScalar, true
	case "swar":
		return KernelSWAR, true
	}
	return KernelAuto, false
}

func (k Kernel) String() string {
	switch k {
	case KernelScalar:
		return "scalar"
	case KernelSWAR:
		return "swar"
	}
	return "auto"
}

func (k Kernel) search() searchFunc {
	switch k {
	case KernelScalar:
		return lowerBound16Scalar
	case KernelSWAR:
		return lowerBound16SWAR
	}
	return defaultKernel.search()
}

//---------------------
// Kernels
//---------------------

func lowerBound16Scalar(keys *[16]byte, n int, c byte) int {
	i := 0
	for i < n && keys[i] < c {
		i++
	}
	return i
}

const (
	lo8 uint64 = 0x0101010101010101
	hi8 uint64 = 0x8080808080808080
)

// lessMask sets the high bit of every byte lane of x that is (unsigned) below the matching
// lane of y.
func lessMask(x, y uint64) uint64 {
	// (x|0x80)-(y&0x7F) never borrows across lanes; its high bit says low7(x) >= low7(y)
	t := (x | hi8) - (y &^ hi8)
	return ((^x & y) | (^(x ^ y) &^ t)) & hi8
}

// laneMask keeps the high bits of the first n byte lanes of a word (n in 0..8)
func laneMask(n int) uint64 {
	if n <= 0 {
		return 0
	}
	return hi8 >> (8 * (8 - min(n, 8)))
}

func lowerBound16SWAR(keys *[16]byte, n int, c byte) int {
	var (
		b  = uint64(c) * lo8
		w0 = binary.LittleEndian.Uint64(keys[0:8])
		w1 = binary.LittleEndian.Uint64(keys[8:16])
	)
	// keys are sorted, so the number of keys below c is the lower bound index
	cnt := popcount.Count(lessMask(w0, b)&laneMask(n)) + popcount.Count(lessMask(w1, b)&laneMask(n-8))
	return int(cnt)
}
