package utils

import "os"

///////////////////////////////////////////////////////////////////////////////
// Hash & Mixers — Slot Indexing And Shard Routing
///////////////////////////////////////////////////////////////////////////////

// Mix64 applies a Murmur3-style avalanche to a 64-bit value.
// Used to randomize key placement in the flat map and shard routing;
// low and high halves are independently well distributed, so callers may
// carve the word into separate index spaces.
//
//go:nosplit
//go:inline
func Mix64(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}

///////////////////////////////////////////////////////////////////////////////
// Power-Of-Two Helpers — Constructor Sizing
///////////////////////////////////////////////////////////////////////////////

// NextPow2 returns the smallest power of two ≥ n (minimum 1).
//
//go:nosplit
//go:inline
func NextPow2(n int) int {
	s := 1
	for s < n {
		s <<= 1
	}
	return s
}

// IsPow2 reports whether n is a positive power of two.
//
//go:nosplit
//go:inline
func IsPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

///////////////////////////////////////////////////////////////////////////////
// Cold-Path Output — No fmt, No Heap Interfaces
///////////////////////////////////////////////////////////////////////////////

// PrintWarning writes msg straight to stderr. Callers pre-concatenate the
// message so no fmt machinery or interface boxing touches the path.
//
//go:nosplit
func PrintWarning(msg string) {
	_, _ = os.Stderr.WriteString(msg)
}

// Itoa converts a non-negative integer without reaching for strconv.
// Only used on diagnostic paths.
//
//go:nosplit
func Itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
