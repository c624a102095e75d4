// payload.go
//
// Self-checking payloads. Every value the harness writes embeds its key, a
// writer sequence number, deterministic filler, and a BLAKE2b digest tail.
// A reader that ever observes a payload failing verification has caught a
// torn read — exactly the class of bug the seqlock bracket must exclude.
//
// Layout: key(8) | seq(8) | fill(n) | sum(8)   — sum = blake2b-256[:8] of
// everything before it.

package harness

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// MinPayloadSize is the smallest encodable payload: key, seq and digest.
const MinPayloadSize = 24

// EncodePayload builds a self-checking payload of exactly size bytes
// (clamped up to MinPayloadSize).
func EncodePayload(key, seq uint64, size int) []byte {
	if size < MinPayloadSize {
		size = MinPayloadSize
	}
	b := make([]byte, size)
	binary.LittleEndian.PutUint64(b[0:8], key)
	binary.LittleEndian.PutUint64(b[8:16], seq)
	for i := 16; i < size-8; i++ {
		b[i] = byte(key) ^ byte(i)
	}
	sum := blake2b.Sum256(b[:size-8])
	copy(b[size-8:], sum[:8])
	return b
}

// VerifyPayload checks the digest and returns the embedded key.
func VerifyPayload(b []byte) (key uint64, ok bool) {
	if len(b) < MinPayloadSize {
		return 0, false
	}
	sum := blake2b.Sum256(b[:len(b)-8])
	for i := 0; i < 8; i++ {
		if b[len(b)-8+i] != sum[i] {
			return 0, false
		}
	}
	return binary.LittleEndian.Uint64(b[0:8]), true
}
