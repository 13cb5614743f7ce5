package rosbag

import "encoding/binary"

// getU32 aliases the stdlib little-endian reader. It exists as a
// package-level var, rather than being called inline everywhere, so
// record parsing code reads uniformly alongside getU64.
var getU32 = binary.LittleEndian.Uint32

// getU64 reads a 64-bit value as two little-endian 32-bit words: the low
// word occupies the first 4 bytes, the high word the next 4. This is the
// representation of all u64 wire fields (index_pos, chunk_pos).
func getU64(buf []byte) uint64 {
	lo := getU32(buf)
	hi := getU32(buf[4:])
	return uint64(lo) | uint64(hi)<<32
}

func putU32(buf []byte, x uint32) int {
	binary.LittleEndian.PutUint32(buf, x)
	return 4
}

func putU64(buf []byte, x uint64) int {
	putU32(buf, uint32(x))
	putU32(buf[4:], uint32(x>>32))
	return 8
}

// getTime reads a Time from its 8-byte wire representation: a
// little-endian uint32 seconds field followed by a little-endian uint32
// nanoseconds field.
func getTime(buf []byte) Time {
	return Time{Sec: getU32(buf), Nsec: getU32(buf[4:])}
}

func putTime(buf []byte, t Time) int {
	putU32(buf, t.Sec)
	putU32(buf[4:], t.Nsec)
	return 8
}
