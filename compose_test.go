package rosbag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeChunkInfoRoundTrip(t *testing.T) {
	ci := &ChunkInfo{
		ChunkPos:  4117,
		StartTime: Time{Sec: 1},
		EndTime:   Time{Sec: 2},
		Count:     5,
		Data:      map[uint32]uint32{2: 3, 0: 2},
	}
	buf, err := ComposeChunkInfo(ci)
	require.NoError(t, err)
	rec, err := ReadRecord(bytesReader(buf))
	require.NoError(t, err)
	got, err := ParseChunkInfo(rec)
	require.NoError(t, err)
	assert.Equal(t, ci, got)
}

func TestComposeChunkInfoCountIsMessageCountNotConnCount(t *testing.T) {
	// Two connections contributing 5 total messages: the wire "count"
	// field must be 5, not 2 (the number of distinct connections).
	ci := &ChunkInfo{Count: 5, Data: map[uint32]uint32{0: 2, 1: 3}}
	buf, err := ComposeChunkInfo(ci)
	require.NoError(t, err)
	rec, err := ReadRecord(bytesReader(buf))
	require.NoError(t, err)
	got, err := ParseChunkInfo(rec)
	require.NoError(t, err)
	assert.EqualValues(t, 5, got.Count)
}

func TestComposeChunkInfoDeterministicConnOrder(t *testing.T) {
	ci := &ChunkInfo{Data: map[uint32]uint32{5: 1, 1: 1, 3: 1}}
	buf1, err := ComposeChunkInfo(ci)
	require.NoError(t, err)
	buf2, err := ComposeChunkInfo(ci)
	require.NoError(t, err)
	assert.Equal(t, buf1, buf2)
}

func TestComposeIndexDataRoundTrip(t *testing.T) {
	idx := &IndexData{
		Conn:  1,
		Count: 2,
		Data: []MessageIndexEntry{
			{Time: Time{Sec: 1}, Offset: 0},
			{Time: Time{Sec: 2}, Offset: 10},
		},
	}
	buf, err := ComposeIndexData(idx)
	require.NoError(t, err)
	rec, err := ReadRecord(bytesReader(buf))
	require.NoError(t, err)
	got, err := ParseIndexData(rec)
	require.NoError(t, err)
	assert.Equal(t, idx, got)
}

func TestComposeChunkNoRecompression(t *testing.T) {
	c := &Chunk{Compression: CompressionNone, Size: 3, Data: []byte{1, 2, 3}}
	buf, err := ComposeChunk(c)
	require.NoError(t, err)
	rec, err := ReadRecord(bytesReader(buf))
	require.NoError(t, err)
	got, err := ParseChunk(rec)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}
