package rosbag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRejectsBadMagic(t *testing.T) {
	_, err := Open(&memSource{data: []byte("not a bag")})
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestReadHeaderEmptyBag(t *testing.T) {
	// S1: an empty bag (no connections, no chunks) still round-trips
	// through Reader with index_pos == 4117.
	buf, err := assembleBag(nil, nil, nil)
	require.NoError(t, err)

	r, err := Open(&memSource{data: buf})
	require.NoError(t, err)
	header, err := r.ReadHeader()
	require.NoError(t, err)
	assert.EqualValues(t, len(Magic)+bagHeaderRecordSize, header.IndexPos)
	assert.EqualValues(t, 0, header.ConnCount)
	assert.EqualValues(t, 0, header.ChunkCount)
}

func TestReadIndexUnindexedBag(t *testing.T) {
	header, err := ComposeBagHeader(BagHeader{})
	require.NoError(t, err)
	buf := append(append([]byte{}, Magic...), header...)

	r, err := Open(&memSource{data: buf})
	require.NoError(t, err)
	_, err = r.ReadIndex()
	assert.ErrorIs(t, err, ErrUnindexedBag)
}

func TestReaderScenarioS2(t *testing.T) {
	// S2: one connection, one chunk with one message; the round-tripped
	// reader must report a single ChunkInfo with start==end==message
	// time, count 1, and one IndexData entry at offset 0.
	conn := testConnection(0, "/a", "T")
	msg := testMessage(0, 1, 0, []byte{0xDE, 0xAD})

	buf, err := buildBag([]*Connection{conn}, []*Message{msg})
	require.NoError(t, err)

	r, err := Open(&memSource{data: buf})
	require.NoError(t, err)
	idx, err := r.ReadIndex()
	require.NoError(t, err)
	require.Len(t, idx.ChunkInfos, 1)

	ci := idx.ChunkInfos[0]
	assert.Equal(t, Time{Sec: 1}, ci.StartTime)
	assert.Equal(t, Time{Sec: 1}, ci.EndTime)
	assert.EqualValues(t, 1, ci.Count)

	chunk, indexData, err := r.ReadChunk(ci)
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, chunk.Compression)
	require.Len(t, indexData, 1)
	assert.EqualValues(t, 0, indexData[0].Conn)
	require.Len(t, indexData[0].Data, 1)
	assert.EqualValues(t, 0, indexData[0].Data[0].Offset)
}

func TestReadChunkStopsAtNonIndexDataOpcode(t *testing.T) {
	conn := testConnection(0, "/a", "T")
	msg := testMessage(0, 1, 0, []byte{1})
	buf, err := buildBag([]*Connection{conn}, []*Message{msg})
	require.NoError(t, err)

	r, err := Open(&memSource{data: buf})
	require.NoError(t, err)
	idx, err := r.ReadIndex()
	require.NoError(t, err)

	_, indexData, err := r.ReadChunk(idx.ChunkInfos[0])
	require.NoError(t, err)
	assert.Len(t, indexData, 1)
}

func TestReadChunkUnexpectedOpcode(t *testing.T) {
	buf, err := buildBag(nil, nil)
	require.NoError(t, err)
	r, err := Open(&memSource{data: buf})
	require.NoError(t, err)

	fakeChunkInfo := &ChunkInfo{ChunkPos: uint64(len(Magic))} // points into the magic/header region, not a Chunk record
	_, _, err = r.ReadChunk(fakeChunkInfo)
	var mismatch ErrUnexpectedOpcode
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, OpChunk, mismatch.Want)
}
