package rosbag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yabuta/rosbag/msgdef"
)

func TestConnectionsToTopicsOrderAndDedup(t *testing.T) {
	connections := []*Connection{
		testConnection(0, "/b", "T"),
		testConnection(1, "/a", "U"),
		testConnection(2, "/b", "T"),
	}
	topics, types, err := ConnectionsToTopics(connections)
	require.NoError(t, err)
	assert.Equal(t, []string{"/b", "/a"}, topics)
	assert.Equal(t, "T", types["/b"])
	assert.Equal(t, "U", types["/a"])
}

func TestConnectionsToTopicsConflict(t *testing.T) {
	connections := []*Connection{
		testConnection(0, "/a", "T"),
		testConnection(1, "/a", "U"),
	}
	_, _, err := ConnectionsToTopics(connections)
	var conflict ErrTopicTypeConflict
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "/a", conflict.Topic)
}

func TestMessageCountsPerTopicAndTotal(t *testing.T) {
	connections := []*Connection{
		testConnection(0, "/a", "T"),
		testConnection(1, "/b", "U"),
	}
	chunkInfos := []*ChunkInfo{
		{Data: map[uint32]uint32{0: 3, 1: 2}},
		{Data: map[uint32]uint32{0: 1}},
	}
	counts, total, err := MessageCounts(chunkInfos, connections)
	require.NoError(t, err)
	assert.EqualValues(t, 6, total)
	require.Len(t, counts, 2)
	assert.Equal(t, TopicCount{Topic: "/a", Datatype: "T", Count: 4}, counts[0])
	assert.Equal(t, TopicCount{Topic: "/b", Datatype: "U", Count: 2}, counts[1])
}

func TestMessageCountsConflict(t *testing.T) {
	connections := []*Connection{
		testConnection(0, "/a", "T"),
		testConnection(1, "/a", "U"),
	}
	_, _, err := MessageCounts(nil, connections)
	var conflict ErrTopicTypeConflict
	require.ErrorAs(t, err, &conflict)
}

func TestConnectionMessageCountsSurfacesUnusedConnection(t *testing.T) {
	chunkInfos := []*ChunkInfo{{Data: map[uint32]uint32{0: 5}}}
	counts := ConnectionMessageCounts(chunkInfos)
	assert.EqualValues(t, 5, counts[0])
	_, ok := counts[1]
	assert.False(t, ok)
}

func TestConnectionsToDatatypes(t *testing.T) {
	conn := testConnection(0, "/a", "pkg/Foo")
	conn.Data.MessageDefinition = []byte("int32 x\n")

	parse := func(text []byte) ([]msgdef.Datatype, error) {
		return msgdef.Parse(text)
	}
	out, err := ConnectionsToDatatypes([]*Connection{conn}, parse)
	require.NoError(t, err)
	require.Contains(t, out, "pkg/Foo")
	require.Len(t, out["pkg/Foo"].Fields, 1)
	assert.Equal(t, "x", out["pkg/Foo"].Fields[0].Name)
}

func TestConnectionsToDatatypesNoType(t *testing.T) {
	conn := testConnection(0, "/a", "")
	_, err := ConnectionsToDatatypes([]*Connection{conn}, msgdef.Parse)
	assert.ErrorIs(t, err, ErrNoType)
}
