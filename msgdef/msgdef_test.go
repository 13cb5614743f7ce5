package msgdef

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleFields(t *testing.T) {
	text := []byte("string data\nint32 count\n")
	types, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, types, 1)
	require.Len(t, types[0].Fields, 2)
	assert.Equal(t, FieldDescriptor{Type: "string", Name: "data"}, types[0].Fields[0])
	assert.Equal(t, FieldDescriptor{Type: "int32", Name: "count"}, types[0].Fields[1])
}

func TestParseArrayFields(t *testing.T) {
	text := []byte("float64[] ranges\ngeometry_msgs/Point[10] points\n")
	types, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, types[0].Fields, 2)

	ranges := types[0].Fields[0]
	assert.Equal(t, "float64", ranges.Type)
	assert.True(t, ranges.IsArray)
	assert.Equal(t, -1, ranges.ArrayLen)

	points := types[0].Fields[1]
	assert.Equal(t, "geometry_msgs/Point", points.Type)
	assert.True(t, points.IsArray)
	assert.Equal(t, 10, points.ArrayLen)
}

func TestParseConstants(t *testing.T) {
	text := []byte("uint8 OK=0\nuint8 WARN=1 # comment ignored\n")
	types, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, types[0].Constants, 2)
	assert.Equal(t, ConstantDescriptor{Type: "uint8", Name: "OK", Value: "0"}, types[0].Constants[0])
	assert.Equal(t, "WARN", types[0].Constants[1].Name)
	assert.Equal(t, "1", types[0].Constants[1].Value)
}

func TestParseDependencyBlocks(t *testing.T) {
	text := []byte("Header header\nstring name\n" +
		"================================================================================\n" +
		"MSG: std_msgs/Header\n" +
		"uint32 seq\n" +
		"time stamp\n")
	types, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, "", types[0].Name)
	require.Len(t, types[0].Fields, 2)
	assert.Equal(t, "Header", types[0].Fields[0].Type)

	assert.Equal(t, "std_msgs/Header", types[1].Name)
	require.Len(t, types[1].Fields, 2)
	assert.Equal(t, "seq", types[1].Fields[0].Name)
	assert.Equal(t, "stamp", types[1].Fields[1].Name)
}

func TestParseCommentsAndBlankLinesIgnored(t *testing.T) {
	text := []byte("# this is a header comment\n\nint32 x  # trailing comment\n")
	types, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, types[0].Fields, 1)
	assert.Equal(t, "x", types[0].Fields[0].Name)
}
