package rosbag

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSourceReadsWhatFileSinkWrote(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.bag")

	sink, err := CreateFileSink(path)
	require.NoError(t, err)
	_, err = sink.WriteAt([]byte("hello"), 0)
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	src, err := OpenFileSource(path)
	require.NoError(t, err)
	defer src.Close()

	size, err := src.Size()
	require.NoError(t, err)
	assert.EqualValues(t, 5, size)

	buf := make([]byte, 5)
	_, err = src.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))
}

func TestCreateFileSinkRejectsSecondWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.bag")

	first, err := CreateFileSink(path)
	require.NoError(t, err)
	defer first.Close()

	_, err = CreateFileSink(path)
	assert.Error(t, err)
}
