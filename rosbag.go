// Package rosbag implements the ROS bag v2.0 record codec and bag layout
// engine: the bidirectional transformation between the on-disk bag byte
// format and an in-memory model of connections, chunks, and indices.
//
// See http://wiki.ros.org/Bags/Format/2.0 for the format this package
// implements.
package rosbag

// Magic is the magic string that opens every ROS bag file.
var Magic = []byte("#ROSBAG V2.0\n")

// OpCode is the one-byte opcode discriminating record kinds.
type OpCode byte

const (
	// OpError is not part of the bag format. It is returned alongside an
	// error to signal that the opcode is meaningless.
	OpError OpCode = 0x00

	OpMessageData OpCode = 0x02
	OpBagHeader   OpCode = 0x03
	OpIndexData   OpCode = 0x04
	OpChunk       OpCode = 0x05
	OpChunkInfo   OpCode = 0x06
	OpConnection  OpCode = 0x07
)

// String returns a human-readable name for the opcode.
func (o OpCode) String() string {
	switch o {
	case OpError:
		return "error"
	case OpMessageData:
		return "message data"
	case OpBagHeader:
		return "bag header"
	case OpIndexData:
		return "index data"
	case OpChunk:
		return "chunk"
	case OpChunkInfo:
		return "chunk info"
	case OpConnection:
		return "connection"
	default:
		return "unknown"
	}
}

// Compression names recognized by the default decompressor/compressor
// tables. Any other name is a valid pluggable compression scheme as long
// as the caller supplies matching entries in their own tables.
const (
	CompressionNone = "none"
	CompressionLZ4  = "lz4"
	CompressionBZ2  = "bz2"
)

// bagHeaderRecordSize is the fixed total size, in bytes, of a composed
// BagHeader record including its 4-byte header-length and 4-byte
// data-length prefixes. It is what makes a bag's index position
// deterministic before any chunk is written.
const bagHeaderRecordSize = 4104

// bagHeaderPaddedSize is the byte budget a composed BagHeader record
// shares between its header fields and its data-section padding: the
// padding is 4096 bytes minus whatever the header fields themselves
// occupy, so that the record as a whole is always bagHeaderRecordSize
// bytes.
const bagHeaderPaddedSize = 4096

// Time is a ROS timestamp: seconds and nanoseconds since the epoch,
// stored as two separate little-endian uint32 wire fields. Ordering is
// lexicographic on (Sec, Nsec).
type Time struct {
	Sec  uint32
	Nsec uint32
}

// Before reports whether t occurs strictly before o.
func (t Time) Before(o Time) bool {
	return t.Sec < o.Sec || (t.Sec == o.Sec && t.Nsec < o.Nsec)
}

// After reports whether t occurs strictly after o.
func (t Time) After(o Time) bool {
	return o.Before(t)
}

// BagHeader is the first record in a bag file.
type BagHeader struct {
	IndexPos   uint64 // offset of the first record after the chunk section (the first Connection, or ChunkInfo if there are none)
	ConnCount  uint32 // number of Connection records
	ChunkCount uint32 // number of ChunkInfo records
}

// ConnectionHeader is the second, nested header-field block that forms
// the data section of a Connection record.
type ConnectionHeader struct {
	Topic             string  // topic the publisher believes it is writing to; may differ from Connection.Topic
	Type              string  // message type, e.g. "sensor_msgs/Image"
	MD5Sum            string  // md5sum of the message type's flattened definition
	MessageDefinition []byte  // full text of the message definition, including dependencies
	CallerID          *string // name of the node that originally sent the data, if known
	Latching          *bool   // whether the publisher is in latching mode
}

// Connection is one publisher stream: a topic plus the message type
// published on it, along with the raw connection header that was
// recorded alongside it.
type Connection struct {
	Conn  uint32
	Topic string
	Data  ConnectionHeader
}

// Message is a single timestamped payload recorded on a connection.
type Message struct {
	Conn uint32
	Time Time
	Data []byte
}

// Chunk is a (possibly compressed) concatenation of Connection and
// MessageData records.
type Chunk struct {
	Compression string
	Size        uint32 // uncompressed size of Data
	Data        []byte // bytes as stored on disk, compressed per Compression; Reader.ReadChunk returns the decompressed bytes here instead
}

// MessageIndexEntry locates one message within a chunk's decompressed
// byte range.
type MessageIndexEntry struct {
	Time   Time
	Offset uint32 // offset within the chunk's uncompressed data
}

// IndexData is the per-connection message index that trails a Chunk
// record on disk.
type IndexData struct {
	Conn  uint32
	Count uint32
	Data  []MessageIndexEntry
}

// ChunkInfo locates a chunk on disk, along with its time range and the
// message count contributed by each connection within it.
type ChunkInfo struct {
	ChunkPos  uint64
	StartTime Time
	EndTime   Time
	Count     uint32            // total number of messages across all connections in the chunk
	Data      map[uint32]uint32 // connection ID -> message count within this chunk
}
