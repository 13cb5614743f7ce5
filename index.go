package rosbag

import "sort"

// ConnectionTable is an insertion-order-preserving map from connection ID
// to Connection (spec §3.1: "insertion order is preserved on compose").
// It owns the Connections in a BagIndex; nothing outside BagIndex aliases
// into it.
type ConnectionTable struct {
	byID  map[uint32]*Connection
	order []uint32
}

// NewConnectionTable returns an empty ConnectionTable.
func NewConnectionTable() *ConnectionTable {
	return &ConnectionTable{byID: make(map[uint32]*Connection)}
}

// Add inserts or replaces the connection at c.Conn. A replacement keeps
// its original position in insertion order.
func (t *ConnectionTable) Add(c *Connection) {
	if _, exists := t.byID[c.Conn]; !exists {
		t.order = append(t.order, c.Conn)
	}
	t.byID[c.Conn] = c
}

// Get returns the connection with the given ID, if any.
func (t *ConnectionTable) Get(id uint32) (*Connection, bool) {
	c, ok := t.byID[id]
	return c, ok
}

// Len returns the number of connections in the table.
func (t *ConnectionTable) Len() int {
	return len(t.order)
}

// Ordered returns the connections in insertion order. The returned slice
// is a fresh copy; mutating it does not affect the table.
func (t *ConnectionTable) Ordered() []*Connection {
	out := make([]*Connection, len(t.order))
	for i, id := range t.order {
		out[i] = t.byID[id]
	}
	return out
}

// SortedByID returns the connections ordered by ascending connection ID,
// the order the Composer emits them in for deterministic output.
func (t *ConnectionTable) SortedByID() []*Connection {
	out := t.Ordered()
	sort.Slice(out, func(i, j int) bool { return out[i].Conn < out[j].Conn })
	return out
}

// BagIndex is the in-memory model of one bag: its header, its
// connections, and its chunk infos (spec §4.4). Chunk contents
// themselves are not held here; they are fetched on demand through a
// Reader.
type BagIndex struct {
	Header      BagHeader
	Connections *ConnectionTable
	ChunkInfos  []*ChunkInfo // file order
}

// Summary rolls up the timing and volume information implied by the
// chunk infos: the earliest and latest message times across the bag, and
// the total message count. It is a pure derivation over already-read
// data (spec §4.7's companion), not a new read.
type Summary struct {
	StartTime    Time
	EndTime      Time
	MessageCount uint64
}

// Summary computes a Summary from idx.ChunkInfos. If the bag has no
// chunks, StartTime and EndTime are the zero Time.
func (idx *BagIndex) Summary() Summary {
	var s Summary
	first := true
	for _, ci := range idx.ChunkInfos {
		if first || ci.StartTime.Before(s.StartTime) {
			s.StartTime = ci.StartTime
		}
		if first || ci.EndTime.After(s.EndTime) {
			s.EndTime = ci.EndTime
		}
		first = false
		for _, count := range ci.Data {
			s.MessageCount += uint64(count)
		}
	}
	return s
}
