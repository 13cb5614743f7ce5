package rosbag

import "github.com/yabuta/rosbag/msgdef"

// This file implements the pure derivations listed in spec §4.7: small
// read-only views computed from an already-parsed BagIndex, with no
// further I/O through a Reader.

// MessageDefinitionParser is the external collaborator that turns a
// connection's raw message_definition text into named type descriptors.
// msgdef.Parse is the reference implementation; callers may substitute
// their own (spec §1).
type MessageDefinitionParser func(text []byte) ([]msgdef.Datatype, error)

// ConnectionsToDatatypes calls parse on each connection's message
// definition text and folds the results into a mapping from datatype
// name to its descriptor: the first (unnamed) block returned for a
// connection is keyed by the connection's own declared Type, and any
// further named blocks — the dependencies concatenated onto the
// definition — are keyed by their own name. A connection with no Type
// fails with ErrNoType. Later occurrences of the same datatype name
// overwrite earlier ones silently, matching how repeated dependency
// definitions across connections are expected to agree.
func ConnectionsToDatatypes(connections []*Connection, parse MessageDefinitionParser) (map[string]msgdef.Datatype, error) {
	out := make(map[string]msgdef.Datatype)
	for _, c := range connections {
		if c.Data.Type == "" {
			return nil, ErrNoType
		}
		types, err := parse(c.Data.MessageDefinition)
		if err != nil {
			return nil, err
		}
		if len(types) == 0 {
			continue
		}
		out[c.Data.Type] = types[0]
		for _, dep := range types[1:] {
			if dep.Name == "" {
				continue
			}
			out[dep.Name] = dep
		}
	}
	return out, nil
}

// ConnectionsToTopics deduplicates connections by topic, returning the
// topics in order of first appearance and a topic->type mapping. Two
// connections sharing a topic but disagreeing on type fail with
// ErrTopicTypeConflict.
func ConnectionsToTopics(connections []*Connection) ([]string, map[string]string, error) {
	topics := make([]string, 0, len(connections))
	types := make(map[string]string, len(connections))
	for _, c := range connections {
		if existing, ok := types[c.Topic]; ok {
			if existing != c.Data.Type {
				return nil, nil, ErrTopicTypeConflict{Topic: c.Topic, TypeA: existing, TypeB: c.Data.Type}
			}
			continue
		}
		types[c.Topic] = c.Data.Type
		topics = append(topics, c.Topic)
	}
	return topics, types, nil
}

// TopicCount is one topic's rolled-up message count and datatype, as
// returned by MessageCounts.
type TopicCount struct {
	Topic    string
	Datatype string
	Count    uint64
}

// MessageCounts sums, per connection ID, the message counts recorded
// across chunkInfos, groups the sums by topic via connections, and
// returns one TopicCount per topic (in order of first appearance) plus
// the bag-wide total. It applies the same conflict rule as
// ConnectionsToTopics.
func MessageCounts(chunkInfos []*ChunkInfo, connections []*Connection) ([]TopicCount, uint64, error) {
	topicOrder, topicType, err := ConnectionsToTopics(connections)
	if err != nil {
		return nil, 0, err
	}
	topicByConn := make(map[uint32]string, len(connections))
	for _, c := range connections {
		topicByConn[c.Conn] = c.Topic
	}

	counts := make(map[string]uint64, len(topicOrder))
	var total uint64
	for _, ci := range chunkInfos {
		for conn, n := range ci.Data {
			topic, ok := topicByConn[conn]
			if !ok {
				continue
			}
			counts[topic] += uint64(n)
			total += uint64(n)
		}
	}

	out := make([]TopicCount, len(topicOrder))
	for i, topic := range topicOrder {
		out[i] = TopicCount{Topic: topic, Datatype: topicType[topic], Count: counts[topic]}
	}
	return out, total, nil
}

// ConnectionMessageCounts sums, per connection ID, the message counts
// recorded across every ChunkInfo. Unlike MessageCounts, this is keyed
// by connection rather than by topic, so it can surface a connection
// that was declared but never appears in any chunk (absent from the
// result, count implicitly zero).
func ConnectionMessageCounts(chunkInfos []*ChunkInfo) map[uint32]uint64 {
	counts := make(map[uint32]uint64)
	for _, ci := range chunkInfos {
		for conn, n := range ci.Data {
			counts[conn] += uint64(n)
		}
	}
	return counts
}
