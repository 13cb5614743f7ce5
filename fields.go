package rosbag

import "bytes"

// Field is one entry of a header-field dictionary: an ASCII name and an
// opaque byte value. Values are never coerced to strings here — the
// semantics of a field's bytes (a u32, a u64, two ASCII characters) are
// only known to the record-kind-specific code in parse.go/compose.go.
type Field struct {
	Name  string
	Value []byte
}

// ExtractFields decodes a buffer of zero or more length-prefixed
// name=value entries (spec §4.1). Fields are returned in the order they
// appear in buf; duplicate names are all present in the returned slice,
// with resolution of duplicates left to FieldMap/FindField.
func ExtractFields(buf []byte) ([]Field, error) {
	var fields []Field
	offset := 0
	for offset < len(buf) {
		if len(buf)-offset < 4 {
			return nil, ErrTruncated
		}
		length := int(getU32(buf[offset:]))
		offset += 4
		if length < 0 || offset+length > len(buf) {
			return nil, ErrCorrupt{Offset: int64(offset), Reason: "field length overruns buffer"}
		}
		entry := buf[offset : offset+length]
		offset += length

		sep := bytes.IndexByte(entry, '=')
		if sep < 0 {
			return nil, ErrMalformed
		}
		fields = append(fields, Field{
			Name:  string(entry[:sep]),
			Value: entry[sep+1:],
		})
	}
	return fields, nil
}

// ComposeFields serializes an ordered sequence of fields into a buffer of
// length-prefixed name=value entries (spec §4.1). The composer never
// emits duplicate names; callers are responsible for de-duplicating
// before calling this.
func ComposeFields(fields []Field) []byte {
	size := 0
	for _, f := range fields {
		size += 4 + len(f.Name) + 1 + len(f.Value)
	}
	buf := make([]byte, size)
	offset := 0
	for _, f := range fields {
		entryLen := len(f.Name) + 1 + len(f.Value)
		offset += putU32(buf[offset:], uint32(entryLen))
		offset += copy(buf[offset:], f.Name)
		buf[offset] = '='
		offset++
		offset += copy(buf[offset:], f.Value)
	}
	return buf
}

// FieldMap folds a field slice into a name->value lookup. Per spec §4.1,
// duplicate names within the slice resolve last-write-wins: later
// entries in fields overwrite earlier ones of the same name.
func FieldMap(fields []Field) map[string][]byte {
	m := make(map[string][]byte, len(fields))
	for _, f := range fields {
		m[f.Name] = f.Value
	}
	return m
}

// FindField returns the value of the named field, applying the same
// last-write-wins rule as FieldMap. ok is false if no field with that
// name is present.
func FindField(fields []Field, name string) (value []byte, ok bool) {
	for _, f := range fields {
		if f.Name == name {
			value, ok = f.Value, true
		}
	}
	return value, ok
}
