package rosbag

// ExtractHeader reads a record's header: a 4-byte little-endian length
// prefix followed by that many bytes of field data (spec §4.2). It
// returns the decoded fields and the number of bytes consumed from buf,
// including the length prefix.
func ExtractHeader(buf []byte) (fields []Field, consumed int, err error) {
	if len(buf) < 4 {
		return nil, 0, ErrTruncated
	}
	length := int(getU32(buf))
	if length < 0 || 4+length > len(buf) {
		return nil, 0, ErrCorrupt{Offset: 0, Reason: "header length overruns buffer"}
	}
	fields, err = ExtractFields(buf[4 : 4+length])
	if err != nil {
		return nil, 0, err
	}
	return fields, 4 + length, nil
}

// ComposeHeader serializes a header-field dictionary and prepends its
// 4-byte little-endian length prefix (spec §4.2). It fails with
// ErrEmptyHeader if fields serializes to zero bytes.
func ComposeHeader(fields []Field) ([]byte, error) {
	body := ComposeFields(fields)
	if len(body) == 0 {
		return nil, ErrEmptyHeader
	}
	buf := make([]byte, 4+len(body))
	putU32(buf, uint32(len(body)))
	copy(buf[4:], body)
	return buf, nil
}
