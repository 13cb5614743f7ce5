// Package msgdef parses ROS message-definition text — the field/type
// listing recorded verbatim in a Connection's message_definition header
// field — into a sequence of named type descriptors. It is the reference
// implementation of the pluggable message-definition parser: callers of
// the rosbag package's derivation helpers may substitute their own.
//
// A message definition is a primary, unnamed block of field and constant
// lines, optionally followed by any number of dependency blocks
// introduced by an 80-character '=' separator line and a "MSG: pkg/Type"
// header line, in the format concatenated by `gendeps --cat`.
package msgdef

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// FieldDescriptor is one field line, e.g. "float64[] ranges" or
// "geometry_msgs/Point position".
type FieldDescriptor struct {
	Type     string
	Name     string
	IsArray  bool
	ArrayLen int // -1 for a variable-length array, the fixed length for a fixed-size array, 0 when IsArray is false
}

// ConstantDescriptor is one constant line, e.g. "uint8 OK=0".
type ConstantDescriptor struct {
	Type  string
	Name  string
	Value string
}

// Datatype is one named block within a message definition: the primary
// block (Name == "") or one of its "MSG:"-tagged dependencies.
type Datatype struct {
	Name      string
	Fields    []FieldDescriptor
	Constants []ConstantDescriptor
}

var msgLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Separator", Pattern: `={80,}`},
	{Name: "MsgTag", Pattern: `MSG:[ \t]*[A-Za-z_][A-Za-z0-9_/]*`},
	{Name: "ConstValue", Pattern: `=[^\n#]*`},
	{Name: "ArrayType", Pattern: `[A-Za-z_][A-Za-z0-9_/]*\[[0-9]*\]`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_/]*`},
	{Name: "Newline", Pattern: `\r?\n`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

// entry is one lexical line of the definition, reduced to its meaning:
// either a block boundary (Separator, then a MsgTag naming the next
// block) or a field/constant declaration.
type entry struct {
	Separator bool    `( @Separator`
	Tag       string  `| @MsgTag`
	Type      string  `| @(Ident | ArrayType)`
	Name      string  `@Ident`
	Value     *string `@ConstValue? )`
}

type definition struct {
	Entries []*entry `@@*`
}

var parser = participle.MustBuild[definition](
	participle.Lexer(msgLexer),
	participle.Elide("Comment", "Newline", "Whitespace"),
	participle.UseLookahead(2),
)

// Parse decodes a message definition's text into its sequence of named
// type descriptors: the primary block first (Name == ""), followed by
// any dependency blocks in the order they were concatenated.
func Parse(text []byte) ([]Datatype, error) {
	def, err := parser.ParseBytes("", text)
	if err != nil {
		return nil, err
	}

	types := []Datatype{{}}
	current := &types[0]
	expectTag := false

	for _, e := range def.Entries {
		switch {
		case e.Separator:
			expectTag = true
		case e.Tag != "":
			name := strings.TrimSpace(strings.TrimPrefix(e.Tag, "MSG:"))
			types = append(types, Datatype{Name: name})
			current = &types[len(types)-1]
			expectTag = false
		default:
			expectTag = false
			typ, isArray, arrayLen := parseFieldType(e.Type)
			if e.Value != nil {
				current.Constants = append(current.Constants, ConstantDescriptor{
					Type:  typ,
					Name:  e.Name,
					Value: strings.TrimSpace(strings.TrimPrefix(*e.Value, "=")),
				})
				continue
			}
			current.Fields = append(current.Fields, FieldDescriptor{
				Type:     typ,
				Name:     e.Name,
				IsArray:  isArray,
				ArrayLen: arrayLen,
			})
		}
	}
	_ = expectTag // a dangling separator with no following MSG: tag is tolerated; the parser does not require one.

	return types, nil
}

// parseFieldType splits a lexed type token such as "int32" or
// "geometry_msgs/Point[10]" into its base type name, whether it is an
// array, and its length (-1 for a variable-length array).
func parseFieldType(raw string) (base string, isArray bool, length int) {
	open := strings.IndexByte(raw, '[')
	if open < 0 {
		return raw, false, 0
	}
	base = raw[:open]
	inner := raw[open+1 : len(raw)-1]
	if inner == "" {
		return base, true, -1
	}
	n, err := strconv.Atoi(inner)
	if err != nil {
		return base, true, -1
	}
	return base, true, n
}
