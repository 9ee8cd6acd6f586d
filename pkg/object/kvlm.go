package object

import (
	"bytes"
	"fmt"
	"strings"
)

// Field is one header of a key-value list with message.
type Field struct {
	Key   string
	Value string
}

// KVLM is the header-plus-message layout shared by commits and tags:
//
//	key value
//	key multi-line
//	 continued value
//
//	message
//
// Keys may repeat and their order is significant.
type KVLM struct {
	Fields  []Field
	Message string
}

// ParseKVLM decodes a key-value list with message.
func ParseKVLM(data []byte) (*KVLM, error) {
	out := &KVLM{}
	pos := 0
	for {
		nl := bytes.IndexByte(data[pos:], '\n')
		if nl < 0 {
			return nil, fmt.Errorf("kvlm: missing blank line before message: %w", ErrInvalidFormat)
		}
		nl += pos
		if nl == pos {
			out.Message = string(data[pos+1:])
			return out, nil
		}
		sp := bytes.IndexByte(data[pos:nl], ' ')
		if sp <= 0 {
			return nil, fmt.Errorf("kvlm: malformed header line %q: %w", data[pos:nl], ErrInvalidFormat)
		}
		key := string(data[pos : pos+sp])

		// A value runs until a newline not followed by a space.
		end := nl
		for end+1 < len(data) && data[end+1] == ' ' {
			next := bytes.IndexByte(data[end+1:], '\n')
			if next < 0 {
				return nil, fmt.Errorf("kvlm: unterminated value for %q: %w", key, ErrInvalidFormat)
			}
			end += 1 + next
		}
		value := strings.ReplaceAll(string(data[pos+sp+1:end]), "\n ", "\n")
		out.Fields = append(out.Fields, Field{Key: key, Value: value})
		pos = end + 1
	}
}

// Marshal encodes the list. Embedded newlines in values become
// continuation lines.
func (k *KVLM) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	for _, f := range k.Fields {
		if f.Key == "" || strings.ContainsAny(f.Key, " \n") {
			return nil, fmt.Errorf("kvlm: bad key %q: %w", f.Key, ErrInvalidFormat)
		}
		buf.WriteString(f.Key)
		buf.WriteByte(' ')
		buf.WriteString(strings.ReplaceAll(f.Value, "\n", "\n "))
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	buf.WriteString(k.Message)
	return buf.Bytes(), nil
}

// Get returns the first value for key.
func (k *KVLM) Get(key string) (string, bool) {
	for _, f := range k.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// GetAll returns every value for key in order.
func (k *KVLM) GetAll(key string) []string {
	var out []string
	for _, f := range k.Fields {
		if f.Key == key {
			out = append(out, f.Value)
		}
	}
	return out
}

// Add appends a header.
func (k *KVLM) Add(key, value string) {
	k.Fields = append(k.Fields, Field{Key: key, Value: value})
}

// Set replaces the first value for key and drops the rest, or appends when
// key is absent.
func (k *KVLM) Set(key, value string) {
	replaced := false
	fields := k.Fields[:0]
	for _, f := range k.Fields {
		if f.Key != key {
			fields = append(fields, f)
			continue
		}
		if !replaced {
			fields = append(fields, Field{Key: key, Value: value})
			replaced = true
		}
	}
	k.Fields = fields
	if !replaced {
		k.Add(key, value)
	}
}

// Del removes every header named key.
func (k *KVLM) Del(key string) {
	fields := k.Fields[:0]
	for _, f := range k.Fields {
		if f.Key != key {
			fields = append(fields, f)
		}
	}
	k.Fields = fields
}

// Clone returns a deep copy.
func (k *KVLM) Clone() KVLM {
	out := KVLM{Message: k.Message}
	out.Fields = append([]Field(nil), k.Fields...)
	return out
}
