// Package jsonx provides JSON serialization backed by Sonic.
// Map keys are always emitted in sorted order so that report payloads built
// from identical data encode to identical bytes.
package jsonx

import (
	"bytes"
	"io"

	"github.com/bytedance/sonic"
)

var api = sonic.Config{
	EscapeHTML:  false,
	SortMapKeys: true,
	UseInt64:    true,
}.Froze()

// Marshal returns the JSON encoding of v.
func Marshal(v interface{}) ([]byte, error) {
	return api.Marshal(v)
}

// MarshalIndent is like Marshal but indents the output.
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return api.MarshalIndent(v, prefix, indent)
}

// Unmarshal parses the JSON-encoded data and stores the result in v.
func Unmarshal(data []byte, v interface{}) error {
	return api.Unmarshal(data, v)
}

// MarshalToString is like Marshal but returns the JSON as a string.
func MarshalToString(v interface{}) (string, error) {
	return api.MarshalToString(v)
}

// UnmarshalFromString parses the JSON string and stores the result in v.
func UnmarshalFromString(data string, v interface{}) error {
	return api.UnmarshalFromString(data, v)
}

// Valid reports whether data is a valid JSON encoding.
func Valid(data []byte) bool {
	return api.Valid(data)
}

// Decoder reads a single JSON document from a stream.
type Decoder struct {
	reader io.Reader
	buf    bytes.Buffer
}

// NewDecoder returns a new decoder that reads from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{reader: r}
}

// Decode reads the remaining input and stores the decoded value in v.
func (d *Decoder) Decode(v interface{}) error {
	d.buf.Reset()
	if _, err := io.Copy(&d.buf, d.reader); err != nil {
		return err
	}
	return api.Unmarshal(d.buf.Bytes(), v)
}

// Encoder writes JSON documents, newline terminated, to a stream.
type Encoder struct {
	writer io.Writer
}

// NewEncoder returns a new encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{writer: w}
}

// Encode writes the JSON encoding of v followed by a newline.
func (e *Encoder) Encode(v interface{}) error {
	data, err := api.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = e.writer.Write(data)
	return err
}
