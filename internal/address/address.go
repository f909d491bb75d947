// Package address decodes the Avro encoded Address records stored in the info:address column of
// the phonebook table.
package address

import (
	"errors"
	"fmt"

	"github.com/linkedin/goavro/v2"
)

// Schema is the writer schema of the info:address column.
const Schema = `{
  "type": "record",
  "name": "Address",
  "namespace": "org.litetable.phonebook",
  "fields": [
    {"name": "addr1", "type": "string"},
    {"name": "apt",   "type": ["null", "string"], "default": null},
    {"name": "addr2", "type": ["null", "string"], "default": null},
    {"name": "city",  "type": "string"},
    {"name": "state", "type": "string"},
    {"name": "zip",   "type": "string"}
  ]
}`

const avroString = "string"

var (
	ErrMalformed    = errors.New("malformed address record")
	ErrMissingField = errors.New("missing required address field")
)

// Address is a postal address. Apt and Addr2 are optional and nil when absent.
type Address struct {
	Addr1 string
	Apt   *string
	Addr2 *string
	City  string
	State string
	Zip   string
}

// Codec converts between Avro binary and Address values.
type Codec struct {
	codec *goavro.Codec
}

// NewCodec returns a Codec for the default Address schema.
func NewCodec() (*Codec, error) {
	return NewCodecWithSchema(Schema)
}

// NewCodecWithSchema returns a Codec for a compatible Address schema. Upstream producers may
// declare required fields as nullable; Decode still rejects a null required field.
func NewCodecWithSchema(schema string) (*Codec, error) {
	c, err := goavro.NewCodec(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile address schema: %w", err)
	}
	return &Codec{codec: c}, nil
}

// Decode decodes a single Avro binary Address.
func (c *Codec) Decode(raw []byte) (*Address, error) {
	native, rest, err := c.codec.NativeFromBinary(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(rest))
	}

	record, ok := native.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: expected record, got %T", ErrMalformed, native)
	}

	var errs []error
	required := func(name string) string {
		v, ok := stringField(record[name])
		if !ok || v == nil {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingField, name))
			return ""
		}
		return *v
	}
	optional := func(name string) *string {
		v, ok := stringField(record[name])
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s is not a string", ErrMalformed, name))
			return nil
		}
		return v
	}

	addr := &Address{
		Addr1: required("addr1"),
		Apt:   optional("apt"),
		Addr2: optional("addr2"),
		City:  required("city"),
		State: required("state"),
		Zip:   required("zip"),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return addr, nil
}

// Encode encodes an Address as Avro binary using the codec's schema.
func (c *Codec) Encode(a *Address) ([]byte, error) {
	if a == nil {
		return nil, errors.New("address is nil")
	}
	native := map[string]interface{}{
		"addr1": a.Addr1,
		"apt":   union(a.Apt),
		"addr2": union(a.Addr2),
		"city":  a.City,
		"state": a.State,
		"zip":   a.Zip,
	}
	buf, err := c.codec.BinaryFromNative(nil, native)
	if err != nil {
		return nil, fmt.Errorf("failed to encode address: %w", err)
	}
	return buf, nil
}

// stringField unpacks a string or a null|string union. A nil pointer with ok=true is a null.
func stringField(v interface{}) (*string, bool) {
	switch t := v.(type) {
	case nil:
		return nil, true
	case string:
		return &t, true
	case map[string]interface{}:
		inner, exists := t[avroString]
		if !exists {
			return nil, false
		}
		s, ok := inner.(string)
		if !ok {
			return nil, false
		}
		return &s, true
	default:
		return nil, false
	}
}

func union(s *string) interface{} {
	if s == nil {
		return nil
	}
	return goavro.Union(avroString, *s)
}
