package devjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/samber/oops"
)

// defaultUnmarshal decodes a single JSON value, keeping numbers as
// json.Number so they are written back exactly as read.
func defaultUnmarshal(b []byte, v interface{}) error {
	d := json.NewDecoder(bytes.NewReader(b))
	d.UseNumber()
	if err := d.Decode(v); err != nil {
		return err
	}
	if _, err := d.Token(); !errors.Is(err, io.EOF) {
		return errors.New("invalid character after top-level value")
	}
	return nil
}

// jsonMarshaler encodes without HTML escaping and without a trailing newline.
func jsonMarshaler(indent string) func(interface{}) ([]byte, error) {
	return func(v interface{}) ([]byte, error) {
		var buf bytes.Buffer
		e := json.NewEncoder(&buf)
		e.SetEscapeHTML(false)
		if indent != "" {
			e.SetIndent("", indent)
		}
		if err := e.Encode(v); err != nil {
			return nil, err
		}
		return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
	}
}

// absent reports whether a raw argument was left out: no bytes, or null.
func absent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodePatch(unmarshal func([]byte, interface{}) error, raw json.RawMessage) (map[string]interface{}, error) {
	var v interface{}
	if err := unmarshal(raw, &v); err != nil {
		return nil, oops.Wrapf(ErrInvalidPatchArgument, "decode: %v", err)
	}
	patch, ok := asMapping(v)
	if !ok {
		return nil, oops.Wrapf(ErrInvalidPatchArgument, "got %T", v)
	}
	return patch, nil
}

// normalizePatch round-trips a caller's patch through the codec, so the
// merge works on a private copy made only of decoded JSON values.
func normalizePatch(marshal func(interface{}) ([]byte, error), unmarshal func([]byte, interface{}) error, patch map[string]interface{}) (map[string]interface{}, error) {
	b, err := marshal(nilObjectsAsEmpty(patch))
	if err != nil {
		return nil, oops.Wrapf(ErrInvalidPatchArgument, "encode: %v", err)
	}
	return decodePatch(unmarshal, b)
}

// nilObjectsAsEmpty copies v with every nil map replaced by an empty one, so a
// nil nested object in a typed patch merges as {} instead of encoding as null.
func nilObjectsAsEmpty(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		c := make(map[string]interface{}, len(t))
		for k, child := range t {
			c[k] = nilObjectsAsEmpty(child)
		}
		return c
	case []interface{}:
		if t == nil {
			return t
		}
		c := make([]interface{}, len(t))
		for i, child := range t {
			c[i] = nilObjectsAsEmpty(child)
		}
		return c
	default:
		return v
	}
}
