package devjson

import (
	"encoding/json"
	"strings"

	"github.com/samber/oops"
)

// KeyPath addresses a value by successive object keys. A nil KeyPath is
// treated as not provided; an empty one addresses the whole document.
type KeyPath []string

// Root addresses the whole document.
var Root = KeyPath{}

// String renders the path for logs, e.g. ["test1","test4"].
func (p KeyPath) String() string {
	if p == nil {
		return "<nil>"
	}
	b, err := json.Marshal([]string(p))
	if err != nil {
		return "[" + strings.Join(p, ",") + "]"
	}
	return string(b)
}

func decodeKeyPath(unmarshal func([]byte, interface{}) error, raw json.RawMessage) (KeyPath, error) {
	var v interface{}
	if err := unmarshal(raw, &v); err != nil {
		return nil, oops.Wrapf(ErrInvalidKeysArgument, "decode: %v", err)
	}
	elems, ok := v.([]interface{})
	if !ok {
		return nil, oops.Wrapf(ErrInvalidKeysArgument, "got %T", v)
	}
	path := make(KeyPath, len(elems))
	for i, elem := range elems {
		key, ok := elem.(string)
		if !ok {
			return nil, oops.Wrapf(ErrInvalidKeysArgument, "key %d is %T", i, elem)
		}
		path[i] = key
	}
	return path, nil
}
