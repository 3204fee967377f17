package devjson

import (
	"context"
	"encoding/json"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"
)

var log = logger.GetGoI2PLogger()

const (
	opRetrieve = "retrieve"
	opInsert   = "insert"
	opDelete   = "delete"
	opDigest   = "digest"
)

// Persist is the interface for reading and replacing the serialized document
// stored under a name.
type Persist interface {
	// Exists reports whether a document object with the given name is present.
	Exists(context.Context, string) (bool, error)
	// Load retrieves the full content stored under the given name.
	Load(context.Context, string) ([]byte, error)
	// Store replaces the full content stored under the given name.
	Store(context.Context, string, []byte) error
}

// Config controls where documents are stored and how failed calls are reported.
type Config struct {
	// StoreWith reads and writes the serialized documents.
	StoreWith Persist

	// StrictErrors returns argument and location errors to the caller.
	// Otherwise they are logged and the call returns zero values.
	StrictErrors bool

	// Indent, if set, pretty-prints written documents with the given
	// per-level indentation. Ignored when Marshal is set.
	Indent string

	// Unmarshal function, defaults to JSON with numbers kept as json.Number
	Unmarshal func([]byte, interface{}) error

	// Marshal function, defaults to compact JSON without HTML escaping
	Marshal func(interface{}) ([]byte, error)
}

// DeleteResult reports the outcome of Delete. Deleted is only meaningful
// when Success is true.
type DeleteResult struct {
	Success bool        `json:"success"`
	Deleted interface{} `json:"deleted,omitempty"`
}

// Operator performs path-addressed operations on JSON documents held by a
// Persist. It keeps no document state between calls; every operation reads
// the whole document and mutating operations write the whole document back.
type Operator struct {
	persist   Persist
	strict    bool
	unmarshal func([]byte, interface{}) error
	marshal   func(interface{}) ([]byte, error)
}

// New returns an Operator over the configured store.
func New(config Config) (*Operator, error) {
	if config.StoreWith == nil {
		return nil, oops.Errorf("no persistence mechanism set; set Config.StoreWith")
	}
	o := Operator{
		persist:   config.StoreWith,
		strict:    config.StrictErrors,
		unmarshal: config.Unmarshal,
		marshal:   config.Marshal,
	}
	if o.unmarshal == nil {
		o.unmarshal = defaultUnmarshal
	}
	if o.marshal == nil {
		o.marshal = jsonMarshaler(config.Indent)
	}
	return &o, nil
}

// NewInMemory returns a strict Operator whose documents live in a fresh
// in-memory store, usually for testing.
func NewInMemory() (*Operator, Persist) {
	store := NewInMemoryStore()
	o, _ := New(Config{StoreWith: store, StrictErrors: true})
	return o, store
}

// Retrieve returns the value reached by descending the document at location
// one key at a time. found is false if a key is absent or null, or a value
// on the way is not an object. An empty, non-nil keys returns the whole document.
func (o *Operator) Retrieve(ctx context.Context, location string, keys KeyPath) (value interface{}, found bool, err error) {
	return o.retrieve(ctx, location, keys != nil, func() (KeyPath, error) {
		return keys, nil
	})
}

// RetrieveJSON is Retrieve with the keys given as a JSON array of strings.
func (o *Operator) RetrieveJSON(ctx context.Context, location string, keys json.RawMessage) (value interface{}, found bool, err error) {
	return o.retrieve(ctx, location, !absent(keys), func() (KeyPath, error) {
		return decodeKeyPath(o.unmarshal, keys)
	})
}

func (o *Operator) retrieve(ctx context.Context, location string, provided bool, keys func() (KeyPath, error)) (interface{}, bool, error) {
	log.WithFields(logger.Fields{"op": opRetrieve, "location": location}).Debug("retrieving")
	err := o.validate(ctx, opRetrieve, location, provided)
	if err != nil {
		return nil, false, o.settle(opRetrieve, location, err)
	}
	path, err := keys()
	if err != nil {
		return nil, false, o.settle(opRetrieve, location, err)
	}
	doc, err := o.load(ctx, location)
	if err != nil {
		return nil, false, o.settle(opRetrieve, location, err)
	}
	value, found := valueAt(doc, path)
	return value, found, nil
}

// Insert deep-merges patch into the document at location and writes the
// result back. Nested objects merge key by key; every other value, arrays
// included, replaces what was there.
func (o *Operator) Insert(ctx context.Context, location string, patch map[string]interface{}) error {
	return o.insert(ctx, location, patch != nil, func() (map[string]interface{}, error) {
		return normalizePatch(o.marshal, o.unmarshal, patch)
	})
}

// InsertJSON is Insert with the patch given as a JSON object.
func (o *Operator) InsertJSON(ctx context.Context, location string, patch json.RawMessage) error {
	return o.insert(ctx, location, !absent(patch), func() (map[string]interface{}, error) {
		return decodePatch(o.unmarshal, patch)
	})
}

func (o *Operator) insert(ctx context.Context, location string, provided bool, patch func() (map[string]interface{}, error)) error {
	log.WithFields(logger.Fields{"op": opInsert, "location": location}).Debug("inserting")
	err := o.validate(ctx, opInsert, location, provided)
	if err != nil {
		return o.settle(opInsert, location, err)
	}
	p, err := patch()
	if err != nil {
		return o.settle(opInsert, location, err)
	}
	doc, err := o.load(ctx, location)
	if err != nil {
		return o.settle(opInsert, location, err)
	}
	root, ok := doc.(map[string]interface{})
	if !ok {
		return o.settle(opInsert, location, oops.Wrapf(ErrDocumentNotMapping, "insert %s: root is %T", location, doc))
	}
	deepMerge(root, p)
	return o.settle(opInsert, location, o.save(ctx, location, root))
}

// Delete removes the value at keys from the document at location and writes
// the document back. An unresolvable path is not an error: the result has
// Success false and the stored document is left alone.
func (o *Operator) Delete(ctx context.Context, location string, keys KeyPath) (DeleteResult, error) {
	return o.delete(ctx, location, keys != nil, func() (KeyPath, error) {
		return keys, nil
	})
}

// DeleteJSON is Delete with the keys given as a JSON array of strings.
func (o *Operator) DeleteJSON(ctx context.Context, location string, keys json.RawMessage) (DeleteResult, error) {
	return o.delete(ctx, location, !absent(keys), func() (KeyPath, error) {
		return decodeKeyPath(o.unmarshal, keys)
	})
}

func (o *Operator) delete(ctx context.Context, location string, provided bool, keys func() (KeyPath, error)) (DeleteResult, error) {
	log.WithFields(logger.Fields{"op": opDelete, "location": location}).Debug("deleting")
	err := o.validate(ctx, opDelete, location, provided)
	if err != nil {
		return DeleteResult{}, o.settle(opDelete, location, err)
	}
	path, err := keys()
	if err != nil {
		return DeleteResult{}, o.settle(opDelete, location, err)
	}
	if len(path) == 0 {
		return DeleteResult{}, o.settle(opDelete, location, oops.Wrapf(ErrEmptyKeysArgument, "delete %s", location))
	}
	doc, err := o.load(ctx, location)
	if err != nil {
		return DeleteResult{}, o.settle(opDelete, location, err)
	}
	trail, ok := findPath(doc, path)
	if !ok {
		log.WithFields(logger.Fields{"location": location, "keys": path.String()}).Debug("nothing to delete")
		return DeleteResult{Success: false}, nil
	}
	root, deleted := removeAndRebuild(trail)
	err = o.save(ctx, location, root)
	if err != nil {
		return DeleteResult{}, o.settle(opDelete, location, err)
	}
	return DeleteResult{Success: true, Deleted: deleted}, nil
}

// Digest returns a base64url blake2b-256 digest of the bytes stored at
// location. Equal digests mean byte-identical documents.
func (o *Operator) Digest(ctx context.Context, location string) (string, error) {
	err := o.validate(ctx, opDigest, location, true)
	if err != nil {
		return "", o.settle(opDigest, location, err)
	}
	digest, err := o.digest(ctx, location)
	return digest, o.settle(opDigest, location, err)
}

// validate checks presence and existence, before anything is read.
func (o *Operator) validate(ctx context.Context, op, location string, provided bool) error {
	if location == "" || !provided {
		return oops.Wrapf(ErrMissingArguments, "%s", op)
	}
	exists, err := o.persist.Exists(ctx, location)
	if err != nil {
		return oops.Wrapf(err, "%s %s: exists", op, location)
	}
	if !exists {
		return oops.Wrapf(ErrPathNotFound, "%s %s", op, location)
	}
	return nil
}

// settle applies the error-visibility mode. Unexpected errors are always
// logged and returned.
func (o *Operator) settle(op, location string, err error) error {
	if err == nil {
		return nil
	}
	fields := logger.Fields{"op": op, "location": location}
	if !isCallerError(err) {
		log.WithError(err).WithFields(fields).Error("unexpected error")
		return err
	}
	if o.strict {
		log.WithError(err).WithFields(fields).Debug("rejected call")
		return err
	}
	log.WithError(err).WithFields(fields).Warn("ignoring rejected call")
	return nil
}
