package devjson

import (
	"bytes"
	"context"
	"encoding/base64"

	"github.com/go-i2p/logger"
	"github.com/minio/blake2b-simd"
	"github.com/samber/oops"
)

// load reads and parses the whole document. Empty content is an empty object.
func (o *Operator) load(ctx context.Context, location string) (interface{}, error) {
	b, err := o.persist.Load(ctx, location)
	if err != nil {
		return nil, oops.Wrapf(err, "persist load %s", location)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return map[string]interface{}{}, nil
	}
	var doc interface{}
	err = o.unmarshal(b, &doc)
	if err != nil {
		return nil, oops.Wrapf(err, "unmarshaling %s", location)
	}
	log.WithFields(logger.Fields{"location": location, "bytes": len(b)}).Debug("loaded document")
	return doc, nil
}

// save replaces the stored document with doc.
func (o *Operator) save(ctx context.Context, location string, doc interface{}) error {
	encoded, err := o.marshal(doc)
	if err != nil {
		return oops.Wrapf(err, "marshal %s", location)
	}
	err = o.persist.Store(ctx, location, encoded)
	if err != nil {
		return oops.Wrapf(err, "persist store %s", location)
	}
	log.WithFields(logger.Fields{"location": location, "bytes": len(encoded)}).Debug("stored document")
	return nil
}

func (o *Operator) digest(ctx context.Context, location string) (string, error) {
	b, err := o.persist.Load(ctx, location)
	if err != nil {
		return "", oops.Wrapf(err, "persist load %s", location)
	}
	hashBytes := blake2b.Sum256(b)
	return base64.RawURLEncoding.EncodeToString(hashBytes[:]), nil
}
