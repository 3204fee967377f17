/*
Package devjson provides path-addressed reads, deep-merging writes, and
deletes against a JSON document kept as a single object in a backing
store, such as a file, an S3 object, or an in-memory map. It is meant as a
lightweight embedded configuration or data store: callers name a nested
value by an ordered list of keys instead of loading and editing the whole
document themselves.

Operations

Retrieve descends the document one key at a time. A missing key, or a key
looked up in something that is not an object, reports found=false rather
than an error.

Insert deep-merges a patch object into the document. Objects present on
both sides merge key by key; arrays and primitives in the patch replace
whatever was there, so arrays are never merged element-wise.

Delete removes the value at a key path and reports it. The objects along
the path are rebuilt as new maps from the bottom up, so nothing outside
the path is touched. Deleting a path that does not resolve returns
Success=false and leaves the stored document as it was.

Storage

Every call reads the whole document, and Insert and a successful Delete
write the whole document back. Nothing is cached between calls. There is
no locking either: two writers racing on one document each read, modify
and write, and the last write wins. Callers that need several operations
to apply atomically must serialize them themselves.

Backends implement Persist. NewInMemoryStore keeps documents in a map;
subpackages persist/file and persist/s3 keep them in a directory and in
an S3 bucket.

Errors

Calls with missing or malformed arguments, or naming a document that does
not exist, are rejected before anything is read. With
Config.StrictErrors they are returned, matching ErrMissingArguments,
ErrPathNotFound, ErrInvalidKeysArgument, ErrInvalidPatchArgument, or
ErrEmptyKeysArgument under errors.Is. Without it they are logged and the
call returns zero values. Storage failures and unparseable documents are
always returned.
*/
package devjson
