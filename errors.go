package devjson

import "errors"

// Errors a call is rejected with before the document is read. Whether they
// reach the caller depends on Config.StrictErrors.
var (
	ErrMissingArguments     = errors.New("not enough args")
	ErrPathNotFound         = errors.New("path does not exist")
	ErrInvalidKeysArgument  = errors.New("keys argument not an array of strings")
	ErrInvalidPatchArgument = errors.New("patch argument not an object")
	ErrEmptyKeysArgument    = errors.New("keys argument is an empty array")
)

// ErrDocumentNotMapping is returned by Insert when the stored document is
// not a JSON object. It is always returned.
var ErrDocumentNotMapping = errors.New("document root is not an object")

func isCallerError(err error) bool {
	for _, target := range []error{
		ErrMissingArguments,
		ErrPathNotFound,
		ErrInvalidKeysArgument,
		ErrInvalidPatchArgument,
		ErrEmptyKeysArgument,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
