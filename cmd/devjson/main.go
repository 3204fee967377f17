// Command devjson reads, merges into, and deletes from JSON documents by
// key path. Documents live in a directory or in an S3 bucket.
//
//	devjson init settings.json
//	devjson merge settings.json '{"server":{"port":8080}}'
//	devjson get settings.json server port
//	devjson delete settings.json server port
package main

import (
	"errors"
	"os"

	"github.com/fatih/color"
	"github.com/go-i2p/logger"
)

var log = logger.GetGoI2PLogger()

func main() {
	err := newRootCommand().Execute()
	if err == nil {
		return
	}
	// get has already said so
	if !errors.Is(err, errNotFound) {
		color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(1)
}
