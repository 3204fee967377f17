package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/go-i2p/logger"
	"github.com/jrhy/devjson"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var errNotFound = errors.New("not found")

type app struct {
	v        *viper.Viper
	cfgFile  string
	settings Settings
	backend  backend
	op       *devjson.Operator
}

func newRootCommand() *cobra.Command {
	a := &app{v: viper.New()}
	root := &cobra.Command{
		Use:           "devjson",
		Short:         "Read, merge into, and delete from JSON documents by key path",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (yaml, json or toml)")
	pf.Bool("strict", false, "report rejected calls as errors (default: only when env is development)")
	pf.String("backend", "file", "storage backend: file or s3")
	pf.String("dir", ".", "directory that file document names are relative to")
	pf.String("indent", "", "indentation used when writing documents")
	pf.String("s3-bucket", "", "bucket holding documents for the s3 backend")
	pf.String("s3-prefix", "", "key prefix for documents in the bucket")
	pf.String("s3-endpoint", "", "S3-compatible endpoint URL")
	pf.String("s3-region", "us-east-1", "AWS region")

	root.AddCommand(
		a.getCommand(),
		a.mergeCommand(),
		a.deleteCommand(),
		a.digestCommand(),
		a.initCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	err := initConfig(a.v, cmd.Flags(), a.cfgFile)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.settings = newSettingsFromViper(a.v)
	log.WithFields(logger.Fields{
		"env":     a.settings.Env,
		"strict":  a.settings.Strict,
		"backend": a.settings.Backend,
	}).Debug("resolved settings")
	a.backend, err = newBackend(a.settings)
	if err != nil {
		return err
	}
	a.op, err = newOperator(a.settings, a.backend)
	return err
}

func (a *app) getCommand() *cobra.Command {
	var rawKeys string
	cmd := &cobra.Command{
		Use:   "get <location> [key...]",
		Short: "Print the value at a key path; no keys prints the whole document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				v     interface{}
				found bool
				err   error
			)
			if rawKeys != "" {
				v, found, err = a.op.RetrieveJSON(cmd.Context(), args[0], json.RawMessage(rawKeys))
			} else {
				v, found, err = a.op.Retrieve(cmd.Context(), args[0], devjson.KeyPath(args[1:]))
			}
			if err != nil {
				return err
			}
			if !found {
				color.New(color.FgYellow).Fprintln(cmd.ErrOrStderr(), "not found")
				return errNotFound
			}
			return a.print(cmd.OutOrStdout(), v)
		},
	}
	cmd.Flags().StringVar(&rawKeys, "keys", "", "key path as a JSON array, instead of positional keys")
	return cmd
}

func (a *app) mergeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <location> <patch-json|->",
		Short: "Deep-merge a JSON object into the document; - reads it from stdin",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := []byte(args[1])
			if args[1] == "-" {
				var err error
				patch, err = io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read patch: %w", err)
				}
			}
			return a.op.InsertJSON(cmd.Context(), args[0], json.RawMessage(patch))
		},
	}
}

func (a *app) deleteCommand() *cobra.Command {
	var rawKeys string
	cmd := &cobra.Command{
		Use:   "delete <location> [key...]",
		Short: "Remove the value at a key path and print what was removed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				res devjson.DeleteResult
				err error
			)
			if rawKeys != "" {
				res, err = a.op.DeleteJSON(cmd.Context(), args[0], json.RawMessage(rawKeys))
			} else {
				res, err = a.op.Delete(cmd.Context(), args[0], devjson.KeyPath(args[1:]))
			}
			if err != nil {
				return err
			}
			if !res.Success {
				color.New(color.FgYellow).Fprintln(cmd.ErrOrStderr(), "nothing deleted")
			}
			return a.print(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&rawKeys, "keys", "", "key path as a JSON array, instead of positional keys")
	return cmd
}

func (a *app) digestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "digest <location>",
		Short: "Print a blake2b digest of the stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			digest, err := a.op.Digest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if digest != "" {
				fmt.Fprintln(cmd.OutOrStdout(), digest)
			}
			return nil
		},
	}
}

func (a *app) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init <location>",
		Short: "Create an empty document if it does not exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.backend.Create(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "initialized %s\n", args[0])
			return nil
		},
	}
}

func (a *app) print(w io.Writer, v interface{}) error {
	var (
		b   []byte
		err error
	)
	if a.settings.Indent != "" {
		b, err = json.MarshalIndent(v, "", a.settings.Indent)
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
