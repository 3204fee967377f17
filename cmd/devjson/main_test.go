package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jrhy/devjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	stdout string
	stderr string
	err    error
}

func run(t *testing.T, dir string, stdin string, args ...string) result {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--dir", dir}, args...))
	err := cmd.Execute()
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, run(t, dir, "", "init", "doc.json").err)
	require.NoError(t, run(t, dir, "", "merge", "doc.json", `{"a":{"b":1,"c":"x"}}`).err)

	r := run(t, dir, "", "get", "doc.json", "a", "b")
	require.NoError(t, r.err)
	assert.Equal(t, "1\n", r.stdout)

	r = run(t, dir, "", "get", "doc.json")
	require.NoError(t, r.err)
	assert.Equal(t, `{"a":{"b":1,"c":"x"}}`+"\n", r.stdout)

	r = run(t, dir, "", "delete", "doc.json", "a", "c")
	require.NoError(t, r.err)
	assert.Equal(t, `{"success":true,"deleted":"x"}`+"\n", r.stdout)

	stored, err := os.ReadFile(filepath.Join(dir, "doc.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"b":1}}`, string(stored))

	r = run(t, dir, "", "digest", "doc.json")
	require.NoError(t, r.err)
	assert.NotEmpty(t, strings.TrimSpace(r.stdout))
}

func TestInitKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.json"), []byte(`{"a":1}`), 0o644))
	require.NoError(t, run(t, dir, "", "init", "doc.json").err)
	r := run(t, dir, "", "get", "doc.json", "a")
	require.NoError(t, r.err)
	assert.Equal(t, "1\n", r.stdout)
}

func TestGetNotFound(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.json"), []byte(`{"a":1}`), 0o644))
	r := run(t, dir, "", "get", "doc.json", "b")
	assert.ErrorIs(t, r.err, errNotFound)
	assert.Contains(t, r.stderr, "not found")
	assert.Empty(t, r.stdout)
}

func TestKeysFlag(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.json"), []byte(`{"a b":{"c":true}}`), 0o644))
	r := run(t, dir, "", "get", "doc.json", "--keys", `["a b","c"]`)
	require.NoError(t, r.err)
	assert.Equal(t, "true\n", r.stdout)

	r = run(t, dir, "", "get", "doc.json", "--keys", `"a b"`)
	assert.ErrorIs(t, r.err, devjson.ErrInvalidKeysArgument)

	r = run(t, dir, "", "delete", "doc.json", "--keys", `[]`)
	assert.ErrorIs(t, r.err, devjson.ErrEmptyKeysArgument)
}

func TestMergeFromStdin(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, run(t, dir, "", "init", "new.json").err)
	require.NoError(t, run(t, dir, `{"x":[1,2]}`, "merge", "new.json", "-").err)
	r := run(t, dir, "", "get", "new.json", "x")
	require.NoError(t, r.err)
	assert.Equal(t, "[1,2]\n", r.stdout)
}

func TestMergeRejectsNonObject(t *testing.T) {
	dir := t.TempDir()
	r := run(t, dir, "", "merge", "doc.json", `{}`)
	assert.ErrorIs(t, r.err, devjson.ErrPathNotFound)

	require.NoError(t, run(t, dir, "", "init", "doc.json").err)
	r = run(t, dir, "", "merge", "doc.json", `[1]`)
	assert.ErrorIs(t, r.err, devjson.ErrInvalidPatchArgument)
}

func TestStrictByDefault(t *testing.T) {
	r := run(t, t.TempDir(), "", "delete", "missing.json", "a")
	assert.ErrorIs(t, r.err, devjson.ErrPathNotFound)
}

func TestLenientOutsideDevelopment(t *testing.T) {
	t.Setenv("DEVJSON_ENV", "production")
	r := run(t, t.TempDir(), "", "delete", "missing.json", "a")
	require.NoError(t, r.err)
	assert.Equal(t, `{"success":false}`+"\n", r.stdout)
	assert.Contains(t, r.stderr, "nothing deleted")
}

func TestStrictFlagWins(t *testing.T) {
	t.Setenv("DEVJSON_ENV", "production")
	r := run(t, t.TempDir(), "", "--strict", "delete", "missing.json", "a")
	assert.ErrorIs(t, r.err, devjson.ErrPathNotFound)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "devjson.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("strict: false\nindent: \"  \"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.json"), []byte(`{}`), 0o644))

	// lenient: the rejected lookup reads as absent
	r := run(t, dir, "", "--config", cfg, "get", "missing.json")
	assert.ErrorIs(t, r.err, errNotFound)

	require.NoError(t, run(t, dir, "", "--config", cfg, "merge", "doc.json", `{"a":1}`).err)
	stored, err := os.ReadFile(filepath.Join(dir, "doc.json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", string(stored))
}

func TestUnknownBackend(t *testing.T) {
	r := run(t, t.TempDir(), "", "--backend", "ftp", "get", "doc.json")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "unknown backend")
}

func TestS3BackendNeedsBucket(t *testing.T) {
	r := run(t, t.TempDir(), "", "--backend", "s3", "get", "doc.json")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "bucket")
}
