package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-simplefs/internal/types"
	"github.com/deploymenttheory/go-simplefs/pkg/app"
)

// resetFlags restores every flag to its default so runs do not leak into each other
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

// run executes the CLI with args against image and returns what it printed
func run(t *testing.T, image string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--image", image, "--quiet"))

	err := rootCmd.Execute()
	if teardownErr := teardown(); err == nil {
		err = teardownErr
	}
	return out.String(), err
}

func mustRun(t *testing.T, image string, args ...string) string {
	t.Helper()
	out, err := run(t, image, args...)
	require.NoError(t, err, "simplefs %s", strings.Join(args, " "))
	return out
}

func newImage(t *testing.T, blocks string) string {
	t.Helper()
	image := filepath.Join(t.TempDir(), "disk.img")
	mustRun(t, image, "mkimage", "--blocks", blocks)
	mustRun(t, image, "format")
	return image
}

func TestCLI_Session(t *testing.T) {
	image := newImage(t, "20")

	assert.Equal(t, "created inode 1\n", mustRun(t, image, "create"))
	assert.Equal(t, "11 bytes written\n", mustRun(t, image, "write", "1", "hello world"))
	assert.Equal(t, "5 bytes written\n", mustRun(t, image, "write", "1", "HELLO", "--offset", "0"))
	assert.Equal(t, "HELLO world", mustRun(t, image, "cat", "1"))
	assert.Equal(t, "inode 1 has size 11\n", mustRun(t, image, "getsize", "1"))

	dump := mustRun(t, image, "debug")
	assert.Contains(t, dump, "\t20 blocks\n\t2 inode blocks\n\t256 inodes\n")
	assert.Contains(t, dump, "inode 1:\n\tsize: 11 bytes\n\tdirect blocks: 3\n")

	assert.Equal(t, "removed inode 1\n", mustRun(t, image, "delete", "1"))
	_, err := run(t, image, "getsize", "1")
	var common *app.CommonError
	require.ErrorAs(t, err, &common)
	assert.Equal(t, app.ErrCodeInodeNotFound, common.Code)
}

func TestCLI_CopyInOut(t *testing.T) {
	image := newImage(t, "20")
	dir := t.TempDir()

	content := bytes.Repeat([]byte("0123456789abcdef"), types.BlockSize/2)
	src := filepath.Join(dir, "in.bin")
	require.NoError(t, os.WriteFile(src, content, 0o644))

	mustRun(t, image, "create")
	assert.Equal(t, "32768 bytes copied\n", mustRun(t, image, "copyin", src, "1"))
	mustRun(t, image, "copyin", src, "1", "--append")

	dst := filepath.Join(dir, "out.bin")
	mustRun(t, image, "copyout", "1", dst)
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, append(append([]byte{}, content...), content...), got)

	assert.Contains(t, mustRun(t, image, "stat"), "free block bitmap:")
}

func TestCLI_CopyinKeepsTail(t *testing.T) {
	image := newImage(t, "20")
	dir := t.TempDir()

	long := filepath.Join(dir, "long.txt")
	short := filepath.Join(dir, "short.txt")
	require.NoError(t, os.WriteFile(long, []byte("0123456789"), 0o644))
	require.NoError(t, os.WriteFile(short, []byte("abc"), 0o644))

	mustRun(t, image, "create")
	mustRun(t, image, "copyin", long, "1")
	mustRun(t, image, "copyin", short, "1")

	assert.Equal(t, "abc3456789", mustRun(t, image, "cat", "1"))
	assert.Equal(t, "inode 1 has size 10\n", mustRun(t, image, "getsize", "1"))
	assert.Contains(t, copyinCmd.Long, "not truncated")
}

func TestCLI_MkimageLimits(t *testing.T) {
	image := filepath.Join(t.TempDir(), "disk.img")

	for _, args := range [][]string{
		{"mkimage", "--size", "99999999999GB"},
		{"mkimage", "--size", "9000GB"},
		{"mkimage", "--blocks", "4000000000"},
	} {
		_, err := run(t, image, args...)
		var common *app.CommonError
		require.ErrorAs(t, err, &common, "simplefs %s", strings.Join(args, " "))
		assert.Equal(t, app.ErrCodeInvalidInput, common.Code)
	}
	assert.NoFileExists(t, image)

	assert.Equal(t, "created image "+image+" with 256 blocks\n", mustRun(t, image, "mkimage", "--size", "1MB"))
}

func TestCLI_Timeout(t *testing.T) {
	image := newImage(t, "20")
	mustRun(t, image, "create")

	_, err := run(t, image, "write", "1", "late", "--timeout", "1ns")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Equal(t, "inode 1 has size 0\n", mustRun(t, image, "getsize", "1"))
}

func TestCLI_StructuredOutput(t *testing.T) {
	image := newImage(t, "10")

	out := mustRun(t, image, "create", "-o", "json")
	var created map[string]int
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, 1, created["inumber"])

	out = mustRun(t, image, "getsize", "1", "-o", "yaml")
	assert.Contains(t, out, "inumber: 1")
	assert.Contains(t, out, "size: 0")
}

func TestCLI_Errors(t *testing.T) {
	image := newImage(t, "10")

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"bad inumber", []string{"getsize", "abc"}, app.ErrCodeInvalidInput},
		{"zero inumber", []string{"delete", "0"}, app.ErrCodeInvalidInput},
		{"unused inode", []string{"cat", "7"}, app.ErrCodeInodeNotFound},
		{"negative offset", []string{"write", "1", "x", "--offset", "-1"}, app.ErrCodeInvalidInput},
		{"tiny image", []string{"mkimage", "--blocks", "1"}, app.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, image, tt.args...)
			var common *app.CommonError
			require.ErrorAs(t, err, &common)
			assert.Equal(t, tt.code, common.Code)
		})
	}

	_, err := run(t, image, "create", "extra")
	assert.Error(t, err)
}
