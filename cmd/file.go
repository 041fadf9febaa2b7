package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-simplefs/pkg/app"
)

var (
	copyinAppend bool
	writeOffset  int64
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an empty file and print its inode number",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCreate()
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <inumber>",
	Short: "Delete a file and release its blocks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDelete(args[0])
	},
}

var getsizeCmd = &cobra.Command{
	Use:   "getsize <inumber>",
	Short: "Print the size of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGetsize(args[0])
	},
}

var catCmd = &cobra.Command{
	Use:   "cat <inumber>",
	Short: "Print the contents of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCat(args[0])
	},
}

var copyinCmd = &cobra.Command{
	Use:   "copyin <host-file> <inumber>",
	Short: "Copy a host file into a file",
	Long: `Copy a host file into a file, starting at offset 0.

The file is not truncated first: copying a shorter host file over a longer
file replaces only the leading bytes and keeps the old tail and size. Delete
and create the file to replace it completely.

With --append the data is written after the current end of the file.

Examples:
  simplefs copyin ./notes.txt 1 --image disk.img
  simplefs copyin ./more.txt 1 --append`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCopyin(args[0], args[1])
	},
}

var copyoutCmd = &cobra.Command{
	Use:   "copyout <inumber> <host-file>",
	Short: "Copy a file out to the host",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCopyout(args[0], args[1])
	},
}

var writeCmd = &cobra.Command{
	Use:   "write <inumber> <text>",
	Short: "Write text into a file at an offset",
	Long: `Write text into a file. The offset may be anywhere up to the current size;
bytes past the end extend the file.

Examples:
  simplefs write 1 "hello world"
  simplefs write 1 "HELLO" --offset 0`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWrite(args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(createCmd, deleteCmd, getsizeCmd, catCmd, copyinCmd, copyoutCmd, writeCmd)

	copyinCmd.Flags().BoolVar(&copyinAppend, "append", false, "append to the end of the file")
	writeCmd.Flags().Int64Var(&writeOffset, "offset", 0, "byte offset to write at")
}

func runCreate() error {
	ctx := current.ctx

	fsSvc, err := filesystemService()
	if err != nil {
		return err
	}
	inumber, err := fsSvc.Create(ctx, current.cfg.Image)
	if err != nil {
		return app.WrapFSError("create failed", err)
	}
	return printResult(ctx, map[string]any{"inumber": inumber}, fmt.Sprintf("created inode %d", inumber))
}

func runDelete(arg string) error {
	ctx := current.ctx

	inumber, err := parseInumber(arg)
	if err != nil {
		return err
	}
	fsSvc, err := filesystemService()
	if err != nil {
		return err
	}
	if err := fsSvc.Delete(ctx, current.cfg.Image, inumber); err != nil {
		return app.WrapFSError(fmt.Sprintf("delete of inode %d failed", inumber), err)
	}
	return printResult(ctx, map[string]any{"inumber": inumber, "deleted": true}, fmt.Sprintf("removed inode %d", inumber))
}

func runGetsize(arg string) error {
	ctx := current.ctx

	inumber, err := parseInumber(arg)
	if err != nil {
		return err
	}
	fsSvc, err := filesystemService()
	if err != nil {
		return err
	}
	info, err := fsSvc.GetFileInfo(ctx, current.cfg.Image, inumber)
	if err != nil {
		return app.WrapFSError(fmt.Sprintf("getsize of inode %d failed", inumber), err)
	}
	return printResult(ctx, info, fmt.Sprintf("inode %d has size %d", info.Inumber, info.Size))
}

func runCat(arg string) error {
	ctx := current.ctx

	inumber, err := parseInumber(arg)
	if err != nil {
		return err
	}
	fsSvc, err := filesystemService()
	if err != nil {
		return err
	}
	n, err := fsSvc.ReadFile(ctx, current.cfg.Image, inumber, ctx.Out)
	if err != nil {
		return app.WrapFSError(fmt.Sprintf("cat of inode %d failed", inumber), err)
	}
	ctx.Log(fmt.Sprintf("%d bytes read from inode %d", n, inumber))
	return nil
}

func runCopyin(hostPath, arg string) error {
	ctx := current.ctx

	inumber, err := parseInumber(arg)
	if err != nil {
		return err
	}
	fsSvc, err := filesystemService()
	if err != nil {
		return err
	}

	src, err := os.Open(hostPath)
	if err != nil {
		return app.NewError(app.ErrCodeInvalidInput, fmt.Sprintf("cannot open %s", hostPath), err)
	}
	defer src.Close()

	var offset int64
	if copyinAppend {
		info, err := fsSvc.GetFileInfo(ctx, current.cfg.Image, inumber)
		if err != nil {
			return app.WrapFSError(fmt.Sprintf("copyin to inode %d failed", inumber), err)
		}
		offset = info.Size
	}

	n, err := fsSvc.WriteFile(ctx, current.cfg.Image, inumber, src, offset)
	if err != nil {
		// the service keeps the bytes that fit; report them before failing
		ctx.Error(fmt.Sprintf("%d bytes copied to inode %d before the error", n, inumber))
		return app.WrapFSError(fmt.Sprintf("copyin to inode %d failed", inumber), err)
	}

	result := map[string]any{"inumber": inumber, "offset": offset, "bytes": n}
	return printResult(ctx, result, fmt.Sprintf("%d bytes copied", n))
}

func runCopyout(arg, hostPath string) error {
	ctx := current.ctx

	inumber, err := parseInumber(arg)
	if err != nil {
		return err
	}
	fsSvc, err := filesystemService()
	if err != nil {
		return err
	}

	dst, err := os.Create(hostPath)
	if err != nil {
		return app.NewError(app.ErrCodeInvalidInput, fmt.Sprintf("cannot create %s", hostPath), err)
	}

	n, err := fsSvc.ReadFile(ctx, current.cfg.Image, inumber, dst)
	if closeErr := dst.Close(); err == nil && closeErr != nil {
		return app.NewError(app.ErrCodeIO, fmt.Sprintf("cannot write %s", hostPath), closeErr)
	}
	if err != nil {
		return app.WrapFSError(fmt.Sprintf("copyout of inode %d failed", inumber), err)
	}

	result := map[string]any{"inumber": inumber, "path": hostPath, "bytes": n}
	return printResult(ctx, result, fmt.Sprintf("%d bytes copied", n))
}

func runWrite(arg, text string) error {
	ctx := current.ctx

	inumber, err := parseInumber(arg)
	if err != nil {
		return err
	}
	if writeOffset < 0 {
		return app.NewError(app.ErrCodeInvalidInput, fmt.Sprintf("offset must not be negative, got %d", writeOffset), nil)
	}
	fsSvc, err := filesystemService()
	if err != nil {
		return err
	}

	n, err := fsSvc.WriteFile(ctx, current.cfg.Image, inumber, strings.NewReader(text), writeOffset)
	if err != nil {
		return app.WrapFSError(fmt.Sprintf("write to inode %d failed", inumber), err)
	}
	result := map[string]any{"inumber": inumber, "offset": writeOffset, "bytes": n}
	return printResult(ctx, result, fmt.Sprintf("%d bytes written", n))
}
