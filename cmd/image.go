package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-simplefs/internal/types"
	"github.com/deploymenttheory/go-simplefs/pkg/app"
	"github.com/deploymenttheory/go-simplefs/pkg/app/inspect"
)

var (
	mkimageBlocks uint32
	mkimageSize   string
	debugInumber  int
)

var mkimageCmd = &cobra.Command{
	Use:   "mkimage",
	Short: "Create an empty disk image",
	Long: `Create (or truncate) the disk image with zeroed blocks.

Examples:
  # 200 blocks, or the "blocks" setting of the config file
  simplefs mkimage --image disk.img

  # Size given in bytes, rounded down to whole blocks
  simplefs mkimage --image disk.img --size 4MB`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMkimage(cmd)
	},
}

var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Write a fresh file system onto the image",
	Long: `Write a new superblock and an empty inode table.

Every existing file becomes unreachable. Data blocks are not erased.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFormat()
	},
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dump the superblock and every inode in use",
	Long: `Print the superblock and, for each inode in use, its size, direct blocks,
indirect block and indirect data blocks. Works on unmounted images.

Examples:
  simplefs debug --image disk.img
  simplefs debug --image disk.img --inode 3 -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDebug()
	},
}

var statCmd = &cobra.Command{
	Use:   "stat",
	Short: "Show free space and block I/O counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStat()
	},
}

func init() {
	rootCmd.AddCommand(mkimageCmd, formatCmd, debugCmd, statCmd)

	mkimageCmd.Flags().Uint32VarP(&mkimageBlocks, "blocks", "b", 0, "image size in blocks")
	mkimageCmd.Flags().StringVar(&mkimageSize, "size", "", "image size in bytes (4MB, 800KB)")
	mkimageCmd.MarkFlagsMutuallyExclusive("blocks", "size")

	debugCmd.Flags().IntVar(&debugInumber, "inode", 0, "only show this inode")
}

func runMkimage(cmd *cobra.Command) error {
	ctx := current.ctx

	blocks := current.cfg.Blocks
	switch {
	case cmd.Flags().Changed("blocks"):
		blocks = mkimageBlocks
	case mkimageSize != "":
		size, err := app.ParseSize(mkimageSize)
		if err != nil {
			return app.NewError(app.ErrCodeInvalidInput, "invalid image size", err)
		}
		if size/types.BlockSize > types.MaxBlocks {
			return app.NewError(app.ErrCodeInvalidInput, fmt.Sprintf("image size %s exceeds %d blocks", mkimageSize, types.MaxBlocks), nil)
		}
		blocks = uint32(size / types.BlockSize)
	}
	if blocks > types.MaxBlocks {
		return app.NewError(app.ErrCodeInvalidInput, fmt.Sprintf("image of %d blocks exceeds %d blocks", blocks, types.MaxBlocks), nil)
	}
	if blocks < 2 {
		return app.NewError(app.ErrCodeInvalidInput, fmt.Sprintf("image needs at least 2 blocks, got %d", blocks), nil)
	}

	images, err := imageService()
	if err != nil {
		return err
	}
	if err := images.CreateImage(ctx, current.cfg.Image, blocks); err != nil {
		return app.NewError(app.ErrCodeImageAccess, "failed to create image", err)
	}

	result := map[string]any{"image": current.cfg.Image, "blocks": blocks}
	return printResult(ctx, result, fmt.Sprintf("created image %s with %d blocks", current.cfg.Image, blocks))
}

func runFormat() error {
	ctx := current.ctx

	fsSvc, err := filesystemService()
	if err != nil {
		return err
	}
	if err := fsSvc.Format(ctx, current.cfg.Image); err != nil {
		return app.WrapFSError("format failed", err)
	}

	ctx.Log(fmt.Sprintf("Formatted %s", current.cfg.Image))
	return printResult(ctx, map[string]any{"image": current.cfg.Image, "formatted": true}, "disk formatted.")
}

func runDebug() error {
	ctx := current.ctx

	fsSvc, err := filesystemService()
	if err != nil {
		return err
	}

	request := &inspect.Request{
		Target: app.ImageTarget{
			ImagePath: current.cfg.Image,
			Inumber:   types.Inumber(debugInumber),
		},
	}

	response, err := inspect.Handle(ctx, fsSvc, request)
	if err != nil {
		return err
	}

	ctx.Log(inspect.FormatSummary(response))
	return inspect.FormatOutput(ctx.Out, response, ctx.OutputFormat)
}

func runStat() error {
	ctx := current.ctx

	fsSvc, err := filesystemService()
	if err != nil {
		return err
	}
	stats, err := fsSvc.Stat(ctx, current.cfg.Image)
	if err != nil {
		return app.WrapFSError("stat failed", err)
	}
	return inspect.FormatStats(ctx.Out, stats, ctx.OutputFormat)
}
