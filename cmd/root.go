package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deploymenttheory/go-simplefs/internal/config"
	"github.com/deploymenttheory/go-simplefs/pkg/app"
	"github.com/deploymenttheory/go-simplefs/pkg/services"
)

var (
	// Global flags
	cfgFile      string
	imagePath    string
	verbose      bool
	quiet        bool
	outputFormat string
	logLevel     string
	logFormat    string
	timeout      time.Duration

	settings = config.New()
)

// session is the state shared by one command invocation
type session struct {
	cfg     *config.Config
	ctx     *app.Context
	factory *services.ServiceFactory
	cancel  context.CancelFunc
}

var current *session

var rootCmd = &cobra.Command{
	Use:   "simplefs",
	Short: "Inode file system on a disk image",
	Long: `simplefs manages a small inode based file system stored in a disk image.

The image is split into 4096-byte blocks: a superblock, an inode table sized
to a tenth of the device, and data blocks. Files are named by inode number.

Commands:
  mkimage     Create an empty disk image
  format      Write a fresh file system onto the image
  debug       Dump the superblock and every inode in use
  create      Create an empty file and print its inode number
  delete      Delete a file
  getsize     Print the size of a file
  cat         Print the contents of a file
  copyin      Copy a host file into a file
  copyout     Copy a file out to the host
  write       Write text into a file at an offset
  stat        Show free space and block I/O counters`,
	Version:           "0.1.0-dev",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return teardown()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if teardownErr := teardown(); err == nil {
		err = teardownErr
	}
	if err != nil {
		var common *app.CommonError
		if errors.As(err, &common) {
			fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", common.Code, err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: simplefs-config.yaml on the search path)")
	flags.StringVarP(&imagePath, "image", "i", config.DefaultImage, "path to the disk image")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
	flags.StringVarP(&outputFormat, "output", "o", config.DefaultOutput, "output format (table, json, yaml)")
	flags.StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&logFormat, "log-format", config.DefaultLogFormat, "log format (text, json)")
	flags.DurationVar(&timeout, "timeout", 0, "abort the command after this long (0 for no limit)")

	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	bindFlags(settings, map[string]string{
		"image":      "image",
		"output":     "output",
		"log_level":  "log-level",
		"log_format": "log-format",
		"timeout":    "timeout",
	})
}

// bindFlags connects config keys to persistent flags so an explicit flag wins over file and env
func bindFlags(v *viper.Viper, keys map[string]string) {
	for key, flag := range keys {
		if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", flag, err))
		}
	}
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(settings, cfgFile)
	if err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "failed to load configuration", err)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "failed to configure logging", err)
	}
	logger.SetOutput(os.Stderr)
	switch {
	case quiet:
		logger.SetLevel(logrus.ErrorLevel)
	case verbose && logger.GetLevel() < logrus.InfoLevel:
		logger.SetLevel(logrus.InfoLevel)
	}

	base := app.NewContext()
	base.OutputFormat = cfg.Output
	base.Verbose = verbose
	base.Quiet = quiet
	base.Out = cmd.OutOrStdout()
	base.Logger = logger
	base.DefaultTimeout = cfg.Timeout

	var ctx *app.Context
	var cancel context.CancelFunc
	if base.DefaultTimeout > 0 {
		ctx, cancel = base.WithTimeout(base.DefaultTimeout)
	} else {
		ctx, cancel = base.WithCancel()
	}
	ctx.SetProgress(func(message string, percent int) {
		ctx.Log(fmt.Sprintf("%3d%% %s", percent, message))
	})
	cancelOnInterrupt(ctx, cancel)

	current = &session{
		cfg:     cfg,
		ctx:     ctx,
		factory: services.NewServiceFactory(logger, cfg.Device),
		cancel:  cancel,
	}
	return nil
}

// cancelOnInterrupt cancels ctx on the first interrupt signal
func cancelOnInterrupt(ctx context.Context, cancel context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)
	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()
}

func teardown() error {
	if current == nil {
		return nil
	}
	s := current
	current = nil
	s.cancel()
	return s.factory.Shutdown()
}

// filesystemService returns the file system service of the current invocation
func filesystemService() (services.FilesystemService, error) {
	return current.factory.FilesystemService()
}

// imageService returns the image service of the current invocation
func imageService() (services.ImageService, error) {
	return current.factory.ImageService()
}
