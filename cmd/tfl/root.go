package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/i-doll/tfl/internal/app"
	"github.com/i-doll/tfl/internal/config"
	"github.com/i-doll/tfl/internal/logging"
)

// version is set with -ldflags "-X main.version=..." at release time.
var version = "dev"

type rootOptions struct {
	all        bool
	configPath string
	init       bool
	force      bool
	logFile    string
	logLevel   string
}

// newRootCmd builds the tfl command.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "tfl [path]",
		Short: "A terminal file browser with a live preview",
		Long: `tfl shows a directory as an expandable tree next to a preview of the
selected entry. Keys are vim-like and can be rebound in config.yaml.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args)
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.all, "all", "a", false, "show hidden files")
	flags.StringVar(&opts.configPath, "config", "", "config file (default is <config dir>/tfl/config.yaml)")
	flags.BoolVar(&opts.init, "init", false, "write the default config file and exit")
	flags.BoolVar(&opts.force, "force", false, "overwrite an existing config file with --init")
	flags.StringVar(&opts.logFile, "log-file", "", `log file ("-" disables logging)`)
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	return cmd
}

func (o *rootOptions) run(cmd *cobra.Command, args []string) error {
	cfgPath := o.configPath
	if cfgPath == "" {
		path, err := config.DefaultPath()
		if err != nil && o.init {
			return err
		}
		cfgPath = path
	}

	if o.init {
		if err := config.Init(cfgPath, o.force); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", cfgPath)
		return nil
	}

	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if o.all {
		cfg.ShowHidden = true
	}
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return errNotTerminal
	}

	if err := logging.Init(o.loggingConfig(cfg)); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: logging disabled: %v\n", err)
	}
	defer func() {
		_ = logging.Sync()
	}()

	root := ""
	if len(args) > 0 {
		root = args[0]
	}
	application, err := app.New(app.Options{
		Root:       root,
		Config:     cfg,
		ConfigPath: cfgPath,
		Logger:     logging.Named("app"),
	})
	if err != nil {
		logging.Error("startup failed", zap.Error(err))
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		_ = application.Close()
	}()

	application.Run()
	logging.Info("exit", logging.String("root", application.Root()))
	return nil
}

var errNotTerminal = errors.New("tfl must be run in an interactive terminal")

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// loggingConfig merges the log flags over the config file's log section.
func (o *rootOptions) loggingConfig(cfg *config.Config) logging.Config {
	lc := logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		OutputPath: cfg.Log.File,
	}
	if o.logLevel != "" {
		lc.Level = o.logLevel
	}
	if o.logFile != "" {
		lc.OutputPath = o.logFile
	}
	return lc
}
