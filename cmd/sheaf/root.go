package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"

	"github.com/aretw0/sheaf"
	"github.com/aretw0/sheaf/internal/config"
)

var (
	verbose     bool
	configPath  string
	storePath   string
	adapterName string

	cfg    *config.Config
	zlog   *zap.Logger
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sheaf",
	Short: "Notes made of collapsible sections, with undo",
	Long: `Sheaf keeps notes as stacks of titled, collapsible sections.
Every change is persisted immediately; the edit shell adds undo and redo.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = c

		zl, err := newZapLogger(cfg.Log, verbose)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		zlog = zl
		logger = slog.New(zapslog.NewHandler(zl.Core()))
		slog.SetDefault(logger)

		if cfg.File != "" {
			logger.Debug("config loaded", "file", cfg.File)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if zlog != nil {
			_ = zlog.Sync()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fatal("Error", err)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./sheaf.yaml)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "Store location (directory or database file)")
	rootCmd.PersistentFlags().StringVar(&adapterName, "adapter", "", "Storage adapter: fs, sqlite or memory")
}

func newZapLogger(lc config.LogConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	level := lc.Level
	if verbose {
		zc = zap.NewDevelopmentConfig()
		level = "debug"
	}

	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zc.Level = lvl
	if lc.Encoding != "" {
		zc.Encoding = lc.Encoding
	}
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

// storeLocation picks the store: --store, then store.path, then the nearest
// directory holding a store, then the working directory.
func storeLocation() string {
	if storePath != "" {
		return storePath
	}
	if cfg != nil && cfg.Store.Path != "" {
		return cfg.Store.Path
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	if root, err := sheaf.FindRoot(wd); err == nil {
		return root
	}
	return wd
}

func openStore(ctx context.Context) (*sheaf.Store, error) {
	opts := append(cfg.PlatformOptions(), sheaf.WithLogger(logger))
	if adapterName != "" {
		opts = append(opts, sheaf.WithAdapter(adapterName))
	}

	st, err := sheaf.Open(ctx, storeLocation(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

// withSession runs fn inside an editing session and closes it, which
// commits any pending text edit.
func withSession(ctx context.Context, noteID int64, fn func(*sheaf.Session) error) error {
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	s, err := st.OpenSession(ctx, noteID)
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		_ = s.Close(ctx)
		return err
	}
	return s.Close(ctx)
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id: %q", what, s)
	}
	return id, nil
}
