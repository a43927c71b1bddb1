// cmd/ttfs/main.go
package main

import (
	"errors"
	"fmt"
	"os"

	"ttfs/client"
	"ttfs/internal/config"
	"ttfs/internal/logging"
	"ttfs/internal/parcel"
	"ttfs/internal/repl"

	"github.com/spf13/cobra"
)

var (
	configPath string
	remoteURL  string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "ttfs",
	Short: "ttfs is a time-travelling file system console",
	Long: `ttfs keeps every file as a tree of versions. Edit, snapshot and roll
back files, and ask which files changed last or have the most versions.

Commands are read one per line from standard input. Type EXIT to quit.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}

		logger, err := logging.NewLogger(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		defer logger.Sync()

		backend, closeFn, err := openBackend(cfg, logger)
		if err != nil {
			return err
		}
		defer closeFn()

		session := repl.New(backend, cmd.OutOrStdout(), logger.Named("repl"))
		return session.Run(cmd.Context(), cmd.InOrStdin())
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (.json or .toml)")
	rootCmd.Flags().StringVarP(&remoteURL, "remote", "r", "", "drive a ttfs server at this URL instead of a local store")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "warn", "debug, info, warn or error")
}

// loadConfig reads --config when given, otherwise the environment's
// config file if it exists, otherwise the defaults.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	cfg, err := config.Load(config.Path())
	if errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
		cfg.LogLevel = logLevel
		return cfg, nil
	}
	return cfg, err
}

func openBackend(cfg *config.Config, logger *logging.Logger) (repl.Backend, func(), error) {
	if remoteURL != "" {
		return client.New(remoteURL), func() {}, nil
	}

	p, err := parcel.New(cfg, logger.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing parcel: %w", err)
	}
	return repl.Local(p.Store, p.Safe), func() { p.Close() }, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
