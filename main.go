package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"compensation-desk/internal/assessment"
	"compensation-desk/internal/backend"
	"compensation-desk/internal/config"
	"compensation-desk/internal/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool
	backendURL string

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "compensation-desk",
	Short: "Assess damage claims and reconcile refunds against the back-office API",
	Long: `compensation-desk is the operator tool for damage issues.

It loads an issue's compensation context, previews the compensation for a
damage assessment, and records the resolution together with the customer
refund and its evidence.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if backendURL != "" {
			cfg.BackendURL = backendURL
		}

		logFile := cfg.LogFile
		if cmd.Name() == "resolve" && logFile == "" {
			// The panel owns the terminal.
			logFile = filepath.Join(os.TempDir(), "compensation-desk.log")
		}
		logger, err = logging.New(cfg.LogLevel, verbose, logFile)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "compensation-desk.yaml", "Config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "Backend base URL (overrides config)")

	rootCmd.AddCommand(showCmd, previewCmd, submitCmd, resolveCmd, sandboxCmd)
}

func newClient() *backend.Client {
	return backend.New(backend.Config{
		BaseURL:         cfg.BackendURL,
		Timeout:         cfg.RequestTimeout,
		MaxConnsPerHost: cfg.MaxConnsPerHost,
	}, backend.WithLogger(logger))
}

func noteWriter() assessment.NoteWriter {
	return assessment.NewNoteWriter(cfg.NoteLanguage, cfg.Currency)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
