package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"compensation-desk/internal/sandbox"
)

var sandboxCmd = &cobra.Command{
	Use:   "sandbox",
	Short: "Serve an in-memory compensation backend for demos and tests",
	RunE: func(cmd *cobra.Command, args []string) error {
		issues := sandbox.DefaultIssues()
		if cfg.SandboxSeed != "" {
			seeded, err := sandbox.LoadSeed(cfg.SandboxSeed)
			if err != nil {
				return err
			}
			issues = seeded
		}
		srv := sandbox.NewServer(sandbox.NewStore(issues...), logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		errc := make(chan error, 1)
		go func() { errc <- srv.ListenAndServe(cfg.SandboxAddr()) }()

		logger.Info("sandbox backend starting",
			zap.String("addr", cfg.SandboxAddr()),
			zap.Int("issues", len(issues)))
		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}
		logger.Info("sandbox backend stopping")
		return srv.Shutdown()
	},
}
