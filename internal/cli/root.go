package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dwizi/commentctl/internal/config"
	"github.com/dwizi/commentctl/internal/session"
	"github.com/dwizi/commentctl/internal/tui"
)

func NewRoot(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "commentctl",
		Short: "commentctl starts, stops and watches comment tasks on a remote registry",
	}

	root.AddCommand(newTUICommand(logger))
	root.AddCommand(newUploadCommand(logger))
	root.AddCommand(newStartCommand(logger))
	root.AddCommand(newStopCommand(logger))
	root.AddCommand(newTasksCommand(logger))
	root.AddCommand(newStatusCommand(logger))
	root.AddCommand(newWatchCommand(logger))
	root.AddCommand(newHistoryCommand(logger))
	root.AddCommand(newVersionCommand())

	return root
}

func newTUICommand(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the interactive task console",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			fileLogger, closeLog, err := openLogFile(cfg.LogPath)
			if err != nil {
				logger.Warn("tui log file unavailable, discarding logs", "path", cfg.LogPath, "error", err)
				fileLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))
				closeLog = func() error { return nil }
			}
			defer closeLog()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return tui.Run(ctx, cfg, fileLogger)
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(session.Version)
		},
	}
}

// openLogFile gives the console a JSON logger that stays off the terminal.
func openLogFile(path string) (*slog.Logger, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, file.Close, nil
}

// openSession builds a session for one-shot commands. Background features
// that only make sense for a long-lived process are switched off.
func openSession(logger *slog.Logger, longLived bool) (*session.Session, error) {
	cfg := config.FromEnv()
	if !longLived {
		cfg.ReuploadOnChange = false
		cfg.MetricsAddr = ""
	}
	return session.New(cfg, nil, logger)
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
