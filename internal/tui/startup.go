package tui

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"log/slog"
	"os"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/dwizi/commentctl/internal/apiclient"
	"github.com/dwizi/commentctl/internal/config"
	"github.com/dwizi/commentctl/internal/session"
)

// Run opens a session against the configured registry and blocks until the
// console exits or ctx is cancelled.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	updatedCfg, startupInfo := recoverInvalidTLSConfig(cfg, logger)

	client, err := apiclient.New(updatedCfg)
	if err != nil {
		return err
	}
	sess, err := session.New(updatedCfg, client, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	sessionDone := make(chan error, 1)
	go func() {
		sessionDone <- sess.Run(runCtx)
	}()

	program := tea.NewProgram(newModel(runCtx, sess, startupInfo, logger), tea.WithContext(runCtx))
	_, runErr := program.Run()
	cancel()
	sessionErr := <-sessionDone

	if errors.Is(runErr, tea.ErrProgramKilled) && ctx.Err() != nil {
		runErr = nil
	}
	if errors.Is(sessionErr, context.Canceled) {
		sessionErr = nil
	}
	return errors.Join(runErr, sessionErr)
}

// recoverInvalidTLSConfig drops TLS material that cannot be loaded so the
// console still starts. The returned string is a note for the overview pane.
func recoverInvalidTLSConfig(cfg config.Config, logger *slog.Logger) (config.Config, string) {
	info := ""

	if strings.TrimSpace(cfg.TLSCAFile) != "" && !validCACert(cfg.TLSCAFile) {
		logger.Warn("invalid registry ca file configured, clearing for tui session", "path", cfg.TLSCAFile)
		cfg.TLSCAFile = ""
		info = "ignored invalid CA path in environment"
	}

	certPath := strings.TrimSpace(cfg.TLSCertFile)
	keyPath := strings.TrimSpace(cfg.TLSKeyFile)
	if certPath == "" && keyPath == "" {
		return cfg, info
	}

	if certPath == "" || keyPath == "" {
		logger.Warn("incomplete client cert configuration, clearing for tui session")
		cfg.TLSCertFile = ""
		cfg.TLSKeyFile = ""
		if info == "" {
			info = "ignored incomplete client cert config"
		}
		return cfg, info
	}

	if _, err := tls.LoadX509KeyPair(certPath, keyPath); err == nil {
		return cfg, info
	}

	logger.Warn("invalid client cert configuration, continuing without client cert for tui")
	cfg.TLSCertFile = ""
	cfg.TLSKeyFile = ""
	if info == "" {
		info = "ignored invalid client cert config"
	}
	return cfg, info
}

func validCACert(path string) bool {
	content, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	pool := x509.NewCertPool()
	return pool.AppendCertsFromPEM(content)
}
