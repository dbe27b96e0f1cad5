package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Environment string

	APIURL            string
	HTTPTimeoutSec    int
	RequestTimeoutSec int
	TLSSkipVerify     bool
	TLSCAFile         string
	TLSCertFile       string
	TLSKeyFile        string

	PollSchedule   string
	AlertTTLSec    int
	MaxUploadBytes int64

	DataDir          string
	JournalPath      string
	LogPath          string
	JournalEnabled   bool
	ReuploadOnChange bool
	MetricsAddr      string
	ActivityLogDir   string
}

func FromEnv() Config {
	dataDir := stringOrDefault("COMMENTCTL_DATA_DIR", defaultDataDir())

	return Config{
		Environment:       stringOrDefault("COMMENTCTL_ENV", "development"),
		APIURL:            stringOrDefault("COMMENTCTL_API_URL", "http://127.0.0.1:5000"),
		HTTPTimeoutSec:    intOrDefault("COMMENTCTL_HTTP_TIMEOUT_SECONDS", 30),
		RequestTimeoutSec: intOrDefault("COMMENTCTL_REQUEST_TIMEOUT_SECONDS", 15),
		TLSSkipVerify:     boolOrDefault("COMMENTCTL_TLS_SKIP_VERIFY", false),
		TLSCAFile:         strings.TrimSpace(os.Getenv("COMMENTCTL_TLS_CA_FILE")),
		TLSCertFile:       strings.TrimSpace(os.Getenv("COMMENTCTL_TLS_CERT_FILE")),
		TLSKeyFile:        strings.TrimSpace(os.Getenv("COMMENTCTL_TLS_KEY_FILE")),
		PollSchedule:      stringOrDefault("COMMENTCTL_POLL_SCHEDULE", "@every 5s"),
		AlertTTLSec:       intOrDefault("COMMENTCTL_ALERT_TTL_SECONDS", 5),
		MaxUploadBytes:    int64(intOrDefault("COMMENTCTL_MAX_UPLOAD_BYTES", 16*1024*1024)),
		DataDir:           dataDir,
		JournalPath:       stringOrDefault("COMMENTCTL_JOURNAL_PATH", filepath.Join(dataDir, "journal.sqlite")),
		LogPath:           stringOrDefault("COMMENTCTL_LOG_PATH", filepath.Join(dataDir, "commentctl.log")),
		JournalEnabled:    boolOrDefault("COMMENTCTL_JOURNAL_ENABLED", true),
		ReuploadOnChange:  boolOrDefault("COMMENTCTL_REUPLOAD_ON_CHANGE", false),
		MetricsAddr:       strings.TrimSpace(os.Getenv("COMMENTCTL_METRICS_ADDR")),
		ActivityLogDir:    strings.TrimSpace(os.Getenv("COMMENTCTL_ACTIVITY_LOG_DIR")),
	}
}

func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSec < 1 {
		return 15 * time.Second
	}
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

func (c Config) AlertTTL() time.Duration {
	if c.AlertTTLSec < 1 {
		return 5 * time.Second
	}
	return time.Duration(c.AlertTTLSec) * time.Second
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return ".commentctl"
	}
	return filepath.Join(home, ".commentctl")
}

func stringOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func intOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		return fallback
	}
	return parsed
}

func boolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
