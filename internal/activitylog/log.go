package activitylog

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Entry is one alert as the operator saw it.
type Entry struct {
	Dir         string
	Environment string
	Registry    string
	Level       string
	Message     string
	Timestamp   time.Time
}

var pathSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Append adds entry to a per-day markdown file under Dir/<environment>/.
// An empty Dir or message is a no-op.
func Append(entry Entry) error {
	dir := strings.TrimSpace(entry.Dir)
	if dir == "" {
		return nil
	}
	message := strings.TrimSpace(entry.Message)
	if message == "" {
		return nil
	}

	environment := sanitizeSegment(entry.Environment)
	if environment == "" {
		environment = "default"
	}
	timestamp := entry.Timestamp.UTC()
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	baseDir := filepath.Join(dir, environment)
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}
	logPath := filepath.Join(baseDir, timestamp.Format(time.DateOnly)+".md")

	header := ""
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		header = fmt.Sprintf("# Activity Log %s\n\n- environment: `%s`\n- registry: `%s`\n\n", timestamp.Format(time.DateOnly), environment, strings.TrimSpace(entry.Registry))
	}

	level := strings.TrimSpace(strings.ToLower(entry.Level))
	if level == "" {
		level = "info"
	}
	body := fmt.Sprintf("## %s `%s`\n\n%s\n\n", timestamp.Format(time.RFC3339), strings.ToUpper(level), message)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	if header != "" {
		if _, err := file.WriteString(header); err != nil {
			return err
		}
	}
	if _, err := file.WriteString(body); err != nil {
		return err
	}
	return nil
}

func sanitizeSegment(value string) string {
	trimmed := strings.TrimSpace(value)
	trimmed = strings.ReplaceAll(trimmed, " ", "-")
	trimmed = pathSanitizer.ReplaceAllString(trimmed, "-")
	trimmed = strings.Trim(trimmed, "-.")
	return strings.ToLower(trimmed)
}
