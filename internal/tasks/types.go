package tasks

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

type ResourceKind string

const (
	KindTokens   ResourceKind = "tokens"
	KindComments ResourceKind = "comments"
)

func Kinds() []ResourceKind {
	return []ResourceKind{KindTokens, KindComments}
}

func ParseKind(value string) (ResourceKind, bool) {
	switch ResourceKind(strings.ToLower(strings.TrimSpace(value))) {
	case KindTokens:
		return KindTokens, true
	case KindComments:
		return KindComments, true
	default:
		return "", false
	}
}

// Title is the capitalised kind used in operator messages.
func (k ResourceKind) Title() string {
	value := string(k)
	if value == "" {
		return ""
	}
	return strings.ToUpper(value[:1]) + value[1:]
}

type DelayMode string

const (
	DelayRandom   DelayMode = "random"
	DelayAccurate DelayMode = "accurate"
)

func ParseDelayMode(value string) (DelayMode, bool) {
	switch DelayMode(strings.ToLower(strings.TrimSpace(value))) {
	case DelayRandom:
		return DelayRandom, true
	case DelayAccurate:
		return DelayAccurate, true
	default:
		return "", false
	}
}

// DelayConfig is a tagged union: Random uses Min/Max, Accurate uses Values.
// ValuesText keeps the trimmed operator text because the executor expects the
// accurate list as a comma-separated string.
type DelayConfig struct {
	Mode       DelayMode
	Min        int
	Max        int
	Values     []int
	ValuesText string
}

func RandomDelay(min, max int) DelayConfig {
	return DelayConfig{Mode: DelayRandom, Min: min, Max: max}
}

func AccurateDelay(values []int, text string) DelayConfig {
	copied := make([]int, len(values))
	copy(copied, values)
	return DelayConfig{Mode: DelayAccurate, Values: copied, ValuesText: strings.TrimSpace(text)}
}

func (d DelayConfig) Validate() error {
	switch d.Mode {
	case DelayRandom:
		if d.Min < 1 || d.Max < 1 || d.Min >= d.Max {
			return fmt.Errorf("random delay requires 1 <= min < max, got min=%d max=%d", d.Min, d.Max)
		}
		return nil
	case DelayAccurate:
		if len(d.Values) == 0 {
			return fmt.Errorf("accurate delay requires at least one value")
		}
		for _, value := range d.Values {
			if value < 1 {
				return fmt.Errorf("accurate delay values must be >= 1, got %d", value)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown delay mode %q", d.Mode)
	}
}

// Describe renders the delay for humans, e.g. "random 60-120s".
func (d DelayConfig) Describe() string {
	switch d.Mode {
	case DelayRandom:
		return fmt.Sprintf("random %d-%ds", d.Min, d.Max)
	case DelayAccurate:
		text := d.ValuesText
		if text == "" {
			text = joinInts(d.Values)
		}
		return "accurate " + text
	default:
		return string(d.Mode)
	}
}

type MentionConfig struct {
	ID   string `validate:"required"`
	Name string `validate:"required"`
}

// TaskConfig is immutable once built; the form never shares memory with it.
type TaskConfig struct {
	TokenRef   string `validate:"required"`
	CommentRef string `validate:"required"`
	PostID     string `validate:"required"`
	Delay      DelayConfig
	Mention    *MentionConfig `validate:"omitempty"`
}

type delayWire struct {
	Mode   DelayMode `json:"mode"`
	Min    *int      `json:"min,omitempty"`
	Max    *int      `json:"max,omitempty"`
	Values *string   `json:"values,omitempty"`
}

type startTaskWire struct {
	TokenFile      string    `json:"token_file"`
	CommentFile    string    `json:"comment_file"`
	PostID         string    `json:"post_id"`
	DelayConfig    delayWire `json:"delay_config"`
	MentionEnabled bool      `json:"mention_enabled"`
	MentionID      string    `json:"mention_id,omitempty"`
	MentionName    string    `json:"mention_name,omitempty"`
}

func (c TaskConfig) MarshalJSON() ([]byte, error) {
	wire := startTaskWire{
		TokenFile:   c.TokenRef,
		CommentFile: c.CommentRef,
		PostID:      c.PostID,
		DelayConfig: delayWire{Mode: c.Delay.Mode},
	}
	switch c.Delay.Mode {
	case DelayRandom:
		min, max := c.Delay.Min, c.Delay.Max
		wire.DelayConfig.Min = &min
		wire.DelayConfig.Max = &max
	case DelayAccurate:
		text := c.Delay.ValuesText
		if text == "" {
			text = joinInts(c.Delay.Values)
		}
		wire.DelayConfig.Values = &text
	}
	if c.Mention != nil {
		wire.MentionEnabled = true
		wire.MentionID = c.Mention.ID
		wire.MentionName = c.Mention.Name
	}
	return json.Marshal(wire)
}

func joinInts(values []int) string {
	parts := make([]string, 0, len(values))
	for _, value := range values {
		parts = append(parts, fmt.Sprintf("%d", value))
	}
	return strings.Join(parts, ", ")
}

type TaskStatus string

const (
	StatusRunning TaskStatus = "running"
	StatusStopped TaskStatus = "stopped"
	StatusErrored TaskStatus = "errored"
	StatusUnknown TaskStatus = "unknown"
)

func (s TaskStatus) Title() string {
	value := strings.TrimSpace(string(s))
	if value == "" {
		value = string(StatusUnknown)
	}
	return strings.ToUpper(value[:1]) + value[1:]
}

type TaskStats struct {
	CommentsSent int       `json:"comments_sent"`
	Errors       int       `json:"errors"`
	StartedAt    Timestamp `json:"started_at"`
	CurrentToken string    `json:"current_token"`
}

type TaskSummary struct {
	TaskID string    `json:"task_id"`
	Stats  TaskStats `json:"stats"`
}

type TaskDetail struct {
	TaskID string `json:"-"`
	TaskStats
	Status         TaskStatus `json:"status"`
	CurrentComment string     `json:"current_comment"`
}

// SuccessRate is sent/(sent+errors). ok is false when nothing was attempted.
func SuccessRate(sent, errors int) (rate float64, ok bool) {
	total := sent + errors
	if total <= 0 {
		return 0, false
	}
	return float64(sent) / float64(total), true
}

func FormatSuccessRate(sent, errors int) string {
	rate, ok := SuccessRate(sent, errors)
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%d%%", int(math.Round(rate*100)))
}

// FormatElapsed renders a duration as HH:MM:SS.
func FormatElapsed(since, now time.Time) string {
	if since.IsZero() || now.Before(since) {
		return "00:00:00"
	}
	diff := now.Sub(since)
	hours := int(diff / time.Hour)
	minutes := int((diff % time.Hour) / time.Minute)
	seconds := int((diff % time.Minute) / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
