package form

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dwizi/commentctl/internal/consoleerr"
	"github.com/dwizi/commentctl/internal/tasks"
)

var structValidator = validator.New()

// Validate returns the first violation, checked in order: resources, post id,
// delay, mentions.
func Validate(state State, bindings Bindings) error {
	if strings.TrimSpace(bindings.TokenRef) == "" {
		return consoleerr.Validation(string(FieldTokens), "Please upload a tokens file")
	}
	if strings.TrimSpace(bindings.CommentRef) == "" {
		return consoleerr.Validation(string(FieldComments), "Please upload a comments file")
	}
	if strings.TrimSpace(state.PostID) == "" {
		return consoleerr.Validation(string(FieldPostID), "Please enter a Facebook Post ID")
	}
	if _, err := parseDelay(state); err != nil {
		return err
	}
	if state.MentionsEnabled {
		if strings.TrimSpace(state.MentionID) == "" || strings.TrimSpace(state.MentionName) == "" {
			return consoleerr.Validation(string(FieldMentionID), "Please enter both Mention ID and Name")
		}
	}
	return nil
}

func parseDelay(state State) (tasks.DelayConfig, error) {
	switch state.DelayMode {
	case tasks.DelayAccurate:
		text := strings.TrimSpace(state.DelayValues)
		if text == "" {
			return tasks.DelayConfig{}, consoleerr.Validation(string(FieldDelayValues), "Please enter delay values for accurate mode")
		}
		values, ok := ParseDelayValues(text)
		if !ok {
			return tasks.DelayConfig{}, consoleerr.Validation(string(FieldDelayValues), "Please enter valid delay values (numbers > 0)")
		}
		return tasks.AccurateDelay(values, text), nil
	case tasks.DelayRandom:
		min, minErr := strconv.Atoi(strings.TrimSpace(state.MinDelay))
		max, maxErr := strconv.Atoi(strings.TrimSpace(state.MaxDelay))
		if minErr != nil || maxErr != nil || min < 1 || max < 1 || min >= max {
			return tasks.DelayConfig{}, consoleerr.Validation(string(FieldMinDelay), "Please enter valid delay values (min < max, both > 0)")
		}
		return tasks.RandomDelay(min, max), nil
	default:
		return tasks.DelayConfig{}, consoleerr.Validation(string(FieldDelayMode), "Please choose a delay mode")
	}
}

// ParseDelayValues splits on commas; any blank, non-integer or value < 1
// invalidates the whole list.
func ParseDelayValues(text string) ([]int, bool) {
	parts := strings.Split(text, ",")
	values := make([]int, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || value < 1 {
			return nil, false
		}
		values = append(values, value)
	}
	return values, len(values) > 0
}

// Build validates and copies the current input into an immutable TaskConfig.
func Build(state State, bindings Bindings) (tasks.TaskConfig, error) {
	if err := Validate(state, bindings); err != nil {
		return tasks.TaskConfig{}, err
	}
	delay, err := parseDelay(state)
	if err != nil {
		return tasks.TaskConfig{}, err
	}
	cfg := tasks.TaskConfig{
		TokenRef:   strings.TrimSpace(bindings.TokenRef),
		CommentRef: strings.TrimSpace(bindings.CommentRef),
		PostID:     strings.TrimSpace(state.PostID),
		Delay:      delay,
	}
	if state.MentionsEnabled {
		cfg.Mention = &tasks.MentionConfig{
			ID:   strings.TrimSpace(state.MentionID),
			Name: strings.TrimSpace(state.MentionName),
		}
	}
	if err := structValidator.Struct(cfg); err != nil {
		return tasks.TaskConfig{}, consoleerr.Validation("config", "invalid task configuration: %v", err)
	}
	if err := cfg.Delay.Validate(); err != nil {
		return tasks.TaskConfig{}, consoleerr.Validation(string(FieldDelayMode), "%v", err)
	}
	return cfg, nil
}
