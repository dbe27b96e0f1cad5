package form

import (
	"strconv"
	"strings"
	"sync"

	"github.com/dwizi/commentctl/internal/tasks"
)

const (
	DefaultMinDelay = 60
	DefaultMaxDelay = 120
)

// State is the raw operator input. Numeric fields stay text until build time
// so switching delay modes never discards what was typed.
type State struct {
	PostID          string
	DelayMode       tasks.DelayMode
	MinDelay        string
	MaxDelay        string
	DelayValues     string
	MentionsEnabled bool
	MentionID       string
	MentionName     string
	StopTaskID      string
}

func Defaults() State {
	return State{
		DelayMode: tasks.DelayRandom,
		MinDelay:  strconv.Itoa(DefaultMinDelay),
		MaxDelay:  strconv.Itoa(DefaultMaxDelay),
	}
}

// Bindings is the binder's view the validator and builder read.
type Bindings struct {
	TokenRef   string
	CommentRef string
}

func (b Bindings) Ref(kind tasks.ResourceKind) string {
	switch kind {
	case tasks.KindTokens:
		return b.TokenRef
	case tasks.KindComments:
		return b.CommentRef
	default:
		return ""
	}
}

type Field string

const (
	FieldTokens      Field = "tokens"
	FieldComments    Field = "comments"
	FieldPostID      Field = "post_id"
	FieldDelayMode   Field = "delay_mode"
	FieldMinDelay    Field = "min_delay"
	FieldMaxDelay    Field = "max_delay"
	FieldDelayValues Field = "delay_values"
	FieldMentions    Field = "mentions"
	FieldMentionID   Field = "mention_id"
	FieldMentionName Field = "mention_name"
)

// VisibleFields projects which inputs apply to the current mode. Hidden
// fields keep their values.
func VisibleFields(state State) []Field {
	fields := []Field{FieldTokens, FieldComments, FieldPostID, FieldDelayMode}
	if state.DelayMode == tasks.DelayAccurate {
		fields = append(fields, FieldDelayValues)
	} else {
		fields = append(fields, FieldMinDelay, FieldMaxDelay)
	}
	fields = append(fields, FieldMentions)
	if state.MentionsEnabled {
		fields = append(fields, FieldMentionID, FieldMentionName)
	}
	return fields
}

func IsVisible(state State, field Field) bool {
	for _, item := range VisibleFields(state) {
		if item == field {
			return true
		}
	}
	return false
}

// AdjustDelayRange bumps max to min+1 when an edit leaves min >= max.
func AdjustDelayRange(state State) State {
	min, minErr := strconv.Atoi(strings.TrimSpace(state.MinDelay))
	max, maxErr := strconv.Atoi(strings.TrimSpace(state.MaxDelay))
	if minErr != nil || maxErr != nil {
		return state
	}
	if min >= max {
		state.MaxDelay = strconv.Itoa(min + 1)
	}
	return state
}

// Form guards the session's State. Readers get copies.
type Form struct {
	mu    sync.RWMutex
	state State
}

func New() *Form {
	return &Form{state: Defaults()}
}

func (f *Form) Snapshot() State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state
}

func (f *Form) Update(apply func(*State)) State {
	f.mu.Lock()
	defer f.mu.Unlock()
	apply(&f.state)
	return f.state
}

// Reset restores defaults. The stop field belongs to a different control and is kept.
func (f *Form) Reset() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	stopTaskID := f.state.StopTaskID
	f.state = Defaults()
	f.state.StopTaskID = stopTaskID
	return f.state
}
