package tasks

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTaskConfigAccurateWireShape(t *testing.T) {
	t.Parallel()

	cfg := TaskConfig{
		TokenRef:   "tok_abc",
		CommentRef: "cmt_xyz",
		PostID:     "12345",
		Delay:      AccurateDelay([]int{5, 10, 15}, " 5, 10, 15 "),
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"token_file":"tok_abc","comment_file":"cmt_xyz","post_id":"12345","delay_config":{"mode":"accurate","values":"5, 10, 15"},"mention_enabled":false}`
	if string(raw) != want {
		t.Fatalf("unexpected wire body:\n got %s\nwant %s", raw, want)
	}
}

func TestTaskConfigRandomWithMention(t *testing.T) {
	t.Parallel()

	cfg := TaskConfig{
		TokenRef:   "uploads/a_tokens.txt",
		CommentRef: "uploads/b_comments.txt",
		PostID:     "987",
		Delay:      RandomDelay(60, 120),
		Mention:    &MentionConfig{ID: "100", Name: "Jane"},
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	delay := decoded["delay_config"].(map[string]any)
	if delay["mode"] != "random" || delay["min"].(float64) != 60 || delay["max"].(float64) != 120 {
		t.Fatalf("unexpected delay config: %+v", delay)
	}
	if _, ok := delay["values"]; ok {
		t.Fatal("random delay must not carry values")
	}
	if decoded["mention_enabled"] != true || decoded["mention_id"] != "100" || decoded["mention_name"] != "Jane" {
		t.Fatalf("unexpected mention fields: %+v", decoded)
	}
}

func TestDelayConfigValidate(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name  string
		delay DelayConfig
		ok    bool
	}{
		{"random ok", RandomDelay(1, 2), true},
		{"random equal", RandomDelay(5, 5), false},
		{"random zero min", RandomDelay(0, 5), false},
		{"accurate ok", AccurateDelay([]int{3}, "3"), true},
		{"accurate empty", AccurateDelay(nil, ""), false},
		{"accurate negative", AccurateDelay([]int{4, -1}, "4,-1"), false},
		{"no mode", DelayConfig{}, false},
	} {
		err := tc.delay.Validate()
		if (err == nil) != tc.ok {
			t.Fatalf("%s: expected ok=%v, got err=%v", tc.name, tc.ok, err)
		}
	}
}

func TestFormatSuccessRate(t *testing.T) {
	t.Parallel()

	if got := FormatSuccessRate(80, 20); got != "80%" {
		t.Fatalf("expected 80%%, got %s", got)
	}
	if got := FormatSuccessRate(75, 25); got != "75%" {
		t.Fatalf("expected 75%%, got %s", got)
	}
	if got := FormatSuccessRate(2, 1); got != "67%" {
		t.Fatalf("expected rounded 67%%, got %s", got)
	}
	if got := FormatSuccessRate(0, 0); got != "N/A" {
		t.Fatalf("expected N/A, got %s", got)
	}
}

func TestTaskSummaryDecodesHTTPDate(t *testing.T) {
	t.Parallel()

	payload := `{"task_id":"a1b2c3d4","stats":{"comments_sent":3,"errors":1,"started_at":"Tue, 14 Oct 2025 09:30:00 GMT","current_token":null}}`
	var summary TaskSummary
	if err := json.Unmarshal([]byte(payload), &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := time.Date(2025, 10, 14, 9, 30, 0, 0, time.UTC)
	if !summary.Stats.StartedAt.Equal(want) {
		t.Fatalf("expected %s, got %s", want, summary.Stats.StartedAt)
	}
	if summary.Stats.CurrentToken != "" {
		t.Fatalf("expected empty current token, got %q", summary.Stats.CurrentToken)
	}
}

func TestParseTimestampLayouts(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for _, value := range []string{
		"2024-01-01T12:00:00Z",
		"Mon, 01 Jan 2024 12:00:00 GMT",
		"2024-01-01T12:00:00",
		"2024-01-01 12:00:00",
		"2024-01-01 14:00:00+02:00",
		"2024-01-01T12:00:00.000000+00:00",
	} {
		got, err := ParseTimestamp(value)
		if err != nil {
			t.Fatalf("parse %q: %v", value, err)
		}
		if !got.Equal(want) {
			t.Fatalf("parse %q: expected %s, got %s", value, want, got)
		}
	}
	if _, err := ParseTimestamp("not a date"); err == nil {
		t.Fatal("expected an error for an unknown layout")
	}
}

func TestTaskDetailDecodesStatus(t *testing.T) {
	t.Parallel()

	payload := `{"comments_sent":80,"errors":20,"started_at":"2025-10-14T09:30:00","status":"stopped","current_token":"Jane (profile)","current_comment":"hello"}`
	var detail TaskDetail
	if err := json.Unmarshal([]byte(payload), &detail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if detail.Status != StatusStopped || detail.Status.Title() != "Stopped" {
		t.Fatalf("unexpected status: %s", detail.Status)
	}
	if detail.CommentsSent != 80 || detail.CurrentComment != "hello" {
		t.Fatalf("unexpected detail: %+v", detail)
	}
}

func TestFormatElapsed(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	if got := FormatElapsed(start, start.Add(3*time.Hour+4*time.Minute+5*time.Second)); got != "03:04:05" {
		t.Fatalf("unexpected elapsed: %s", got)
	}
	if got := FormatElapsed(time.Time{}, start); got != "00:00:00" {
		t.Fatalf("unexpected zero elapsed: %s", got)
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	kind, ok := ParseKind(" Tokens ")
	if !ok || kind != KindTokens || kind.Title() != "Tokens" {
		t.Fatalf("unexpected kind parse: %s %v", kind, ok)
	}
	if _, ok := ParseKind("images"); ok {
		t.Fatal("expected unknown kind to fail")
	}
}

func TestDelayConfigDescribe(t *testing.T) {
	t.Parallel()

	if got := RandomDelay(60, 120).Describe(); got != "random 60-120s" {
		t.Fatalf("unexpected random description: %s", got)
	}
	if got := AccurateDelay([]int{5, 10}, "").Describe(); got != "accurate 5, 10" {
		t.Fatalf("unexpected accurate description: %s", got)
	}
}
