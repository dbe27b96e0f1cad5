package tui

import (
	"strings"
)

func (m model) renderHistoryWorkbenchText(t theme, _ uiLayout) string {
	intro := []string{
		t.panelSubtle.Render("Tasks started or stopped from this machine"),
		t.panelSubtle.Render("newest first"),
	}
	var primary []string
	switch {
	case !m.cfg.JournalEnabled:
		primary = []string{t.panelSubtle.Render("journal disabled (COMMENTCTL_JOURNAL_ENABLED=false)")}
	case len(m.history) == 0:
		primary = []string{t.panelSubtle.Render("nothing recorded yet")}
	default:
		primary = []string{m.historyTable.View()}
	}
	tail := []string{t.panelSubtle.Render("enter status | r reload")}
	if strings.TrimSpace(m.errorText) != "" {
		tail = append(tail, t.panelError.Render("error: "+m.errorText))
	}
	return stackSections(intro, primary, tail)
}

func (m model) renderHistoryInspectorText() string {
	entry, ok := m.selectedHistory()
	if !ok {
		return "Journal Entry\n\nselect an entry"
	}
	mention := "off"
	if entry.MentionEnabled {
		mention = "on"
	}
	lines := []string{
		"Journal Entry",
		"",
		"task       " + entry.TaskID,
		"registry   " + fallbackText(entry.Registry, "-"),
		"post id    " + fallbackText(entry.PostID, "-"),
		"delay      " + fallbackText(entry.Delay, "-"),
		"mentions   " + mention,
		"tokens     " + fallbackText(entry.TokenRef, "-"),
		"comments   " + fallbackText(entry.CommentRef, "-"),
		"started    " + formatTime(entry.StartedAt),
		"stopped    " + formatTime(entry.StoppedAt),
	}
	if strings.TrimSpace(entry.StopMessage) != "" {
		lines = append(lines, "", entry.StopMessage)
	}
	return strings.Join(lines, "\n")
}
