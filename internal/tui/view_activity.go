package tui

import (
	"fmt"
	"strings"
)

func (m model) renderActivityWorkbenchText(t theme, _ uiLayout) string {
	intro := []string{
		t.panelSubtle.Render("Every alert raised this session"),
		t.panelSubtle.Render("latest events first"),
	}
	primary := []string{
		m.activityViewport.View(),
	}
	tail := []string{
		t.panelSubtle.Render("j/k or arrows to scroll. x dismisses the oldest live alert."),
	}
	return stackSections(intro, primary, tail)
}

func (m model) renderActivityInspectorText() string {
	alerts := m.sess.Alerts()
	active := alerts.Active()
	status := m.sess.Synchronizer().Status()
	lines := []string{
		"Session Detail",
		"",
		fmt.Sprintf("events      %d", len(alerts.History())),
		fmt.Sprintf("live alerts %d", len(active)),
		fmt.Sprintf("pending     %d", m.pendingActions),
		fmt.Sprintf("polls       %d", status.Polls),
		fmt.Sprintf("failures    %d", status.Failures),
		fmt.Sprintf("skipped     %d", status.Skipped),
		"active view " + string(m.activeView),
		"focus       " + focusLabel(m.focus),
	}
	if !status.LastSuccess.IsZero() {
		lines = append(lines, "last sync   "+formatTime(status.LastSuccess))
	}
	if status.LastError != nil {
		lines = append(lines, "", "Last Poll Error", status.LastError.Error())
	}
	if loading, ok := alerts.Loading(); ok {
		lines = append(lines, "", "In Progress", loading.Message)
	}
	if len(active) > 0 {
		oldest := active[0]
		lines = append(lines,
			"",
			"Oldest Live Alert",
			formatTime(oldest.CreatedAt)+" ["+strings.ToUpper(string(oldest.Level))+"]",
			oldest.Message,
		)
	}
	return strings.Join(lines, "\n")
}
