package tui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/dwizi/commentctl/internal/heartbeat"
	"github.com/dwizi/commentctl/internal/tasks"
)

type overviewTotals struct {
	Running int
	Sent    int
	Errors  int
}

func (m model) totals() overviewTotals {
	totals := overviewTotals{Running: len(m.tasks)}
	for _, item := range m.tasks {
		totals.Sent += item.Stats.CommentsSent
		totals.Errors += item.Stats.Errors
	}
	return totals
}

func (m model) renderOverviewWorkbenchText(t theme, layout uiLayout) string {
	contentWidth, _ := layout.workbenchSize()
	contentWidth = maxInt(36, contentWidth)
	colWidth := maxInt(10, (contentWidth-4)/3)
	colStyle := lipgloss.NewStyle().Width(colWidth)
	totals := m.totals()

	runningCard := colStyle.Render(strings.Join([]string{
		t.cardLabel.Render("Running"),
		t.cardValue.Render(fmt.Sprintf("%d", totals.Running)),
		t.panelSubtle.Render("tasks on the registry"),
	}, "\n"))
	sentCard := colStyle.Render(strings.Join([]string{
		t.cardLabel.Render("Comments"),
		t.cardValue.Render(fmt.Sprintf("%d", totals.Sent)),
		t.panelSubtle.Render(fmt.Sprintf("errors %d", totals.Errors)),
	}, "\n"))
	rateCard := colStyle.Render(strings.Join([]string{
		t.cardLabel.Render("Success"),
		t.cardValue.Render(tasks.FormatSuccessRate(totals.Sent, totals.Errors)),
		t.panelSubtle.Render("across running tasks"),
	}, "\n"))

	bindings := m.sess.Binder().Bindings()
	intro := []string{
		t.panelSubtle.Render("Snapshot of the registry as of the last good poll"),
		t.panelSubtle.Render("registry " + m.sess.Client().BaseURL()),
	}
	primary := []string{
		lipgloss.JoinHorizontal(lipgloss.Top, runningCard, " ", sentCard, " ", rateCard),
		"",
		t.panelSubtle.Render("Launch form"),
		fmt.Sprintf("tokens    %s", t.panelAccent.Render(fallbackText(bindings.TokenRef, "unbound"))),
		fmt.Sprintf("comments  %s", t.panelAccent.Render(fallbackText(bindings.CommentRef, "unbound"))),
		fmt.Sprintf("post id   %s", t.panelAccent.Render(fallbackText(m.sess.Form().Snapshot().PostID, "-"))),
	}
	tail := []string{
		t.panelSubtle.Render("Quick Hints"),
		"2 launch  3 tasks  4 history  5 activity  r refresh",
	}
	return stackSections(intro, primary, tail)
}

func (m model) renderOverviewInspectorText() string {
	snapshot := m.sess.HealthSnapshot()
	lines := []string{
		"Health",
		"",
		"overall  " + string(snapshot.Overall),
	}
	for _, component := range snapshot.Components {
		line := fmt.Sprintf("%-8s %s", component.Name, component.State)
		if component.State == heartbeat.StateDegraded && component.Error != "" {
			line += " (" + component.Error + ")"
		}
		lines = append(lines, line)
	}
	lines = append(lines,
		"",
		"Config",
		"",
		"env      "+fallbackText(m.cfg.Environment, "unset"),
		"poll     "+m.sess.Synchronizer().Interval().String(),
		"journal  "+onOff(m.cfg.JournalEnabled),
		"reupload "+onOff(m.cfg.ReuploadOnChange),
		"metrics  "+fallbackText(m.cfg.MetricsAddr, "off"),
	)
	if strings.TrimSpace(m.startupInfo) != "" {
		lines = append(lines, "", "startup note:", m.startupInfo)
	}
	return strings.Join(lines, "\n")
}

func onOff(value bool) string {
	if value {
		return "on"
	}
	return "off"
}
