package tui

import (
	"fmt"
	"strings"

	"github.com/dwizi/commentctl/internal/livesync"
	"github.com/dwizi/commentctl/internal/tasks"
)

func (m model) renderTasksWorkbenchText(t theme, layout uiLayout) string {
	width, _ := layout.workbenchSize()
	status := m.sess.Synchronizer().Status()
	intro := []string{
		t.panelSubtle.Render(fmt.Sprintf("Polled every %s; the last good list stays up when a poll fails", m.sess.Synchronizer().Interval())),
		fillLine(
			t.panelSubtle.Render(fmt.Sprintf("running %d", len(m.tasks))),
			t.panelSubtle.Render(fmt.Sprintf("polls %d  failures %d", status.Polls, status.Failures)),
			width,
		),
	}

	var primary []string
	if len(m.tasks) == 0 {
		primary = append(primary, t.panelSubtle.Render("No running tasks"))
	} else {
		primary = append(primary, m.tasksTable.View())
	}

	stopLabel := t.fieldLabel.Render("stop task id ")
	if m.stopEditing {
		stopLabel = t.fieldLabelActive.Render("stop task id ")
	}
	tail := []string{stopLabel + m.stopInput.View()}
	if m.sess.Controller().StopBusy() {
		tail = append(tail, t.panelWarn.Render(m.spinner.View()+" stopping task..."))
	}
	tail = append(tail, t.panelSubtle.Render("enter status | s stop selected | / stop by id | r refresh"))
	if strings.TrimSpace(m.errorText) != "" {
		tail = append(tail, t.panelError.Render("error: "+m.errorText))
	}
	return stackSections(intro, primary, tail)
}

func (m model) renderTasksInspectorText() string {
	if m.detail != nil {
		return renderDetail(*m.detail)
	}
	selected, ok := m.selectedTask()
	if !ok {
		return strings.Join([]string{
			"Task Detail",
			"",
			"no running task selected",
		}, "\n")
	}

	lines := []string{
		"Task Summary",
		"",
		"id         " + selected.TaskID,
		fmt.Sprintf("comments   %d", selected.Stats.CommentsSent),
		fmt.Sprintf("errors     %d", selected.Stats.Errors),
		"success    " + tasks.FormatSuccessRate(selected.Stats.CommentsSent, selected.Stats.Errors),
		"started    " + formatTime(selected.Stats.StartedAt.Time),
		"running    " + tasks.FormatElapsed(selected.Stats.StartedAt.Time, m.clock),
	}
	if current := strings.TrimSpace(selected.Stats.CurrentToken); current != "" {
		lines = append(lines, "current    "+current)
	}
	lines = append(lines, "", "enter loads the full status")
	return strings.Join(lines, "\n")
}

func renderDetail(detail livesync.Detail) string {
	lines := []string{
		"Task Information",
		"",
		"id         " + detail.TaskID,
		"status     " + detail.Status.Title(),
		"started    " + formatTime(detail.StartedAt.Time),
		"",
		"Statistics",
		"",
		fmt.Sprintf("sent       %d", detail.CommentsSent),
		fmt.Sprintf("errors     %d", detail.Errors),
		"success    " + detail.SuccessRateText(),
	}
	if strings.TrimSpace(detail.CurrentToken) != "" {
		lines = append(lines,
			"",
			"Current Activity",
			"",
			"token      "+detail.CurrentToken,
			"comment    "+fallbackText(detail.CurrentComment, "N/A"),
		)
	}
	lines = append(lines, "", "fetched "+formatTime(detail.FetchedAt))
	return strings.Join(lines, "\n")
}
