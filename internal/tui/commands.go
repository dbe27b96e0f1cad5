package tui

import (
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/dwizi/commentctl/internal/binder"
	"github.com/dwizi/commentctl/internal/journal"
	"github.com/dwizi/commentctl/internal/lifecycle"
	"github.com/dwizi/commentctl/internal/livesync"
	"github.com/dwizi/commentctl/internal/tasks"
)

const historyLimit = 100

type uploadDoneMsg struct {
	kind     tasks.ResourceKind
	resource binder.Resource
	err      error
}

type startDoneMsg struct {
	result lifecycle.StartResult
	err    error
}

type stopDoneMsg struct {
	taskID  string
	message string
	err     error
}

type detailLoadedMsg struct {
	detail livesync.Detail
	err    error
}

type refreshDoneMsg struct {
	err error
}

type historyLoadedMsg struct {
	entries []journal.Entry
	err     error
}

func (m model) uploadCmd(kind tasks.ResourceKind, path string) tea.Cmd {
	ctx, controller := m.ctx, m.sess.Controller()
	path = strings.TrimSpace(path)
	return func() tea.Msg {
		resource, err := controller.UploadFile(ctx, kind, path)
		return uploadDoneMsg{kind: kind, resource: resource, err: err}
	}
}

func (m model) submitCmd() tea.Cmd {
	ctx, controller := m.ctx, m.sess.Controller()
	return func() tea.Msg {
		result, err := controller.Submit(ctx)
		return startDoneMsg{result: result, err: err}
	}
}

// stopFormCmd stops whatever task id the stop field holds.
func (m model) stopFormCmd() tea.Cmd {
	ctx, controller := m.ctx, m.sess.Controller()
	taskID := strings.TrimSpace(m.stopInput.Value())
	return func() tea.Msg {
		message, err := controller.Stop(ctx)
		return stopDoneMsg{taskID: taskID, message: message, err: err}
	}
}

func (m model) stopTaskCmd(taskID string) tea.Cmd {
	ctx, controller := m.ctx, m.sess.Controller()
	return func() tea.Msg {
		message, err := controller.StopTask(ctx, taskID)
		return stopDoneMsg{taskID: taskID, message: message, err: err}
	}
}

func (m model) inspectCmd(taskID string) tea.Cmd {
	ctx, controller := m.ctx, m.sess.Controller()
	return func() tea.Msg {
		detail, err := controller.Inspect(ctx, taskID)
		return detailLoadedMsg{detail: detail, err: err}
	}
}

func (m model) requestRefreshCmd() tea.Cmd {
	ctx, syncer := m.ctx, m.sess.Synchronizer()
	return func() tea.Msg {
		return refreshDoneMsg{err: syncer.RequestRefresh(ctx)}
	}
}

func (m model) loadHistoryCmd() tea.Cmd {
	store, ok := m.sess.Journal()
	if !ok {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		entries, err := store.List(ctx, journal.ListInput{Limit: historyLimit})
		return historyLoadedMsg{entries: entries, err: err}
	}
}

// refreshViewCmd reloads whatever backs the active view.
func (m model) refreshViewCmd() tea.Cmd {
	if m.activeView == viewHistory {
		return m.loadHistoryCmd()
	}
	return m.requestRefreshCmd()
}
