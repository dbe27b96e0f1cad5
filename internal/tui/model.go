package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/table"
	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"

	"github.com/dwizi/commentctl/internal/config"
	"github.com/dwizi/commentctl/internal/consoleerr"
	"github.com/dwizi/commentctl/internal/form"
	"github.com/dwizi/commentctl/internal/journal"
	"github.com/dwizi/commentctl/internal/livesync"
	"github.com/dwizi/commentctl/internal/session"
	"github.com/dwizi/commentctl/internal/tasks"
)

type focusZone int

const (
	focusSidebar focusZone = iota
	focusWorkbench
	focusInspector
	focusHelp
)

type viewID string

const (
	viewOverview viewID = "overview"
	viewLaunch   viewID = "launch"
	viewTasks    viewID = "tasks"
	viewHistory  viewID = "history"
	viewActivity viewID = "activity"
)

const clockInterval = time.Second

type clockTickMsg time.Time

type formInputs struct {
	tokens      textinput.Model
	comments    textinput.Model
	postID      textinput.Model
	minDelay    textinput.Model
	maxDelay    textinput.Model
	delayValues textinput.Model
	mentionID   textinput.Model
	mentionName textinput.Model
}

type model struct {
	ctx         context.Context
	cfg         config.Config
	logger      *slog.Logger
	sess        *session.Session
	startupInfo string
	quitting    bool

	width  int
	height int
	clock  time.Time

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	focus        focusZone
	activeView   viewID
	sidebarIndex int

	inputs     formInputs
	formFields []form.Field
	formIndex  int

	tasks       []tasks.TaskSummary
	tasksTable  table.Model
	stopInput   textinput.Model
	stopEditing bool
	detail      *livesync.Detail

	history      []journal.Entry
	historyTable table.Model

	activityViewport  viewport.Model
	inspectorViewport viewport.Model

	pendingActions int
	statusText     string
	errorText      string
}

func newModel(ctx context.Context, sess *session.Session, startupInfo string, logger *slog.Logger) model {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = slog.Default()
	}
	t := newTheme()
	spin := spinner.New(spinner.WithSpinner(spinner.Dot))
	spin.Style = t.spinner

	m := model{
		ctx:         ctx,
		cfg:         sess.Config(),
		logger:      logger,
		sess:        sess,
		startupInfo: startupInfo,
		clock:       time.Now(),
		keys:        newKeyMap(),
		help:        help.New(),
		spinner:     spin,
		focus:       focusSidebar,
		activeView:  viewOverview,
		inputs: formInputs{
			tokens:      newInput("/path/to/tokens.txt", 0),
			comments:    newInput("/path/to/comments.txt", 0),
			postID:      newInput("123456789_987654321", 128),
			minDelay:    newInput("60", 6),
			maxDelay:    newInput("120", 6),
			delayValues: newInput("5, 10, 15", 256),
			mentionID:   newInput("profile id", 64),
			mentionName: newInput("display name", 128),
		},
		stopInput: newInput("task id", 64),
		tasksTable: table.New(
			table.WithColumns(taskColumns(60)),
			table.WithHeight(8),
		),
		historyTable: table.New(
			table.WithColumns(historyColumns(60)),
			table.WithHeight(8),
		),
		activityViewport:  viewport.New(viewport.WithWidth(60), viewport.WithHeight(10)),
		inspectorViewport: viewport.New(viewport.WithWidth(40), viewport.WithHeight(10)),
	}
	m.pullInputs()
	m.syncFromSession()
	return m
}

func newInput(placeholder string, limit int) textinput.Model {
	input := textinput.New()
	input.Prompt = "› "
	input.Placeholder = placeholder
	input.CharLimit = limit
	return input
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, clockTickCmd())
}

func clockTickCmd() tea.Cmd {
	return tea.Tick(clockInterval, func(at time.Time) tea.Msg {
		return clockTickMsg(at)
	})
}

func (m model) View() tea.View {
	view := tea.NewView(m.renderView())
	view.AltScreen = true
	return view
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.resizeWidgets()
		return m, nil
	case clockTickMsg:
		m.clock = time.Time(typed)
		m.syncFromSession()
		return m, clockTickCmd()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(typed)
		return m, cmd
	case uploadDoneMsg:
		m.finishAction()
		switch {
		case typed.err == nil:
			m.errorText = ""
			m.statusText = fmt.Sprintf("%s bound to %s", typed.kind, typed.resource.SourceName)
		case errors.Is(typed.err, consoleerr.ErrControlBusy):
			m.statusText = fmt.Sprintf("%s upload already in progress", typed.kind)
		default:
			m.errorText = consoleerr.UserMessage(typed.err)
		}
		m.syncFromSession()
		return m, nil
	case startDoneMsg:
		m.finishAction()
		if typed.err != nil {
			m.handleStartError(typed.err)
			m.syncFromSession()
			return m.withFocus()
		}
		m.errorText = ""
		m.statusText = "task " + typed.result.TaskID + " started"
		m.inputs.tokens.SetValue("")
		m.inputs.comments.SetValue("")
		m.pullInputs()
		m.syncFromSession()
		return m.withFocus()
	case stopDoneMsg:
		m.finishAction()
		switch {
		case typed.err == nil:
			m.errorText = ""
			m.statusText = typed.message
			if m.detail != nil && m.detail.TaskID == typed.taskID {
				m.detail = nil
			}
		case errors.Is(typed.err, consoleerr.ErrControlBusy):
			m.statusText = "stop already in progress"
		default:
			m.errorText = consoleerr.UserMessage(typed.err)
		}
		m.pullInputs()
		m.syncFromSession()
		return m, nil
	case detailLoadedMsg:
		m.finishAction()
		if typed.err != nil {
			m.errorText = consoleerr.UserMessage(typed.err)
			return m, nil
		}
		detail := typed.detail
		m.detail = &detail
		m.errorText = ""
		m.statusText = "loaded status for " + detail.TaskID
		m.refreshInspector()
		return m, nil
	case refreshDoneMsg:
		m.finishAction()
		if typed.err != nil && !errors.Is(typed.err, consoleerr.ErrRefreshSkipped) {
			m.errorText = consoleerr.UserMessage(typed.err)
		} else if typed.err == nil {
			m.statusText = "task list refreshed"
		}
		m.syncFromSession()
		return m, nil
	case historyLoadedMsg:
		m.finishAction()
		if typed.err != nil {
			m.errorText = consoleerr.UserMessage(typed.err)
			return m, nil
		}
		m.history = typed.entries
		m.rebuildHistoryRows()
		m.refreshInspector()
		return m, nil
	case tea.KeyPressMsg:
		return m.handleKey(typed)
	}
	return m, nil
}

func (m *model) handleStartError(err error) {
	var validationErr *consoleerr.ValidationError
	switch {
	case errors.Is(err, consoleerr.ErrControlBusy):
		m.statusText = "start already in progress"
	case errors.As(err, &validationErr):
		m.errorText = validationErr.Message
		m.focusField(form.Field(validationErr.Field))
	default:
		m.errorText = consoleerr.UserMessage(err)
	}
}

func (m model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}
	if m.typing() {
		return m.handleTypingKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.FocusNext):
		m.focus = (m.focus + 1) % 4
		return m.withFocus()
	case key.Matches(msg, m.keys.FocusPrev):
		m.focus = (m.focus + 3) % 4
		return m.withFocus()
	case key.Matches(msg, m.keys.ToggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		m.resizeWidgets()
		return m, nil
	case key.Matches(msg, m.keys.View1):
		return m.switchView(viewOverview)
	case key.Matches(msg, m.keys.View2):
		return m.switchView(viewLaunch)
	case key.Matches(msg, m.keys.View3):
		return m.switchView(viewTasks)
	case key.Matches(msg, m.keys.View4):
		return m.switchView(viewHistory)
	case key.Matches(msg, m.keys.View5):
		return m.switchView(viewActivity)
	case key.Matches(msg, m.keys.Refresh):
		return m.run(m.refreshViewCmd())
	}

	switch m.focus {
	case focusSidebar:
		return m.handleSidebarKey(msg)
	case focusWorkbench:
		return m.handleWorkbenchKey(msg)
	case focusInspector:
		switch {
		case key.Matches(msg, m.keys.Up):
			m.inspectorViewport.ScrollUp(1)
		case key.Matches(msg, m.keys.Down):
			m.inspectorViewport.ScrollDown(1)
		}
		return m, nil
	case focusHelp:
		if key.Matches(msg, m.keys.Activate) {
			m.help.ShowAll = !m.help.ShowAll
			m.resizeWidgets()
		}
		return m, nil
	}
	return m, nil
}

// handleTypingKey routes keys while a text input owns the cursor. Only
// navigation and submit keys are intercepted; everything else is text.
func (m model) handleTypingKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.activeView == viewTasks {
			m.stopEditing = false
		} else {
			m.focus = focusSidebar
		}
		return m.withFocus()
	case "tab":
		m.stopEditing = false
		m.focus = (m.focus + 1) % 4
		return m.withFocus()
	case "shift+tab":
		m.stopEditing = false
		m.focus = (m.focus + 3) % 4
		return m.withFocus()
	case "up":
		if m.activeView == viewLaunch {
			m.moveField(-1)
			return m.withFocus()
		}
	case "down":
		if m.activeView == viewLaunch {
			m.moveField(1)
			return m.withFocus()
		}
	case "ctrl+s":
		if m.activeView == viewLaunch {
			return m.run(m.submitCmd())
		}
	case "enter":
		return m.activateTyping()
	}

	var cmd tea.Cmd
	if m.activeView == viewTasks && m.stopEditing {
		m.stopInput, cmd = m.stopInput.Update(msg)
	} else if input := m.currentInput(); input != nil {
		*input, cmd = input.Update(msg)
	}
	m.pushInputs()
	return m, cmd
}

func (m model) activateTyping() (tea.Model, tea.Cmd) {
	if m.activeView == viewTasks && m.stopEditing {
		m.pushInputs()
		return m.run(m.stopFormCmd())
	}
	switch m.currentField() {
	case form.FieldTokens:
		return m.run(m.uploadCmd(tasks.KindTokens, m.inputs.tokens.Value()))
	case form.FieldComments:
		return m.run(m.uploadCmd(tasks.KindComments, m.inputs.comments.Value()))
	}
	m.pushInputs()
	return m.run(m.submitCmd())
}

func (m model) handleSidebarKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	views := allViews()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.sidebarIndex > 0 {
			m.sidebarIndex--
		}
	case key.Matches(msg, m.keys.Down):
		if m.sidebarIndex < len(views)-1 {
			m.sidebarIndex++
		}
	case key.Matches(msg, m.keys.Activate):
		updated, cmd := m.switchView(views[m.sidebarIndex])
		next := updated.(model)
		next.focus = focusWorkbench
		focusCmd := next.applyFocusCmd()
		return next, tea.Batch(cmd, focusCmd)
	}
	return m, nil
}

func (m model) handleWorkbenchKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.activeView {
	case viewLaunch:
		switch {
		case key.Matches(msg, m.keys.Up):
			m.moveField(-1)
			return m.withFocus()
		case key.Matches(msg, m.keys.Down):
			m.moveField(1)
			return m.withFocus()
		case key.Matches(msg, m.keys.Toggle), key.Matches(msg, m.keys.Activate):
			m.toggleCurrentField()
			return m.withFocus()
		case key.Matches(msg, m.keys.Submit):
			return m.run(m.submitCmd())
		}
	case viewTasks:
		switch {
		case key.Matches(msg, m.keys.Up):
			m.tasksTable.MoveUp(1)
			m.refreshInspector()
		case key.Matches(msg, m.keys.Down):
			m.tasksTable.MoveDown(1)
			m.refreshInspector()
		case key.Matches(msg, m.keys.Activate):
			if selected, ok := m.selectedTask(); ok {
				return m.run(m.inspectCmd(selected.TaskID))
			}
		case key.Matches(msg, m.keys.StopSelected):
			if selected, ok := m.selectedTask(); ok {
				return m.run(m.stopTaskCmd(selected.TaskID))
			}
			m.errorText = "no task selected"
		case key.Matches(msg, m.keys.EditStopID):
			m.stopEditing = true
			return m.withFocus()
		}
	case viewHistory:
		switch {
		case key.Matches(msg, m.keys.Up):
			m.historyTable.MoveUp(1)
			m.refreshInspector()
		case key.Matches(msg, m.keys.Down):
			m.historyTable.MoveDown(1)
			m.refreshInspector()
		case key.Matches(msg, m.keys.Activate):
			if entry, ok := m.selectedHistory(); ok {
				return m.run(m.inspectCmd(entry.TaskID))
			}
		}
	case viewActivity:
		switch {
		case key.Matches(msg, m.keys.Up):
			m.activityViewport.ScrollUp(1)
		case key.Matches(msg, m.keys.Down):
			m.activityViewport.ScrollDown(1)
		case key.Matches(msg, m.keys.Dismiss):
			if active := m.sess.Alerts().Active(); len(active) > 0 {
				m.sess.Alerts().Dismiss(active[0].ID)
				m.syncFromSession()
			}
		}
	}
	return m, nil
}

func (m model) switchView(view viewID) (tea.Model, tea.Cmd) {
	m.activeView = view
	m.sidebarIndex = sidebarIndexForView(view)
	m.stopEditing = false
	m.errorText = ""
	m.refreshInspector()
	var cmd tea.Cmd
	if view == viewHistory {
		if cmd = m.loadHistoryCmd(); cmd != nil {
			m.pendingActions++
		}
	}
	focusCmd := m.applyFocusCmd()
	return m, tea.Batch(cmd, focusCmd)
}

// withFocus reapplies input focus on a copy and returns it.
func (m model) withFocus() (tea.Model, tea.Cmd) {
	cmd := m.applyFocusCmd()
	return m, cmd
}

// applyFocusCmd focuses the one text input that owns the cursor, if any.
func (m *model) applyFocusCmd() tea.Cmd {
	m.blurAll()
	if m.focus != focusWorkbench {
		return nil
	}
	switch m.activeView {
	case viewLaunch:
		if input := m.currentInput(); input != nil {
			return input.Focus()
		}
	case viewTasks:
		if m.stopEditing {
			return m.stopInput.Focus()
		}
	}
	return nil
}

func (m *model) blurAll() {
	for _, field := range []form.Field{
		form.FieldTokens, form.FieldComments, form.FieldPostID, form.FieldMinDelay,
		form.FieldMaxDelay, form.FieldDelayValues, form.FieldMentionID, form.FieldMentionName,
	} {
		m.inputFor(field).Blur()
	}
	m.stopInput.Blur()
}

func (m model) typing() bool {
	if m.focus != focusWorkbench {
		return false
	}
	switch m.activeView {
	case viewLaunch:
		input := m.currentInput()
		return input != nil && input.Focused()
	case viewTasks:
		return m.stopEditing && m.stopInput.Focused()
	}
	return false
}

func (m *model) inputFor(field form.Field) *textinput.Model {
	switch field {
	case form.FieldTokens:
		return &m.inputs.tokens
	case form.FieldComments:
		return &m.inputs.comments
	case form.FieldPostID:
		return &m.inputs.postID
	case form.FieldMinDelay:
		return &m.inputs.minDelay
	case form.FieldMaxDelay:
		return &m.inputs.maxDelay
	case form.FieldDelayValues:
		return &m.inputs.delayValues
	case form.FieldMentionID:
		return &m.inputs.mentionID
	case form.FieldMentionName:
		return &m.inputs.mentionName
	default:
		return nil
	}
}

func (m model) currentField() form.Field {
	if len(m.formFields) == 0 {
		return ""
	}
	return m.formFields[clampInt(m.formIndex, 0, len(m.formFields)-1)]
}

func (m *model) currentInput() *textinput.Model {
	return m.inputFor(m.currentField())
}

func (m *model) moveField(delta int) {
	leaving := m.currentField()
	if leaving == form.FieldMinDelay || leaving == form.FieldMaxDelay {
		m.pushInputs()
		m.sess.Form().Update(func(state *form.State) {
			*state = form.AdjustDelayRange(*state)
		})
		m.pullInputs()
	}
	if len(m.formFields) == 0 {
		return
	}
	m.formIndex = clampInt(m.formIndex+delta, 0, len(m.formFields)-1)
	m.refreshInspector()
}

func (m *model) focusField(field form.Field) {
	for index, item := range m.formFields {
		if item == field {
			m.formIndex = index
			return
		}
	}
}

func (m *model) toggleCurrentField() {
	switch m.currentField() {
	case form.FieldDelayMode:
		m.sess.Form().Update(func(state *form.State) {
			if state.DelayMode == tasks.DelayAccurate {
				state.DelayMode = tasks.DelayRandom
			} else {
				state.DelayMode = tasks.DelayAccurate
			}
		})
	case form.FieldMentions:
		m.sess.Form().Update(func(state *form.State) {
			state.MentionsEnabled = !state.MentionsEnabled
		})
	default:
		return
	}
	current := m.currentField()
	m.pullInputs()
	m.focusField(current)
	m.refreshInspector()
}

// pushInputs copies the text inputs into the session form. File paths stay
// local; the binder holds what was actually uploaded.
func (m *model) pushInputs() {
	m.sess.Form().Update(func(state *form.State) {
		state.PostID = m.inputs.postID.Value()
		state.MinDelay = m.inputs.minDelay.Value()
		state.MaxDelay = m.inputs.maxDelay.Value()
		state.DelayValues = m.inputs.delayValues.Value()
		state.MentionID = m.inputs.mentionID.Value()
		state.MentionName = m.inputs.mentionName.Value()
		state.StopTaskID = m.stopInput.Value()
	})
}

func (m *model) pullInputs() {
	state := m.sess.Form().Snapshot()
	m.inputs.postID.SetValue(state.PostID)
	m.inputs.minDelay.SetValue(state.MinDelay)
	m.inputs.maxDelay.SetValue(state.MaxDelay)
	m.inputs.delayValues.SetValue(state.DelayValues)
	m.inputs.mentionID.SetValue(state.MentionID)
	m.inputs.mentionName.SetValue(state.MentionName)
	m.stopInput.SetValue(state.StopTaskID)
	m.formFields = form.VisibleFields(state)
	if m.formIndex >= len(m.formFields) {
		m.formIndex = len(m.formFields) - 1
	}
	if m.formIndex < 0 {
		m.formIndex = 0
	}
}

// syncFromSession pulls the synchronizer's collection and the alert queue
// into the widgets. It runs on every clock tick.
func (m *model) syncFromSession() {
	m.tasks = m.sess.Synchronizer().Tasks()
	m.rebuildTaskRows()
	m.refreshActivity()
	m.refreshInspector()
}

func (m *model) rebuildTaskRows() {
	rows := make([]table.Row, 0, len(m.tasks))
	for _, item := range m.tasks {
		current := strings.TrimSpace(item.Stats.CurrentToken)
		if current == "" {
			current = "-"
		}
		rows = append(rows, table.Row{
			item.TaskID,
			fmt.Sprintf("%d", item.Stats.CommentsSent),
			fmt.Sprintf("%d", item.Stats.Errors),
			tasks.FormatSuccessRate(item.Stats.CommentsSent, item.Stats.Errors),
			tasks.FormatElapsed(item.Stats.StartedAt.Time, m.clock),
			current,
		})
	}
	m.tasksTable.SetRows(rows)
	if m.tasksTable.Cursor() >= len(rows) {
		m.tasksTable.SetCursor(maxInt(0, len(rows)-1))
	}
}

func (m *model) rebuildHistoryRows() {
	rows := make([]table.Row, 0, len(m.history))
	for _, entry := range m.history {
		state := "running"
		if !entry.Active() {
			state = "stopped"
		}
		rows = append(rows, table.Row{
			entry.TaskID,
			fallbackText(entry.PostID, "-"),
			entry.Delay,
			state,
			formatTime(entry.UpdatedAt),
		})
	}
	m.historyTable.SetRows(rows)
	if m.historyTable.Cursor() >= len(rows) {
		m.historyTable.SetCursor(maxInt(0, len(rows)-1))
	}
}

func (m model) selectedTask() (tasks.TaskSummary, bool) {
	index := m.tasksTable.Cursor()
	if index < 0 || index >= len(m.tasks) {
		return tasks.TaskSummary{}, false
	}
	return m.tasks[index], true
}

func (m model) selectedHistory() (journal.Entry, bool) {
	index := m.historyTable.Cursor()
	if index < 0 || index >= len(m.history) {
		return journal.Entry{}, false
	}
	return m.history[index], true
}

func (m *model) refreshActivity() {
	history := m.sess.Alerts().History()
	lines := make([]string, 0, len(history))
	for index := len(history) - 1; index >= 0; index-- {
		alert := history[index]
		lines = append(lines, fmt.Sprintf("%s [%s] %s", alert.CreatedAt.Local().Format("15:04:05"), strings.ToUpper(string(alert.Level)), alert.Message))
	}
	if len(lines) == 0 {
		lines = append(lines, "no events yet")
	}
	m.activityViewport.SetContent(strings.Join(lines, "\n"))
}

func (m *model) refreshInspector() {
	var content string
	switch m.activeView {
	case viewLaunch:
		content = m.renderLaunchInspectorText()
	case viewTasks:
		content = m.renderTasksInspectorText()
	case viewHistory:
		content = m.renderHistoryInspectorText()
	case viewActivity:
		content = m.renderActivityInspectorText()
	default:
		content = m.renderOverviewInspectorText()
	}
	m.inspectorViewport.SetContent(content)
}

func (m *model) resizeWidgets() {
	layout := computeLayout(m.width, m.height)
	mainWidth, mainHeight := layout.workbenchSize()
	inspectorWidth, inspectorHeight := layout.inspectorSize()

	m.help.SetWidth(layout.Width - 4)
	m.tasksTable.SetColumns(taskColumns(mainWidth))
	m.tasksTable.SetWidth(mainWidth)
	m.tasksTable.SetHeight(maxInt(3, mainHeight-primaryTopOffset-6))
	m.historyTable.SetColumns(historyColumns(mainWidth))
	m.historyTable.SetWidth(mainWidth)
	m.historyTable.SetHeight(maxInt(3, mainHeight-primaryTopOffset-3))
	m.activityViewport.SetWidth(mainWidth)
	m.activityViewport.SetHeight(maxInt(3, mainHeight-primaryTopOffset-3))
	m.inspectorViewport.SetWidth(inspectorWidth)
	m.inspectorViewport.SetHeight(inspectorHeight)

	inputWidth := maxInt(10, mainWidth-22)
	for _, field := range []form.Field{
		form.FieldTokens, form.FieldComments, form.FieldPostID, form.FieldMinDelay,
		form.FieldMaxDelay, form.FieldDelayValues, form.FieldMentionID, form.FieldMentionName,
	} {
		m.inputFor(field).SetWidth(inputWidth)
	}
	m.stopInput.SetWidth(maxInt(10, mainWidth/2))
	m.refreshInspector()
}

// run marks an action as pending and hands cmd to the runtime.
func (m model) run(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	if cmd == nil {
		return m, nil
	}
	m.pendingActions++
	m.errorText = ""
	return m, cmd
}

func (m *model) finishAction() {
	if m.pendingActions > 0 {
		m.pendingActions--
	}
}

func (m model) busy() bool {
	if m.pendingActions > 0 {
		return true
	}
	_, loading := m.sess.Alerts().Loading()
	return loading
}

func taskColumns(width int) []table.Column {
	fixed := 12 + 6 + 7 + 8 + 9
	return []table.Column{
		{Title: "Task", Width: 12},
		{Title: "Sent", Width: 6},
		{Title: "Errors", Width: 7},
		{Title: "Success", Width: 8},
		{Title: "Running", Width: 9},
		{Title: "Current", Width: maxInt(8, width-fixed-12)},
	}
}

func historyColumns(width int) []table.Column {
	fixed := 12 + 9 + 8 + 17
	return []table.Column{
		{Title: "Task", Width: 12},
		{Title: "Post", Width: maxInt(8, width-fixed-10)},
		{Title: "Delay", Width: 9},
		{Title: "State", Width: 8},
		{Title: "Updated", Width: 17},
	}
}

func allViews() []viewID {
	return []viewID{viewOverview, viewLaunch, viewTasks, viewHistory, viewActivity}
}

func sidebarIndexForView(view viewID) int {
	for index, item := range allViews() {
		if item == view {
			return index
		}
	}
	return 0
}

func viewLabel(view viewID) string {
	switch view {
	case viewLaunch:
		return "Launch"
	case viewTasks:
		return "Tasks"
	case viewHistory:
		return "History"
	case viewActivity:
		return "Activity"
	default:
		return "Overview"
	}
}

func focusLabel(focus focusZone) string {
	switch focus {
	case focusWorkbench:
		return "workbench"
	case focusInspector:
		return "inspector"
	case focusHelp:
		return "help"
	default:
		return "sidebar"
	}
}

func fallbackText(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Local().Format("01-02 15:04:05")
}
