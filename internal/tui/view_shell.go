package tui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

func (m model) renderView() string {
	if m.quitting {
		return "commentctl closed\n"
	}

	t := newTheme()
	layout := computeLayout(m.width, m.height)
	if layout.Compact {
		return m.renderCompactView(t, layout)
	}

	header := m.renderHeader(t, layout)
	sidebar := m.renderSidebar(t, layout)
	workbench := m.renderWorkbench(t, layout)
	inspector := m.renderInspector(t, layout)
	footer := m.renderFooter(t, layout)

	sep := t.panelSubtle.Render("│")
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, sep, workbench, sep, inspector)
	ui := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
	return t.appBG.Width(layout.Width).Height(layout.Height).Render(ui)
}

func (m model) renderCompactView(t theme, layout uiLayout) string {
	header := m.renderHeader(t, layout)
	nav := m.renderSidebar(t, layout)
	main := m.renderWorkbench(t, layout)
	inspector := m.renderInspector(t, layout)
	footer := m.renderFooter(t, layout)

	content := lipgloss.JoinVertical(lipgloss.Left, header, nav, main, inspector, footer)
	return t.appBG.Width(layout.Width).Height(layout.Height).Render(content)
}

func (m model) renderHeader(t theme, layout uiLayout) string {
	pollStatus := m.sess.Synchronizer().Status()
	statusChip := t.chipSuccess.Render("LIVE")
	switch {
	case m.busy():
		statusChip = t.chipWarn.Render(m.spinner.View() + " BUSY")
	case pollStatus.LastError != nil:
		statusChip = t.chipError.Render("OFFLINE")
	case pollStatus.LastSuccess.IsZero():
		statusChip = t.chipInfo.Render("CONNECTING")
	}

	style := sizedStyle(t.headerBox, layout.Width, layout.HeaderHeight)
	contentWidth := innerWidth(t.headerBox, layout.Width)

	lastSync := "never"
	if !pollStatus.LastSuccess.IsZero() {
		lastSync = pollStatus.LastSuccess.Local().Format("15:04:05")
	}
	line1 := fillLine(t.brand.Render("commentctl task console"), statusChip, contentWidth)
	line2 := fillLine(
		t.headerSub.Render(trimToWidth("env: "+fallbackText(m.cfg.Environment, "unset")+" | registry: "+m.sess.Client().BaseURL(), maxInt(20, contentWidth/2))),
		t.headerSub.Render(trimToWidth(fmt.Sprintf("tasks %d | synced %s | %s", len(m.tasks), lastSync, m.clock.Local().Format("15:04:05")), maxInt(20, contentWidth/2))),
		contentWidth,
	)

	return style.Render(strings.Join([]string{line1, line2}, "\n"))
}

func (m model) renderSidebar(t theme, layout uiLayout) string {
	style := t.sidebarBox
	if layout.Compact {
		items := make([]string, 0, len(allViews()))
		for i, view := range allViews() {
			label := fmt.Sprintf("%d:%s", i+1, viewLabel(view))
			if view == m.activeView {
				label = t.sidebarActive.Render(label)
			} else {
				label = t.sidebarItem.Render(label)
			}
			items = append(items, label)
		}
		line := strings.Join(items, "  ")
		if m.focus == focusSidebar {
			line = paneLabel("nav", true) + " " + line
		}
		return sizedStyle(style, layout.Width, layout.CompactSidebarHeight).Render(trimToWidth(line, innerWidth(style, layout.Width)))
	}

	lines := []string{t.sidebarTitle.Render(paneLabel("Navigation", m.focus == focusSidebar)), ""}
	for index, view := range allViews() {
		cursor := " "
		if index == m.sidebarIndex {
			cursor = ">"
		}
		label := fmt.Sprintf("%s %d. %s%s", cursor, index+1, viewLabel(view), m.sidebarBadge(view))
		style := t.sidebarItem
		if view == m.activeView {
			style = t.sidebarActive
		}
		lines = append(lines, style.Render(trimToWidth(label, innerWidth(t.sidebarBox, layout.SidebarWidth)-2)))
	}

	lines = append(lines, "", t.sidebarInactive.Render("tab: next focus"), t.sidebarInactive.Render("enter: activate"))
	if m.typing() {
		lines = append(lines, t.sidebarInactive.Render("esc: leave field"))
	}

	return sizedStyle(style, layout.SidebarWidth, layout.BodyHeight).Render(strings.Join(lines, "\n"))
}

func (m model) sidebarBadge(view viewID) string {
	switch view {
	case viewTasks:
		if len(m.tasks) > 0 {
			return fmt.Sprintf(" (%d)", len(m.tasks))
		}
	case viewActivity:
		if active := len(m.sess.Alerts().Active()); active > 0 {
			return fmt.Sprintf(" [%d]", active)
		}
	}
	return ""
}

func (m model) renderWorkbench(t theme, layout uiLayout) string {
	var title string
	var content string

	switch m.activeView {
	case viewLaunch:
		title = "Launch"
		content = m.renderLaunchWorkbenchText(t, layout)
	case viewTasks:
		title = "Running Tasks"
		content = m.renderTasksWorkbenchText(t, layout)
	case viewHistory:
		title = "History"
		content = m.renderHistoryWorkbenchText(t, layout)
	case viewActivity:
		title = "Activity"
		content = m.renderActivityWorkbenchText(t, layout)
	default:
		title = "Overview"
		content = m.renderOverviewWorkbenchText(t, layout)
	}

	bodyWidth := layout.MainWidth
	bodyHeight := layout.BodyHeight
	if layout.Compact {
		bodyWidth = layout.Width
		bodyHeight = layout.CompactMainHeight
	}

	style := t.panelBox
	titleStyle := t.panelTitle
	if m.focus == focusWorkbench {
		titleStyle = t.panelAccent.Bold(true)
	}
	header := fillLine(titleStyle.Render(paneLabel(title, m.focus == focusWorkbench)), t.panelSubtle.Render(viewSubtitle(m.activeView)), innerWidth(style, bodyWidth))
	return sizedStyle(style, bodyWidth, bodyHeight).Render(header + "\n" + content)
}

func (m model) renderInspector(t theme, layout uiLayout) string {
	title := "Inspector"
	switch m.activeView {
	case viewActivity:
		title = "Session"
	case viewTasks:
		title = "Task Status"
	}

	width := layout.InspectorWidth
	height := layout.BodyHeight
	if layout.Compact {
		width = layout.Width
		height = layout.CompactInspectorHeight
	}

	style := t.panelBox
	titleStyle := t.panelTitle
	if m.focus == focusInspector {
		titleStyle = t.panelAccent.Bold(true)
	}
	head := fillLine(titleStyle.Render(paneLabel(title, m.focus == focusInspector)), t.panelSubtle.Render(string(m.activeView)), innerWidth(style, width))
	return sizedStyle(style, width, height).Render(head + "\n" + m.inspectorViewport.View())
}

func (m model) renderFooter(t theme, layout uiLayout) string {
	style := t.footerBox
	width := innerWidth(style, layout.Width)

	helpPrefix := ""
	if m.focus == focusHelp {
		helpPrefix = t.footerKey.Render("› ")
	}
	helpLine := t.footerInfo.Render(helpPrefix + m.help.View(m.keys))

	lines := []string{helpLine, m.renderNotice(t, width)}
	if strings.TrimSpace(m.startupInfo) != "" {
		lines = append(lines, t.footerWarn.Render(trimToWidth("startup: "+m.startupInfo, width)))
	}
	return sizedStyle(style, layout.Width, layout.FooterHeight).Render(strings.Join(lines, "\n"))
}

// renderNotice shows the loading notice first, then the newest live alert,
// then the local status line.
func (m model) renderNotice(t theme, width int) string {
	alerts := m.sess.Alerts()
	if loading, ok := alerts.Loading(); ok {
		return m.spinner.View() + " " + t.footerWarn.Render(trimToWidth(loading.Message, width-2))
	}
	if active := alerts.Active(); len(active) > 0 {
		latest := active[len(active)-1]
		text := latest.Message
		if len(active) > 1 {
			text = fmt.Sprintf("%s (+%d)", text, len(active)-1)
		}
		chip := t.alertChip(latest.Level).Render("[" + strings.ToUpper(string(latest.Level)) + "]")
		return chip + " " + t.alertStyle(latest.Level).Render(trimToWidth(text, width-lipgloss.Width(chip)-1))
	}
	if strings.TrimSpace(m.errorText) != "" {
		return t.footerErr.Render(trimToWidth("status: "+m.errorText, width))
	}
	return t.footerOK.Render(trimToWidth("status: "+fallbackText(m.statusText, "idle"), width))
}

func fillLine(left, right string, width int) string {
	if width <= 0 {
		return strings.TrimSpace(left + " " + right)
	}
	lw := lipgloss.Width(left)
	rw := lipgloss.Width(right)
	if lw+rw+1 > width {
		return trimToWidth(left+" "+right, width)
	}
	return left + strings.Repeat(" ", width-lw-rw) + right
}

func trimToWidth(value string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= width {
		return string(runes)
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

func sizedStyle(style lipgloss.Style, width, height int) lipgloss.Style {
	contentWidth := maxInt(1, width-style.GetHorizontalFrameSize())
	contentHeight := maxInt(1, height-style.GetVerticalFrameSize())
	return style.Width(contentWidth).Height(contentHeight)
}

func innerWidth(style lipgloss.Style, width int) int {
	return maxInt(1, width-style.GetHorizontalFrameSize())
}

func viewSubtitle(view viewID) string {
	switch view {
	case viewLaunch:
		return "upload, configure, start"
	case viewTasks:
		return "live status and stop"
	case viewHistory:
		return "local task journal"
	case viewActivity:
		return "alert feed"
	default:
		return "registry snapshot"
	}
}

func paneLabel(label string, focused bool) string {
	if focused {
		return "› " + label
	}
	return "  " + label
}
