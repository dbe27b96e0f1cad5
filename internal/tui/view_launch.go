package tui

import (
	"fmt"
	"strings"

	"github.com/dwizi/commentctl/internal/consoleerr"
	"github.com/dwizi/commentctl/internal/form"
	"github.com/dwizi/commentctl/internal/tasks"
)

func fieldLabel(field form.Field) string {
	switch field {
	case form.FieldTokens:
		return "tokens file"
	case form.FieldComments:
		return "comments file"
	case form.FieldPostID:
		return "post id"
	case form.FieldDelayMode:
		return "delay mode"
	case form.FieldMinDelay:
		return "min delay (s)"
	case form.FieldMaxDelay:
		return "max delay (s)"
	case form.FieldDelayValues:
		return "delays (s)"
	case form.FieldMentions:
		return "mentions"
	case form.FieldMentionID:
		return "mention id"
	case form.FieldMentionName:
		return "mention name"
	default:
		return string(field)
	}
}

func (m model) renderLaunchWorkbenchText(t theme, _ uiLayout) string {
	state := m.sess.Form().Snapshot()
	intro := []string{
		t.panelSubtle.Render("Bind both files, fill the post id, then start"),
		t.panelSubtle.Render("up/down fields | enter upload or start | space toggle | ctrl+s start"),
	}

	primary := make([]string, 0, len(m.formFields)+2)
	current := m.currentField()
	for _, field := range m.formFields {
		label := fmt.Sprintf("%-14s", fieldLabel(field))
		labelStyle := t.fieldLabel
		if field == current && m.focus == focusWorkbench {
			labelStyle = t.fieldLabelActive
		}
		primary = append(primary, labelStyle.Render(label)+" "+m.renderFieldValue(t, field, state))
	}

	tail := []string{}
	if m.sess.Controller().StartBusy() {
		tail = append(tail, t.panelWarn.Render(m.spinner.View()+" starting task..."))
	}
	if strings.TrimSpace(m.errorText) != "" {
		tail = append(tail, t.panelError.Render("error: "+m.errorText))
	}
	return stackSections(intro, primary, tail)
}

func (m model) renderFieldValue(t theme, field form.Field, state form.State) string {
	switch field {
	case form.FieldTokens, form.FieldComments:
		kind := tasks.KindTokens
		if field == form.FieldComments {
			kind = tasks.KindComments
		}
		input := m.inputs.tokens
		if kind == tasks.KindComments {
			input = m.inputs.comments
		}
		status := t.toggleOff.Render("unbound")
		switch {
		case m.sess.Controller().UploadBusy(kind):
			status = t.panelWarn.Render(m.spinner.View() + " uploading")
		default:
			if resource, ok := m.sess.Binder().Resource(kind); ok {
				status = t.panelSuccess.Render("bound " + resource.SourceName)
			}
		}
		return input.View() + "  " + status
	case form.FieldDelayMode:
		return renderChoice(t, state.DelayMode == tasks.DelayRandom, "random") + " " + renderChoice(t, state.DelayMode == tasks.DelayAccurate, "accurate")
	case form.FieldMentions:
		return renderChoice(t, !state.MentionsEnabled, "off") + " " + renderChoice(t, state.MentionsEnabled, "on")
	}
	if input := m.inputForView(field); input != "" {
		return input
	}
	return ""
}

func (m model) inputForView(field form.Field) string {
	switch field {
	case form.FieldPostID:
		return m.inputs.postID.View()
	case form.FieldMinDelay:
		return m.inputs.minDelay.View()
	case form.FieldMaxDelay:
		return m.inputs.maxDelay.View()
	case form.FieldDelayValues:
		return m.inputs.delayValues.View()
	case form.FieldMentionID:
		return m.inputs.mentionID.View()
	case form.FieldMentionName:
		return m.inputs.mentionName.View()
	}
	return ""
}

func renderChoice(t theme, selected bool, label string) string {
	if selected {
		return t.toggleOn.Render("(•) " + label)
	}
	return t.toggleOff.Render("( ) " + label)
}

func (m model) renderLaunchInspectorText() string {
	state := m.sess.Form().Snapshot()
	bindings := m.sess.Binder().Bindings()
	lines := []string{
		"Launch Preview",
		"",
		"tokens ref   " + fallbackText(bindings.Ref(tasks.KindTokens), "-"),
		"comments ref " + fallbackText(bindings.Ref(tasks.KindComments), "-"),
		"post id      " + fallbackText(strings.TrimSpace(state.PostID), "-"),
	}

	if err := form.Validate(state, bindings); err != nil {
		lines = append(lines, "", "Not ready", consoleerr.UserMessage(err))
		return strings.Join(lines, "\n")
	}
	cfg, err := form.Build(state, bindings)
	if err != nil {
		lines = append(lines, "", "Not ready", consoleerr.UserMessage(err))
		return strings.Join(lines, "\n")
	}
	lines = append(lines, "delay        "+cfg.Delay.Describe())
	if cfg.Mention != nil {
		lines = append(lines, fmt.Sprintf("mention      %s (%s)", cfg.Mention.Name, cfg.Mention.ID))
	}
	lines = append(lines, "", "Ready to start")
	return strings.Join(lines, "\n")
}
