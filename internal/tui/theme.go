package tui

import (
	"charm.land/lipgloss/v2"

	"github.com/dwizi/commentctl/internal/notify"
)

type theme struct {
	appBG lipgloss.Style
	brand lipgloss.Style

	headerBox lipgloss.Style
	headerSub lipgloss.Style

	sidebarBox      lipgloss.Style
	sidebarTitle    lipgloss.Style
	sidebarItem     lipgloss.Style
	sidebarActive   lipgloss.Style
	sidebarInactive lipgloss.Style

	panelBox     lipgloss.Style
	panelTitle   lipgloss.Style
	panelSubtle  lipgloss.Style
	panelAccent  lipgloss.Style
	panelWarn    lipgloss.Style
	panelError   lipgloss.Style
	panelSuccess lipgloss.Style

	footerBox  lipgloss.Style
	footerInfo lipgloss.Style
	footerErr  lipgloss.Style
	footerWarn lipgloss.Style
	footerOK   lipgloss.Style
	footerKey  lipgloss.Style

	chipInfo    lipgloss.Style
	chipWarn    lipgloss.Style
	chipError   lipgloss.Style
	chipSuccess lipgloss.Style

	cardValue lipgloss.Style
	cardLabel lipgloss.Style

	fieldLabel       lipgloss.Style
	fieldLabelActive lipgloss.Style
	toggleOn         lipgloss.Style
	toggleOff        lipgloss.Style

	spinner lipgloss.Style
}

func newTheme() theme {
	border := lipgloss.Color("238")
	text := lipgloss.Color("252")
	muted := lipgloss.Color("246")
	subtle := lipgloss.Color("243")
	accent := lipgloss.Color("75")
	success := lipgloss.Color("78")
	warn := lipgloss.Color("214")
	danger := lipgloss.Color("203")

	return theme{
		appBG: lipgloss.NewStyle().Foreground(text),
		brand: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),

		headerBox: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(border).
			Padding(0, 1),
		headerSub: lipgloss.NewStyle().Foreground(muted),

		sidebarBox:   lipgloss.NewStyle().Padding(0, 1),
		sidebarTitle: lipgloss.NewStyle().Bold(true).Foreground(accent),
		sidebarItem: lipgloss.NewStyle().
			Foreground(text).
			Padding(0, 1),
		sidebarActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Underline(true).
			Padding(0, 1),
		sidebarInactive: lipgloss.NewStyle().Foreground(subtle),

		panelBox:     lipgloss.NewStyle().Padding(0, 1),
		panelTitle:   lipgloss.NewStyle().Bold(true).Foreground(accent),
		panelSubtle:  lipgloss.NewStyle().Foreground(muted),
		panelAccent:  lipgloss.NewStyle().Foreground(lipgloss.Color("153")),
		panelWarn:    lipgloss.NewStyle().Foreground(warn),
		panelError:   lipgloss.NewStyle().Foreground(danger),
		panelSuccess: lipgloss.NewStyle().Foreground(success),

		footerBox: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(border).
			Padding(0, 1),
		footerInfo: lipgloss.NewStyle().Foreground(text),
		footerErr:  lipgloss.NewStyle().Bold(true).Foreground(danger),
		footerWarn: lipgloss.NewStyle().Bold(true).Foreground(warn),
		footerOK:   lipgloss.NewStyle().Bold(true).Foreground(success),
		footerKey:  lipgloss.NewStyle().Bold(true).Foreground(accent),

		chipInfo:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		chipWarn:    lipgloss.NewStyle().Bold(true).Foreground(warn),
		chipError:   lipgloss.NewStyle().Bold(true).Foreground(danger),
		chipSuccess: lipgloss.NewStyle().Bold(true).Foreground(success),

		cardValue: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")),
		cardLabel: lipgloss.NewStyle().Foreground(muted),

		fieldLabel:       lipgloss.NewStyle().Foreground(muted),
		fieldLabelActive: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("147")),
		toggleOn:         lipgloss.NewStyle().Bold(true).Foreground(success),
		toggleOff:        lipgloss.NewStyle().Foreground(subtle),

		spinner: lipgloss.NewStyle().Bold(true).Foreground(warn),
	}
}

// alertStyle picks the footer style for an alert level.
func (t theme) alertStyle(level notify.Level) lipgloss.Style {
	switch level {
	case notify.LevelSuccess:
		return t.footerOK
	case notify.LevelWarning:
		return t.footerWarn
	case notify.LevelDanger:
		return t.footerErr
	default:
		return t.footerInfo
	}
}

func (t theme) alertChip(level notify.Level) lipgloss.Style {
	switch level {
	case notify.LevelSuccess:
		return t.chipSuccess
	case notify.LevelWarning:
		return t.chipWarn
	case notify.LevelDanger:
		return t.chipError
	default:
		return t.chipInfo
	}
}
