package tui

import "strings"

const (
	compactWidthBreakpoint  = 110
	compactHeightBreakpoint = 26

	// primaryTopOffset keeps tables and forms on the same row in every view.
	primaryTopOffset = 4
)

type uiLayout struct {
	Width  int
	Height int

	Compact bool

	HeaderHeight int
	FooterHeight int
	BodyHeight   int

	SidebarWidth   int
	MainWidth      int
	InspectorWidth int

	CompactSidebarHeight   int
	CompactMainHeight      int
	CompactInspectorHeight int
}

func computeLayout(width, height int) uiLayout {
	if width < 40 {
		width = 40
	}
	if height < 16 {
		height = 16
	}

	layout := uiLayout{
		Width:        width,
		Height:       height,
		HeaderHeight: 4,
		FooterHeight: 4,
	}

	layout.Compact = width < compactWidthBreakpoint || height < compactHeightBreakpoint
	if layout.Compact {
		layout.SidebarWidth = width
		layout.MainWidth = width
		layout.InspectorWidth = width
		remaining := maxInt(7, height-layout.HeaderHeight-layout.FooterHeight)
		layout.CompactSidebarHeight = 3
		remaining -= layout.CompactSidebarHeight
		if remaining < 6 {
			remaining = 6
		}
		layout.CompactInspectorHeight = maxInt(4, remaining/3)
		layout.CompactMainHeight = maxInt(5, remaining-layout.CompactInspectorHeight)
		layout.BodyHeight = layout.CompactMainHeight
		return layout
	}

	layout.BodyHeight = maxInt(6, height-layout.HeaderHeight-layout.FooterHeight)
	layout.SidebarWidth = clampInt(width*16/100, 18, 26)
	layout.InspectorWidth = clampInt(width*32/100, 32, 54)
	layout.MainWidth = maxInt(30, width-layout.SidebarWidth-layout.InspectorWidth-2)
	return layout
}

// workbenchSize is the usable area inside the main pane.
func (l uiLayout) workbenchSize() (int, int) {
	if l.Compact {
		return maxInt(20, l.Width-4), maxInt(3, l.CompactMainHeight-2)
	}
	return maxInt(20, l.MainWidth-4), maxInt(3, l.BodyHeight-2)
}

func (l uiLayout) inspectorSize() (int, int) {
	if l.Compact {
		return maxInt(20, l.Width-4), maxInt(2, l.CompactInspectorHeight-2)
	}
	return maxInt(20, l.InspectorWidth-4), maxInt(3, l.BodyHeight-2)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clampInt(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

// stackSections lays out a workbench body: intro lines padded to
// primaryTopOffset, the primary block, then the non-empty tail lines.
func stackSections(intro, primary, tail []string) string {
	lines := make([]string, 0, primaryTopOffset+len(primary)+len(tail)+1)
	lines = append(lines, intro...)
	for len(lines) < primaryTopOffset {
		lines = append(lines, "")
	}
	lines = append(lines, primary...)
	first := true
	for _, line := range tail {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if first {
			lines = append(lines, "")
			first = false
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
