package monitor

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/alexcarney460-hue/skynet/pkg/skynet"
)

// Lipgloss styles (k9s-inspired color scheme)
var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	healthyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	criticalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("160")).
			Bold(true)

	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(1, 2)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginTop(1)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	sparklineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51"))
)

// PressureBadge renders a pressure level with its severity color.
func PressureBadge(l skynet.PressureLevel) string {
	switch l {
	case skynet.PressureLow:
		return healthyStyle.Render("● LOW")
	case skynet.PressureModerate:
		return warningStyle.Render("● MODERATE")
	case skynet.PressureHigh:
		return errorStyle.Render("▲ HIGH")
	case skynet.PressureCritical:
		return criticalStyle.Render(" ✗ CRITICAL ")
	default:
		return dimStyle.Render("? " + string(l))
	}
}

// VerbosityBadge renders a verbosity state.
func VerbosityBadge(v skynet.VerbosityState) string {
	switch v {
	case skynet.VerbosityOptimal:
		return healthyStyle.Render("✓ OPTIMAL")
	case skynet.VerbosityDrifting:
		return warningStyle.Render("⚠ DRIFTING")
	case skynet.VerbosityExcessive:
		return errorStyle.Render("✗ EXCESSIVE")
	default:
		return dimStyle.Render("? " + string(v))
	}
}

// StabilityBadge renders a stability state.
func StabilityBadge(s skynet.StabilityState) string {
	switch s {
	case skynet.StabilityStable:
		return healthyStyle.Render("✓ STABLE")
	case skynet.StabilityDecaying:
		return warningStyle.Render("⚠ DECAYING")
	case skynet.StabilityFragile:
		return errorStyle.Render("✗ FRAGILE")
	default:
		return dimStyle.Render("? " + string(s))
	}
}

func flag(on bool) string {
	if on {
		return warningStyle.Render("yes")
	}
	return dimStyle.Render("no")
}
