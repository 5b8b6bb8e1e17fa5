package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/alexcarney460-hue/skynet/pkg/skynet"
)

const barWidth = 30

func bar(from, to string) progress.Model {
	return progress.New(
		progress.WithGradient(from, to),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
}

// healthBar runs green to red; riskBar the other way.
func healthBar() progress.Model { return bar("#ff0000", "#00ff00") }
func riskBar() progress.Model   { return bar("#00ff00", "#ff0000") }

func row(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("  %-18s", label)) + value + "\n"
}

func meter(m progress.Model, score int) string {
	return m.ViewAs(ratio(score)) + " " + valueStyle.Render(FormatPercent(score))
}

func title(name string, fallback bool) string {
	s := headerStyle.Render(" " + name + " ")
	if fallback {
		s += "  " + dimStyle.Render("(fallback: service unavailable)")
	}
	return s + "\n"
}

// RenderPressure renders a pressure assessment as a bordered panel.
func RenderPressure(a skynet.PressureAssessment, fallback bool) string {
	var b strings.Builder
	b.WriteString(title("Cognitive Pressure", fallback))
	b.WriteString(row("Level:", PressureBadge(a.Level)))
	b.WriteString(row("Viability:", meter(healthBar(), a.SessionViability)))
	b.WriteString(row("Memory pressure:", meter(riskBar(), a.MemoryPressure)))
	b.WriteString(row("Context drift:", meter(riskBar(), a.ContextDrift)))
	b.WriteString(row("Token burn:", valueStyle.Render(FormatBurnRate(a.TokenBurnRate))))
	b.WriteString(sectionStyle.Render("┃ Recommendations") + "\n")
	b.WriteString(row("Compress:", flag(a.ShouldCompress)))
	b.WriteString(row("Optimize:", flag(a.ShouldOptimize)))
	b.WriteString(row("Terminate:", flag(a.ShouldTerminate)))
	return containerStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// RenderVerbosity renders a verbosity assessment as a bordered panel.
func RenderVerbosity(v skynet.VerbosityAssessment, fallback bool) string {
	var b strings.Builder
	b.WriteString(title("Output Verbosity", fallback))
	b.WriteString(row("State:", VerbosityBadge(v.State)))
	b.WriteString(row("Token impact:", valueStyle.Render(v.TokenImpact)))
	b.WriteString(row("Avg output:", valueStyle.Render(FormatTokens(v.AvgOutputLength))))
	b.WriteString(row("Baseline:", valueStyle.Render(FormatTokens(v.BaselineOutputLength))))
	b.WriteString(row("Drift:", valueStyle.Render(FormatPercent(v.DriftPercentage))))
	b.WriteString(sectionStyle.Render("┃ Recommendations") + "\n")
	if at, ok := v.TruncateAt(); ok {
		b.WriteString(row("Truncate at:", warningStyle.Render(FormatTokens(at))))
	} else {
		b.WriteString(row("Truncate at:", dimStyle.Render("none")))
	}
	b.WriteString(row("Reduce detail:", flag(v.ReduceDetailLevel)))
	b.WriteString(row("Skip commentary:", flag(v.SkipMetaCommentary)))
	return containerStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// RenderHalfLife renders a half-life estimate as a bordered panel.
func RenderHalfLife(h skynet.HalfLifeAssessment, fallback bool) string {
	var b strings.Builder
	b.WriteString(title("Session Half-Life", fallback))
	b.WriteString(row("Stability:", StabilityBadge(h.Stability)))
	b.WriteString(row("Score:", meter(healthBar(), h.StabilityScore)))
	b.WriteString(row("Half-life:", valueStyle.Render(FormatMinutes(h.HalfLifeMinutes))))
	b.WriteString(row("Remaining:", valueStyle.Render(FormatMinutes(h.RemainingUsefulLifeMinutes))))
	b.WriteString(sectionStyle.Render("┃ Recommendations") + "\n")
	b.WriteString(row("Checkpoint:", flag(h.ShouldCheckpoint)))
	b.WriteString(row("Compress:", flag(h.ShouldCompress)))
	b.WriteString(row("Terminate:", flag(h.ShouldTerminate)))
	if !h.ShouldTerminate {
		b.WriteString(row("Critical in:", valueStyle.Render(FormatMinutes(h.MinutesToCritical))))
	}
	return containerStyle.Render(strings.TrimRight(b.String(), "\n"))
}
