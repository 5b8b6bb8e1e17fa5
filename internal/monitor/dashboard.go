// Package monitor renders assessments for humans: static panels for the
// CLI and a live dashboard that polls a `skynet watch` server.
package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexcarney460-hue/skynet/internal/session"
	"github.com/alexcarney460-hue/skynet/pkg/skynet"
)

const (
	sparklineWidth  = 30
	sparklineHeight = 3
)

// Model is the BubbleTea dashboard model.
type Model struct {
	client     *StatusClient
	url        string
	interval   time.Duration
	lastUpdate time.Time
	status     session.Status
	err        error
	quitting   bool

	viability progress.Model
	stability progress.Model
}

// NewModel creates a dashboard polling the watch server at url.
func NewModel(url string, interval time.Duration) Model {
	return Model{
		client:    NewStatusClient(url),
		url:       url,
		interval:  interval,
		viability: healthBar(),
		stability: healthBar(),
	}
}

type tickMsg time.Time
type statusMsg session.Status
type errMsg error

// Init starts polling.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(m.interval), fetchStatus(m.client))
}

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchStatus(client *StatusClient) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		st, err := client.Fetch(ctx)
		if err != nil {
			return errMsg(err)
		}
		return statusMsg(st)
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, fetchStatus(m.client)
		}

	case tickMsg:
		return m, tea.Batch(tick(m.interval), fetchStatus(m.client))

	case statusMsg:
		m.status = session.Status(msg)
		m.lastUpdate = time.Now()
		m.err = nil
		return m, nil

	case errMsg:
		m.err = error(msg)
		return m, nil
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.err != nil {
		return m.renderError()
	}
	return m.renderDashboard()
}

func (m Model) renderError() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(" skynet Monitor ") + "\n\n")
	b.WriteString(errorStyle.Render("⚠ Cannot reach watch server") + "\n\n")
	b.WriteString(dimStyle.Render("URL: ") + valueStyle.Render(m.url) + "\n")
	b.WriteString(dimStyle.Render("Error: ") + errorStyle.Render(m.err.Error()) + "\n\n")
	b.WriteString(dimStyle.Render("Start one with: skynet watch --serve") + "\n")
	b.WriteString(footerStyle.Render("[q] quit  [r] retry"))
	return containerStyle.Render(b.String())
}

func createSparkline[T int | float64](data []T) string {
	if len(data) == 0 {
		return dimStyle.Render(fmt.Sprintf("%*s", sparklineWidth, "no data"))
	}
	spark := sparkline.New(sparklineWidth, sparklineHeight)
	for _, v := range data {
		spark.Push(float64(v))
	}
	spark.Draw()
	return sparklineStyle.Render(spark.View())
}

func (m Model) renderDashboard() string {
	var b strings.Builder

	updated := "Never"
	if !m.lastUpdate.IsZero() {
		updated = m.lastUpdate.Format("3:04:05 PM")
	}
	b.WriteString(headerStyle.Render(" skynet Monitor ") + "\n")
	b.WriteString(fmt.Sprintf("%s   %s %s   %s %s   %s\n",
		PressureBadge(m.status.Level),
		dimStyle.Render("Samples:"), valueStyle.Render(fmt.Sprintf("%d", m.status.Samples)),
		dimStyle.Render("Errors:"), valueStyle.Render(fmt.Sprintf("%d", m.status.ErrorCount)),
		dimStyle.Render(updated)))

	last := m.status.Last
	if last == nil {
		b.WriteString("\n" + dimStyle.Render("Waiting for the first sample...") + "\n")
		b.WriteString(m.footer())
		return containerStyle.Render(b.String())
	}

	b.WriteString("\n" + sectionStyle.Render("┃ Pressure"+fallbackNote(last, skynet.OpPressure)) + "\n")
	b.WriteString(row("Viability:", m.viability.ViewAs(ratio(last.Pressure.SessionViability))+" "+
		valueStyle.Render(FormatPercent(last.Pressure.SessionViability))))
	b.WriteString(row("Memory:", createSparkline(m.status.MemoryPressureHistory)))
	b.WriteString(row("Drift:", createSparkline(m.status.ContextDriftHistory)))
	b.WriteString(row("Burn rate:", createSparkline(m.status.TokenBurnRateHistory)+" "+
		valueStyle.Render(FormatBurnRate(last.Pressure.TokenBurnRate))))

	b.WriteString("\n" + sectionStyle.Render("┃ Verbosity"+fallbackNote(last, skynet.OpVerbosity)) + "\n")
	b.WriteString(row("State:", VerbosityBadge(last.Verbosity.State)+"  "+
		dimStyle.Render("drift ")+valueStyle.Render(FormatPercent(last.Verbosity.DriftPercentage))))

	b.WriteString("\n" + sectionStyle.Render("┃ Half-Life"+fallbackNote(last, skynet.OpHalfLife)) + "\n")
	b.WriteString(row("Stability:", StabilityBadge(last.HalfLife.Stability)))
	b.WriteString(row("Score:", m.stability.ViewAs(ratio(last.HalfLife.StabilityScore))+" "+
		valueStyle.Render(FormatPercent(last.HalfLife.StabilityScore))))
	b.WriteString(row("Remaining:", valueStyle.Render(FormatMinutes(last.HalfLife.RemainingUsefulLifeMinutes))))

	b.WriteString(m.footer())
	return containerStyle.Render(b.String())
}

func fallbackNote(r *session.Report, op string) string {
	if r.FellBack(op) {
		return dimStyle.Render("  (fallback)")
	}
	return ""
}

func (m Model) footer() string {
	return "\n" + footerKeyStyle.Render("[q]") + footerStyle.Render(" quit  ") +
		footerKeyStyle.Render("[r]") + footerStyle.Render(" refresh  ") +
		footerStyle.Render(fmt.Sprintf("Auto: %v", m.interval))
}
