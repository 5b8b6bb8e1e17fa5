package monitor

import "fmt"

// FormatBurnRate formats a token burn rate as "X.X tok/min"
func FormatBurnRate(rate float64) string {
	return fmt.Sprintf("%.1f tok/min", rate)
}

// FormatPercent formats a 0-100 score as "X%"
func FormatPercent(score int) string {
	return fmt.Sprintf("%d%%", score)
}

// FormatTokens formats a token count as "X tok" or "X.XK tok"
func FormatTokens(tokens int) string {
	if tokens >= 1000 || tokens <= -1000 {
		return fmt.Sprintf("%.1fK tok", float64(tokens)/1000)
	}
	return fmt.Sprintf("%d tok", tokens)
}

// FormatBytes formats a byte count as "X.X MB", "X.X KB" or "X B"
func FormatBytes(bytes int) string {
	const (
		KB = 1024
		MB = 1024 * KB
	)

	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatMinutes formats minutes as "Xh Ym" or "Xm"
func FormatMinutes(minutes int) string {
	if minutes < 0 {
		return "-" + FormatMinutes(-minutes)
	}
	hours := minutes / 60
	mins := minutes % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

// ratio clamps a 0-100 score to the 0-1 range progress bars expect.
func ratio(score int) float64 {
	switch {
	case score <= 0:
		return 0
	case score >= 100:
		return 1
	default:
		return float64(score) / 100
	}
}
