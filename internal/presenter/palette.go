package presenter

import "github.com/raysh454/phishguard/internal/model"

// Badge colors per risk level.
const (
	ColorSafe       = "#10B981"
	ColorSuspicious = "#F59E0B"
	ColorDangerous  = "#EF4444"
	ColorUnknown    = "#6B7280"
)

// Icons per risk level.
const (
	IconSafe       = "✓"
	IconSuspicious = "⚠"
	IconDangerous  = "✗"
	IconUnknown    = "❓"
)

// ColorFor maps a risk level to its badge color. Anything unrecognised is gray.
func ColorFor(level model.RiskLevel) string {
	switch level {
	case model.RiskSafe:
		return ColorSafe
	case model.RiskSuspicious:
		return ColorSuspicious
	case model.RiskDangerous:
		return ColorDangerous
	default:
		return ColorUnknown
	}
}

// IconFor maps a risk level to its icon.
func IconFor(level model.RiskLevel) string {
	switch level {
	case model.RiskSafe:
		return IconSafe
	case model.RiskSuspicious:
		return IconSuspicious
	case model.RiskDangerous:
		return IconDangerous
	default:
		return IconUnknown
	}
}
