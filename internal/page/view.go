package page

import (
	"math"
	"strconv"
	"strings"

	"github.com/raysh454/phishguard/internal/model"
	"github.com/raysh454/phishguard/internal/presenter"
)

// ButtonKind identifies an overlay action.
type ButtonKind string

const (
	ButtonProceed ButtonKind = "proceed"
	ButtonDismiss ButtonKind = "dismiss"
	ButtonReport  ButtonKind = "report"
)

// Button is one overlay action as shown to the user.
type Button struct {
	Kind  ButtonKind
	Label string
	Style string
}

// Palette is the overlay coloring for a risk level.
type Palette struct {
	Background string
	Border     string
	Text       string
}

var palettes = map[model.RiskLevel]Palette{
	model.RiskSafe:       {Background: "#ECFDF5", Border: presenter.ColorSafe, Text: "#065F46"},
	model.RiskSuspicious: {Background: "#FEF3C7", Border: presenter.ColorSuspicious, Text: "#92400E"},
	model.RiskDangerous:  {Background: "#FEE2E2", Border: presenter.ColorDangerous, Text: "#991B1B"},
}

var neutralPalette = Palette{Background: "#F3F4F6", Border: presenter.ColorUnknown, Text: "#374151"}

// PaletteFor returns the overlay colors for level.
func PaletteFor(level model.RiskLevel) Palette {
	if p, ok := palettes[level]; ok {
		return p
	}
	return neutralPalette
}

// View is everything an overlay shows for one controller snapshot.
type View struct {
	State           State
	URL             string
	Title           string
	Subtitle        string
	Icon            string
	Palette         Palette
	RiskLevel       model.RiskLevel
	ScorePercent    int
	Confidence      int
	Recommendations []string
	Buttons         []Button
}

// Render maps a snapshot to its view. It has no side effects.
func Render(s Snapshot) View {
	switch s.State {
	case StateLoading:
		return View{
			State:    StateLoading,
			URL:      s.URL,
			Title:    "Analyzing Link...",
			Subtitle: "PhishGuard is checking if this link is safe",
			Palette:  neutralPalette,
		}
	case StateResult:
		return renderResult(s)
	case StateError:
		return View{
			State:    StateError,
			URL:      s.URL,
			Title:    "Analysis Failed",
			Subtitle: s.Message,
			Icon:     presenter.IconSuspicious,
			Palette:  Palette{Background: neutralPalette.Background, Border: neutralPalette.Border, Text: presenter.ColorDangerous},
			Buttons: []Button{
				{Kind: ButtonProceed, Label: "Proceed Anyway", Style: "primary"},
				{Kind: ButtonDismiss, Label: "Go Back", Style: "secondary"},
			},
		}
	default:
		return View{State: StateIdle}
	}
}

func renderResult(s Snapshot) View {
	r := s.Result
	level := r.RiskLevel.Normalize()
	score := percent(r.RiskScore)

	v := View{
		State:           StateResult,
		URL:             s.URL,
		Title:           strings.ToUpper(string(level)) + " - Risk Score: " + strconv.Itoa(score) + "%",
		Icon:            presenter.IconFor(level),
		Palette:         PaletteFor(level),
		RiskLevel:       level,
		ScorePercent:    score,
		Confidence:      percent(r.Confidence),
		Recommendations: append([]string(nil), r.Recommendations...),
	}

	if r.AllowAccess {
		v.Buttons = append(v.Buttons, Button{Kind: ButtonProceed, Label: "Proceed to Site", Style: "primary"})
	} else {
		v.Buttons = append(v.Buttons, Button{Kind: ButtonProceed, Label: "⚠ Proceed Anyway (Not Recommended)", Style: "danger"})
	}
	v.Buttons = append(v.Buttons, Button{Kind: ButtonDismiss, Label: "Go Back to Safety", Style: "secondary"})
	if level != model.RiskSafe {
		v.Buttons = append(v.Buttons, Button{Kind: ButtonReport, Label: "Report Phishing", Style: "report"})
	}
	return v
}

// HasButton reports whether v offers the given action.
func (v View) HasButton(kind ButtonKind) bool {
	for _, b := range v.Buttons {
		if b.Kind == kind {
			return true
		}
	}
	return false
}

func percent(f float64) int {
	if math.IsNaN(f) {
		return 0
	}
	return int(math.Round(f * 100))
}
