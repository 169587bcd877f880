package presenter_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/raysh454/phishguard/internal/model"
	"github.com/raysh454/phishguard/internal/presenter"
	"github.com/raysh454/phishguard/internal/testutil"
)

func TestColorAndIconTable(t *testing.T) {
	t.Parallel()
	cases := []struct {
		level model.RiskLevel
		color string
		icon  string
	}{
		{model.RiskSafe, "#10B981", "✓"},
		{model.RiskSuspicious, "#F59E0B", "⚠"},
		{model.RiskDangerous, "#EF4444", "✗"},
		{model.RiskUnknown, "#6B7280", "❓"},
		{"something-else", "#6B7280", "❓"},
	}
	for _, tc := range cases {
		if got := presenter.ColorFor(tc.level); got != tc.color {
			t.Errorf("ColorFor(%q) = %s, want %s", tc.level, got, tc.color)
		}
		if got := presenter.IconFor(tc.level); got != tc.icon {
			t.Errorf("IconFor(%q) = %s, want %s", tc.level, got, tc.icon)
		}
	}
}

func TestPresent_SetsBadgeEveryTime(t *testing.T) {
	t.Parallel()
	badge := &presenter.BadgeState{}
	notifier := &testutil.DummyNotifier{}
	p := presenter.New(badge, notifier, &testutil.DummyLogger{})

	p.Present(context.Background(), "http://ok.test", model.AnalysisResult{RiskLevel: model.RiskSafe})
	p.Wait()

	b := badge.Current()
	if b.Color != presenter.ColorSafe || b.Text != "!" {
		t.Fatalf("unexpected badge: %+v", b)
	}
	if notifier.Count() != 0 {
		t.Fatalf("safe result must not raise an alert")
	}
}

func TestPresent_DangerousRaisesTruncatedAlert(t *testing.T) {
	t.Parallel()
	badge := &presenter.BadgeState{}
	notifier := &testutil.DummyNotifier{}
	p := presenter.New(badge, notifier, &testutil.DummyLogger{})

	long := "http://phishy-example.com/login/" + strings.Repeat("a", 80)
	p.Present(context.Background(), long, model.AnalysisResult{RiskLevel: model.RiskDangerous})
	p.Wait()

	if badge.Current().Color != presenter.ColorDangerous {
		t.Fatalf("expected red badge, got %+v", badge.Current())
	}
	if notifier.Count() != 1 {
		t.Fatalf("expected one alert, got %d", notifier.Count())
	}
	n := notifier.Sent[0]
	if n.Title != presenter.AlertTitle {
		t.Fatalf("unexpected title %q", n.Title)
	}
	want := "Dangerous site detected: " + long[:50] + "..."
	if n.Message != want {
		t.Fatalf("message = %q, want %q", n.Message, want)
	}
}

func TestPresent_NotifierFailureIsSwallowed(t *testing.T) {
	t.Parallel()
	logger := &testutil.DummyLogger{}
	notifier := &testutil.DummyNotifier{Err: errors.New("no display")}
	p := presenter.New(&presenter.BadgeState{}, notifier, logger)

	p.Present(context.Background(), "http://bad.test", model.AnalysisResult{RiskLevel: model.RiskDangerous})
	p.Wait()

	if logger.WarnCount() != 1 {
		t.Fatalf("expected failure to be logged once, got %d", logger.WarnCount())
	}
}

func TestMultiNotifier_JoinsErrors(t *testing.T) {
	t.Parallel()
	ok := &testutil.DummyNotifier{}
	bad := &testutil.DummyNotifier{Err: errors.New("boom")}
	err := presenter.MultiNotifier{ok, bad}.Notify(context.Background(), "t", "m")
	if err == nil || ok.Count() != 1 || bad.Count() != 1 {
		t.Fatalf("expected both notified and an error, got err=%v", err)
	}
}
