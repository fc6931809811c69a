package tui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/ethanolivertroy/tmcheck/internal/model"
)

func resetTheme(t *testing.T) {
	t.Helper()
	t.Cleanup(func() { SetTheme(ThemeDefault) })
}

func TestParseTheme(t *testing.T) {
	tests := []struct {
		in      string
		want    ThemeName
		wantErr bool
	}{
		{"", ThemeDefault, false},
		{"Dracula", ThemeDracula, false},
		{" nord ", ThemeNord, false},
		{"catppuccin", ThemeCatppuccin, false},
		{"solarized", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTheme(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTheme(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTheme(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetThemeUnknownKeepsCurrent(t *testing.T) {
	resetTheme(t)
	SetTheme(ThemeNord)

	if SetTheme("solarized") {
		t.Error("SetTheme accepted an unknown theme")
	}
	if CurrentTheme.Name != ThemeNord {
		t.Errorf("CurrentTheme = %q, want nord", CurrentTheme.Name)
	}
}

func TestCycleThemeWrapsAround(t *testing.T) {
	resetTheme(t)
	SetTheme(ThemeDefault)

	names := ThemeNames()
	for i := 1; i <= len(names); i++ {
		want := names[i%len(names)]
		if got := CycleTheme(); got != want {
			t.Fatalf("cycle %d: got %q, want %q", i, got, want)
		}
	}
}

func TestThemePalettesComplete(t *testing.T) {
	for _, th := range themes {
		t.Run(string(th.Name), func(t *testing.T) {
			colors := map[string]lipgloss.Color{
				"Brand": th.Brand, "Text": th.Text, "Muted": th.Muted,
				"Pass": th.Pass, "Fail": th.Fail, "Gap": th.Gap,
				"RiskHigh": th.RiskHigh, "RiskMedium": th.RiskMedium, "RiskLow": th.RiskLow,
				"Strong": th.Strong, "Acceptable": th.Acceptable, "Weak": th.Weak,
			}
			for field, c := range colors {
				if c == "" {
					t.Errorf("%s is empty", field)
				}
			}
			if th.Markdown == "" {
				t.Error("Markdown style is empty")
			}
		})
	}
}

func TestRiskAndPostureColorsFollowTheme(t *testing.T) {
	resetTheme(t)
	SetTheme(ThemeDracula)
	dracula := CurrentTheme

	if got := RiskColor(9); got != dracula.RiskHigh {
		t.Errorf("RiskColor(9) = %v, want %v", got, dracula.RiskHigh)
	}
	if got := RiskColor(4); got != dracula.RiskMedium {
		t.Errorf("RiskColor(4) = %v, want %v", got, dracula.RiskMedium)
	}
	if got := RiskColor(2); got != dracula.RiskLow {
		t.Errorf("RiskColor(2) = %v, want %v", got, dracula.RiskLow)
	}
	if got := PostureColor(model.PostureWeak); got != dracula.Weak {
		t.Errorf("PostureColor(WEAK) = %v, want %v", got, dracula.Weak)
	}
	if got := PostureColor(model.PostureStrong); got != dracula.Strong {
		t.Errorf("PostureColor(STRONG) = %v, want %v", got, dracula.Strong)
	}
	if got := TitleStyle.GetBackground(); got != dracula.Brand {
		t.Errorf("TitleStyle background = %v, want %v", got, dracula.Brand)
	}
}
