package calendar

import (
	"testing"
	"time"
)

// America/Sao_Paulo sits at UTC-3 year-round since 2019.
func saoPaulo(t *testing.T, year int, month time.Month, day, hour, minute int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		loc = time.FixedZone("-03", -3*60*60)
	}
	return time.Date(year, month, day, hour, minute, 0, 0, loc)
}

func TestPhrase(t *testing.T) {
	// A Thursday.
	now := saoPaulo(t, 2024, time.August, 1, 12, 0)

	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"later today", saoPaulo(t, 2024, time.August, 1, 20, 0), "hoje às 20:00"},
		{"tomorrow morning", saoPaulo(t, 2024, time.August, 2, 8, 0), "amanhã às 08:00"},
		{"tomorrow at one", saoPaulo(t, 2024, time.August, 2, 1, 0), "amanhã à 01:00"},
		{"yesterday", saoPaulo(t, 2024, time.July, 31, 18, 30), "ontem às 18:30"},
		{"sunday this week", saoPaulo(t, 2024, time.August, 4, 15, 0), "domingo às 15:00"},
		{"tuesday this week", saoPaulo(t, 2024, time.August, 6, 9, 45), "terça-feira às 09:45"},
		{"a week away falls back to the date", saoPaulo(t, 2024, time.August, 8, 10, 0), "08/08/2024"},
		{"far future", saoPaulo(t, 2025, time.January, 1, 0, 0), "01/01/2025"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Phrase(tt.at, now); got != tt.want {
				t.Fatalf("Phrase = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPhraseConvertsFromUTC(t *testing.T) {
	// 23:00 UTC is 20:00 in São Paulo, still the same local day.
	now := time.Date(2024, time.August, 1, 14, 0, 0, 0, time.UTC)
	at := time.Date(2024, time.August, 1, 23, 0, 0, 0, time.UTC)

	if got := Phrase(at, now); got != "hoje às 20:00" {
		t.Fatalf("Phrase = %q, want %q", got, "hoje às 20:00")
	}

	// 02:00 UTC next day is 23:00 São Paulo the same local day.
	at = time.Date(2024, time.August, 2, 2, 0, 0, 0, time.UTC)
	if got := Phrase(at, now); got != "hoje às 23:00" {
		t.Fatalf("Phrase = %q, want %q", got, "hoje às 23:00")
	}
}
