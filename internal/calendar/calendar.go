// Package calendar renders timestamps as human calendar phrases in pt-BR,
// anchored to America/Sao_Paulo, for cooldown resume messages.
package calendar

import (
	"strings"
	"time"

	"github.com/goodsign/monday"
)

var location = func() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		return time.FixedZone("-03", -3*60*60)
	}
	return loc
}()

// Phrase renders the instant relative to now: "hoje às 20:00",
// "amanhã às 08:00", a weekday within the coming week, or a plain date
// beyond that. Output is lowercase.
func Phrase(at, now time.Time) string {
	at = at.In(location)
	now = now.In(location)

	clock := connective(at) + " " + at.Format("15:04")

	switch days := calendarDays(now, at); {
	case days == 0:
		return "hoje " + clock
	case days == 1:
		return "amanhã " + clock
	case days == -1:
		return "ontem " + clock
	case days > 1 && days < 7:
		weekday := monday.Format(at, "Monday", monday.LocalePtBR)
		return strings.ToLower(weekday) + " " + clock
	default:
		return at.Format("02/01/2006")
	}
}

// connective picks the article preceding the clock reading: "à 01:00" but
// "às" for every other hour.
func connective(at time.Time) string {
	if at.Hour() == 1 {
		return "à"
	}
	return "às"
}

// calendarDays counts whole calendar-date steps between the two instants in
// the target zone, not elapsed 24h periods.
func calendarDays(now, at time.Time) int {
	nowDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, location)
	atDate := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, location)

	return int(atDate.Sub(nowDate) / (24 * time.Hour))
}
