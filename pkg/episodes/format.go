package episodes

import (
	"fmt"
	"time"
)

var ptBRMonths = [12]string{
	"jan", "fev", "mar", "abr", "mai", "jun",
	"jul", "ago", "set", "out", "nov", "dez",
}

// DurationToTimeString formats seconds as HH:MM:SS.
func DurationToTimeString(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds%60)
}

// FormatPublishedAt formats a date as "d MMM yy" with pt-BR month names,
// e.g. "8 jan 21".
func FormatPublishedAt(t time.Time) string {
	return fmt.Sprintf("%d %s %s", t.Day(), ptBRMonths[t.Month()-1], t.Format("06"))
}
