package assist

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// dayToken matches 1-2 digit groups, optionally introduced by
	// "dia"/"em" ("dia 25", "em 3", bare "25").
	dayToken = regexp.MustCompile(`(?:dia|em)?\s*(\d{1,2})`)

	// clockPattern matches an hour optionally followed by minutes when
	// preceded by a time marker ("às 17", "as 9:30", "das 14h").
	clockPattern = regexp.MustCompile(`(?:às|as|ás|at|h|:|das)\s*(\d{1,2})(:(\d{2}))?`)

	// bareHourPattern is the weaker fallback: a number directly suffixed
	// with a time marker ("17h", "9:").
	bareHourPattern = regexp.MustCompile(`(\d{1,2})(?:h|:)`)
)

// ResolveDate extracts the target calendar day from the lower-cased input,
// relative to now. Priority order:
//
//  1. "amanhã"/"amanha" -> now + 1 day
//  2. "hoje"            -> now
//  3. first 1-31 digit group not in a time context; if that day-of-month
//     already passed this month, roll forward one month (wrapping the year
//     at December).
//
// When nothing matches, the returned date is today's and found is false;
// the caller decides the total-absence fallback.
func ResolveDate(lower string, now time.Time) (date time.Time, found bool) {
	if strings.Contains(lower, "amanhã") || strings.Contains(lower, "amanha") {
		return dateOnly(now.AddDate(0, 0, 1)), true
	}
	if strings.Contains(lower, "hoje") {
		return dateOnly(now), true
	}

	for _, m := range dayToken.FindAllStringSubmatch(lower, -1) {
		num, err := strconv.Atoi(m[1])
		if err != nil || num < 1 || num > 31 {
			continue
		}
		if inTimeContext(lower, num) {
			continue
		}
		year, month := now.Year(), now.Month()
		if num < now.Day() {
			month++
			if month > time.December {
				month = time.January
				year++
			}
		}
		return time.Date(year, month, num, 0, 0, 0, 0, now.Location()), true
	}

	return dateOnly(now), false
}

// inTimeContext reports whether num appears in the input adjacent to a time
// marker (preceded by "as"/"às" or followed by "h"/":"), in which case it is
// a clock hour and must not be read as a day-of-month.
func inTimeContext(lower string, num int) bool {
	n := strconv.Itoa(num)
	return strings.Contains(lower, "as "+n) ||
		strings.Contains(lower, "às "+n) ||
		strings.Contains(lower, n+"h") ||
		strings.Contains(lower, n+":")
}

// ResolveTime extracts the wall-clock time from the lower-cased input.
// Hours outside 0-23 and minutes outside 0-59 are ignored; minutes default
// to 0. When no time pattern matches at all, found is false and the default
// hour is returned.
func ResolveTime(lower string, defaultHour int) (hour, minute int, found bool) {
	hour = defaultHour

	if m := clockPattern.FindStringSubmatch(lower); m != nil {
		if h, err := strconv.Atoi(m[1]); err == nil && h >= 0 && h <= 23 {
			hour = h
			if m[3] != "" {
				if mm, err := strconv.Atoi(m[3]); err == nil && mm <= 59 {
					minute = mm
				}
			}
		}
		return hour, minute, true
	}

	if m := bareHourPattern.FindStringSubmatch(lower); m != nil {
		if h, err := strconv.Atoi(m[1]); err == nil && h >= 0 && h <= 23 {
			hour = h
		}
		return hour, 0, true
	}

	return hour, 0, false
}

// dateOnly strips the time-of-day components, keeping the location.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
