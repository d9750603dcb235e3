package subtitle

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatTimestamp converts seconds to "HH:MM:SS.mmm". Negative, NaN and
// infinite inputs are treated as zero. Milliseconds are truncated, not
// rounded, so a value never carries into the next second. The hours field
// widens past two digits rather than wrapping at 24.
func FormatTimestamp(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}

	totalMs := int64(seconds * 1000)
	ms := totalMs % 1000
	totalSec := totalMs / 1000
	s := totalSec % 60
	m := (totalSec / 60) % 60
	h := totalSec / 3600

	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

// ParseTimestamp converts "HH:MM:SS.mmm" (or the SRT comma variant) back to
// seconds. Used for subtitle validation and round-trip tests.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ",", ".")
	dot := strings.LastIndex(value, ".")
	if dot < 0 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(value[:dot], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(value[dot+1:])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}
