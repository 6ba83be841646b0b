package timecode

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/mgpai22/kaatna/internal/faults"
)

// Resolution is the finest step a TimeCode can represent.
const Resolution = time.Millisecond

// TimeCode is a non-negative instant on a media timeline at millisecond resolution.
// The zero value is 00:00:00.000.
type TimeCode struct {
	d time.Duration
}

// Zero is the timeline origin.
var Zero = TimeCode{}

// largest hour field whose full HH:59:59.999 still fits in a time.Duration
const maxHours = int(math.MaxInt64/int64(time.Hour)) - 1

var (
	strictPattern = regexp.MustCompile(`^(\d{2,}):(\d{2}):(\d{2})\.(\d+)$`)
	loosePattern  = regexp.MustCompile(`^(?:(\d+):)?(\d{1,2}):(\d{2})[.,](\d+)$`)
)

// Parse reads HH:MM:SS.f with one or more fractional digits. Digits past the
// millisecond are dropped.
func Parse(text string) (TimeCode, error) {
	m := strictPattern.FindStringSubmatch(text)
	if m == nil {
		return TimeCode{}, faults.Errorf(faults.ErrFormat, "parse timecode", "%q does not match HH:MM:SS.fff", text)
	}
	return fromParts(text, m[1], m[2], m[3], m[4])
}

// ParseLoose also accepts the forms found in subtitle files: MM:SS.fff (short
// WebVTT), a comma separator (SubRip) and single digit hours (ASS).
func ParseLoose(text string) (TimeCode, error) {
	m := loosePattern.FindStringSubmatch(text)
	if m == nil {
		return TimeCode{}, faults.Errorf(faults.ErrFormat, "parse timecode", "%q is not a timestamp", text)
	}
	hours := m[1]
	if hours == "" {
		hours = "0"
	}
	return fromParts(text, hours, m[2], m[3], m[4])
}

// MustParse is Parse for literals known to be valid.
func MustParse(text string) TimeCode {
	tc, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return tc
}

func fromParts(text, hours, minutes, seconds, fraction string) (TimeCode, error) {
	h, err := strconv.Atoi(hours)
	if err != nil {
		return TimeCode{}, faults.Wrap(faults.ErrFormat, "parse timecode", text, err)
	}
	if h > maxHours {
		return TimeCode{}, faults.Errorf(faults.ErrFormat, "parse timecode", "%q has more than %d hours", text, maxHours)
	}
	m, _ := strconv.Atoi(minutes)
	s, _ := strconv.Atoi(seconds)
	if m > 59 || s > 59 {
		return TimeCode{}, faults.Errorf(faults.ErrFormat, "parse timecode", "%q has minutes or seconds out of range", text)
	}

	// pad or truncate to 3 digits
	if len(fraction) > 3 {
		fraction = fraction[:3]
	}
	for len(fraction) < 3 {
		fraction += "0"
	}
	ms, _ := strconv.Atoi(fraction)

	return TimeCode{d: time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond}, nil
}

// FromDuration converts an offset from the origin, truncating below a millisecond.
func FromDuration(d time.Duration) (TimeCode, error) {
	if d < 0 {
		return TimeCode{}, faults.Errorf(faults.ErrNegativeTime, "timecode", "offset %s is negative", d)
	}
	return TimeCode{d: d.Truncate(Resolution)}, nil
}

// FromSeconds converts raw seconds, rounding to the nearest millisecond so
// values like 1.001 survive float representation.
func FromSeconds(seconds float64) (TimeCode, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return TimeCode{}, faults.Errorf(faults.ErrFormat, "timecode", "invalid seconds value %v", seconds)
	}
	ms := math.Round(seconds * 1000)
	if ms < 0 {
		return TimeCode{}, faults.Errorf(faults.ErrNegativeTime, "timecode", "%.3fs is negative", seconds)
	}
	if ms >= float64(math.MaxInt64/int64(time.Millisecond)) {
		return TimeCode{}, faults.Errorf(faults.ErrFormat, "timecode", "%.3fs is out of range", seconds)
	}
	return TimeCode{d: time.Duration(ms) * time.Millisecond}, nil
}

// Duration is the offset from the origin.
func (t TimeCode) Duration() time.Duration { return t.d }

func (t TimeCode) Seconds() float64 { return t.d.Seconds() }

func (t TimeCode) IsZero() bool { return t.d == 0 }

// Add shifts t by d.
func (t TimeCode) Add(d time.Duration) (TimeCode, error) {
	d = d.Truncate(Resolution)
	r := t.d + d
	if d > 0 && r < t.d {
		return TimeCode{}, faults.Errorf(faults.ErrFormat, "add", "%s + %s overflows", t, d)
	}
	if r < 0 {
		return TimeCode{}, faults.Errorf(faults.ErrNegativeTime, "add", "%s %+v would be negative", t, d)
	}
	return TimeCode{d: r}, nil
}

// Subtract shifts t back by d.
func (t TimeCode) Subtract(d time.Duration) (TimeCode, error) {
	d = d.Truncate(Resolution)
	r := t.d - d
	if d < 0 && r < t.d {
		return TimeCode{}, faults.Errorf(faults.ErrFormat, "subtract", "%s - %s overflows", t, d)
	}
	if r < 0 {
		return TimeCode{}, faults.Errorf(faults.ErrNegativeTime, "subtract", "%s - %s would be negative", t, d)
	}
	return TimeCode{d: r}, nil
}

// Sub returns the span t - u, which may be negative.
func (t TimeCode) Sub(u TimeCode) time.Duration { return t.d - u.d }

func (t TimeCode) Before(u TimeCode) bool { return t.d < u.d }

func (t TimeCode) After(u TimeCode) bool { return t.d > u.d }

// Compare returns -1, 0 or +1.
func (t TimeCode) Compare(u TimeCode) int {
	switch {
	case t.d < u.d:
		return -1
	case t.d > u.d:
		return 1
	default:
		return 0
	}
}

// String formats as HH:MM:SS.fff.
func (t TimeCode) String() string {
	return t.Format('.')
}

// Format renders HH:MM:SS<sep>fff, e.g. ',' for SubRip.
func (t TimeCode) Format(sep byte) string {
	total := t.d.Milliseconds()
	hours := total / 3_600_000
	minutes := (total / 60_000) % 60
	seconds := (total / 1000) % 60
	millis := total % 1000
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", hours, minutes, seconds, sep, millis)
}

func (t TimeCode) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeCode) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
