package reserve

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// DefaultMargin is added to the server countdown to leave time for filling
// in the booking form by hand.
const DefaultMargin = 5 * time.Minute

var (
	ErrCountdownParse = errors.New("countdown could not be parsed")

	countdownPattern = regexp.MustCompile(`(\d+):([0-5]\d)`)
)

// ParseCountdown reads the first minutes:seconds pair in s, e.g. "07:30" or
// "Time left: 7:30".
func ParseCountdown(s string) (time.Duration, error) {
	m := countdownPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrCountdownParse, s)
	}
	minutes, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrCountdownParse, s, err)
	}
	seconds, _ := strconv.Atoi(m[2])
	return time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second, nil
}

// WaitDuration is the parsed countdown plus margin.
func WaitDuration(countdown string, margin time.Duration) (time.Duration, error) {
	d, err := ParseCountdown(countdown)
	if err != nil {
		return 0, err
	}
	return d + margin, nil
}
