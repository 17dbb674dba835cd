// Package state persists the facts observed on the previous run so the next
// run can tell what changed.
package state

import (
	"errors"
	"fmt"
	"strconv"

	"jpltour/pkg/logger"
	"jpltour/pkg/notify"

	"go.uber.org/zap"
)

// EmptyMessage is the release message before anything was ever scraped.
const EmptyMessage = "(empty)"

var (
	// ErrStateParse means the state file was unreadable; defaults were used.
	ErrStateParse = errors.New("state file could not be parsed")

	// ErrStateWrite means the state file could not be written.
	ErrStateWrite = errors.New("state file could not be written")

	// ErrUnknownField is returned for a Field outside the enum.
	ErrUnknownField = errors.New("unknown state field")
)

// State is the record kept between runs. Mutate it only through SetIfChanged.
type State struct {
	BrowserSession          string `json:"BROWSER_SESSION" yaml:"BROWSER_SESSION"`
	NextTourMsg             string `json:"NEXT_TOUR_MSG" yaml:"NEXT_TOUR_MSG"`
	TourAvailable           string `json:"TOUR_AVAILABLE" yaml:"TOUR_AVAILABLE"`
	TourTable               string `json:"TOUR_TABLE" yaml:"TOUR_TABLE"`
	ContinuePressingReserve bool   `json:"CONTINUE_PRESSING_RESERVE" yaml:"CONTINUE_PRESSING_RESERVE"`
}

// Default returns the state used on the first run or after a parse failure.
func Default() *State {
	return &State{
		NextTourMsg:             EmptyMessage,
		ContinuePressingReserve: true,
	}
}

// Field names one State field.
type Field int

const (
	BrowserSession Field = iota
	NextTourMsg
	TourAvailable
	TourTable
	ContinuePressingReserve
)

// Fields lists every field in persisted order.
var Fields = []Field{BrowserSession, NextTourMsg, TourAvailable, TourTable, ContinuePressingReserve}

func (f Field) String() string {
	switch f {
	case BrowserSession:
		return "BROWSER_SESSION"
	case NextTourMsg:
		return "NEXT_TOUR_MSG"
	case TourAvailable:
		return "TOUR_AVAILABLE"
	case TourTable:
		return "TOUR_TABLE"
	case ContinuePressingReserve:
		return "CONTINUE_PRESSING_RESERVE"
	default:
		return fmt.Sprintf("Field(%d)", int(f))
	}
}

// Get returns the field value as a string; the bool field uses strconv.FormatBool.
func (s *State) Get(f Field) (string, error) {
	switch f {
	case BrowserSession:
		return s.BrowserSession, nil
	case NextTourMsg:
		return s.NextTourMsg, nil
	case TourAvailable:
		return s.TourAvailable, nil
	case TourTable:
		return s.TourTable, nil
	case ContinuePressingReserve:
		return strconv.FormatBool(s.ContinuePressingReserve), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownField, f)
	}
}

func (s *State) set(f Field, value string) error {
	switch f {
	case BrowserSession:
		s.BrowserSession = value
	case NextTourMsg:
		s.NextTourMsg = value
	case TourAvailable:
		s.TourAvailable = value
	case TourTable:
		s.TourTable = value
	case ContinuePressingReserve:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
		s.ContinuePressingReserve = b
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, f)
	}
	return nil
}

// SetIfChanged stores value in f when it differs from the current value and
// returns a notification titled title carrying the new value. changed is
// false, and nothing is mutated, when the values are equal.
func (s *State) SetIfChanged(f Field, value, title string) (n notify.Notification, changed bool, err error) {
	current, err := s.Get(f)
	if err != nil {
		return notify.Notification{}, false, err
	}
	if f == ContinuePressingReserve {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return notify.Notification{}, false, fmt.Errorf("%s: %w", f, err)
		}
		value = strconv.FormatBool(b)
	}
	if current == value {
		return notify.Notification{}, false, nil
	}

	if err := s.set(f, value); err != nil {
		return notify.Notification{}, false, err
	}
	logger.Info("State field changed",
		zap.Stringer("field", f),
		zap.String("title", title))
	logger.Debug("State field values",
		zap.Stringer("field", f),
		zap.String("old", current),
		zap.String("new", value))
	return notify.New(title, value), true, nil
}

// SetContinuePressingReserve is SetIfChanged for the bool field.
func (s *State) SetContinuePressingReserve(v bool, title string) (notify.Notification, bool, error) {
	return s.SetIfChanged(ContinuePressingReserve, strconv.FormatBool(v), title)
}
