package tour

import (
	"jpltour/pkg/notify"
	"jpltour/pkg/state"
)

// Notification titles, one per observed fact.
const (
	TitleNextRelease  = "Next tour release has changed"
	TitleAvailability = "Tour availability has changed"
	TitleDetails      = "Tour details"
)

// Compose records the observed facts in st and returns a notification for
// each one that changed: release message, then availability, then table.
// Facts that were not observed are skipped.
func Compose(st *state.State, facts *Facts) ([]notify.Notification, error) {
	observed := []struct {
		field state.Field
		value *string
		title string
	}{
		{state.NextTourMsg, facts.NextTourMsg, TitleNextRelease},
		{state.TourAvailable, facts.Availability, TitleAvailability},
		{state.TourTable, facts.Table, TitleDetails},
	}

	var out []notify.Notification
	for _, o := range observed {
		if o.value == nil {
			continue
		}
		n, changed, err := st.SetIfChanged(o.field, *o.value, o.title)
		if err != nil {
			return out, err
		}
		if changed {
			out = append(out, n)
		}
	}
	return out, nil
}
