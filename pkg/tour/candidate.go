package tour

import (
	"jpltour/pkg/utils/dateutils"
)

// SelectCandidate returns the first row, in table order, whose date lies in
// r. Rows with an unparsable date are skipped.
func SelectCandidate(rows []Row, r dateutils.Range) (Row, bool) {
	for _, row := range rows {
		d, err := dateutils.ParseTourDate(row.Date)
		if err != nil {
			continue
		}
		if r.Contains(d) {
			return row, true
		}
	}
	return Row{}, false
}
