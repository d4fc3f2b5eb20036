// Package daterange splits a search period into consecutive windows.
package daterange

import (
	"fmt"
	"time"

	"aitaflow/domain/core"
)

// DefaultDayIncrement is the window length used by the scrape flow.
const DefaultDayIncrement = 3

// DateRange is an inclusive window of YYYY-MM-DD dates.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.Start, r.End)
}

// Days returns the number of calendar days the window covers.
func (r DateRange) Days() int {
	start, err := core.ParseDate(r.Start)
	if err != nil {
		return 0
	}
	end, err := core.ParseDate(r.End)
	if err != nil {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// Partition covers start..end (both inclusive) with windows of dayIncrement
// days. The last window is shorter when the period does not divide evenly.
func Partition(start, end string, dayIncrement int) ([]DateRange, error) {
	if dayIncrement <= 0 {
		return nil, core.NewDateRangeError(fmt.Sprintf("day increment must be positive, got %d", dayIncrement))
	}
	from, err := core.ParseDate(start)
	if err != nil {
		return nil, core.NewDateRangeError(fmt.Sprintf("start %q: %v", start, err))
	}
	to, err := core.ParseDate(end)
	if err != nil {
		return nil, core.NewDateRangeError(fmt.Sprintf("end %q: %v", end, err))
	}
	if to.Before(from) {
		return nil, core.NewDateRangeError(fmt.Sprintf("end %s is before start %s", end, start))
	}

	// boundaries are exclusive of the day after end
	stop := to.AddDate(0, 0, 1)
	var bounds []time.Time
	for d := from; !d.After(stop); d = d.AddDate(0, 0, dayIncrement) {
		bounds = append(bounds, d)
	}
	if !bounds[len(bounds)-1].Equal(stop) {
		bounds = append(bounds, stop)
	}

	ranges := make([]DateRange, 0, len(bounds)-1)
	for i := 0; i < len(bounds)-1; i++ {
		ranges = append(ranges, DateRange{
			Start: core.FormatDate(bounds[i]),
			End:   core.FormatDate(bounds[i+1].AddDate(0, 0, -1)),
		})
	}
	return ranges, nil
}
