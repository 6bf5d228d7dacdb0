package traffic

import (
	"github.com/dpup/lighthouse/internal/clients/tomtom"
)

// RoutesWithinMargin selects the candidate indices whose travel time is
// within marginPercent of the fastest candidate. Indices come back in the
// provider's original order, not sorted by time, so downstream consumers
// keep the provider's ranking. The boundary is inclusive.
//
// Candidates without a travel time never make the included set, but when no
// candidate carries a time at all the provider's primary (index 0) is kept
// so the estimate isn't dropped entirely.
func RoutesWithinMargin(routes []tomtom.Route, marginPercent int) []int {
	if len(routes) == 0 {
		return nil
	}

	type timedRoute struct {
		index   int
		seconds int
	}

	var timed []timedRoute
	for i, route := range routes {
		if route.Summary.TravelTimeInSeconds != nil {
			timed = append(timed, timedRoute{index: i, seconds: *route.Summary.TravelTimeInSeconds})
		}
	}

	if len(timed) == 0 {
		return []int{0}
	}

	fastest := timed[0].seconds
	for _, t := range timed[1:] {
		if t.seconds < fastest {
			fastest = t.seconds
		}
	}

	included := make([]int, 0, len(timed))

	// A non-positive fastest time would make the margin meaningless, so
	// everything with a time counts as within margin.
	if fastest <= 0 {
		for _, t := range timed {
			included = append(included, t.index)
		}
		return included
	}

	// Integer comparison keeps the inclusive boundary exact: a candidate at
	// precisely fastest*(1+margin/100) is included.
	for _, t := range timed {
		if t.seconds*100 <= fastest*(100+marginPercent) {
			included = append(included, t.index)
		}
	}

	return included
}
