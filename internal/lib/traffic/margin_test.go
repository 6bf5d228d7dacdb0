package traffic

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dpup/lighthouse/internal/clients/tomtom"
)

func timedRoute(seconds int, sections ...tomtom.Section) tomtom.Route {
	return tomtom.Route{
		Summary:  tomtom.RouteSummary{TravelTimeInSeconds: &seconds},
		Sections: sections,
	}
}

func untimedRoute(sections ...tomtom.Section) tomtom.Route {
	return tomtom.Route{Sections: sections}
}

func TestRoutesWithinMargin_Empty(t *testing.T) {
	assert.Empty(t, RoutesWithinMargin(nil, 15))
	assert.Empty(t, RoutesWithinMargin([]tomtom.Route{}, 15))
}

func TestRoutesWithinMargin_SingleRoute(t *testing.T) {
	routes := []tomtom.Route{timedRoute(600)}
	assert.Equal(t, []int{0}, RoutesWithinMargin(routes, 15))
}

func TestRoutesWithinMargin_FiltersByMargin(t *testing.T) {
	// 600, 650 (within 15%: ceiling 690), 800 (outside)
	routes := []tomtom.Route{timedRoute(600), timedRoute(650), timedRoute(800)}

	assert.Equal(t, []int{0, 1}, RoutesWithinMargin(routes, 15))
	assert.Equal(t, []int{0}, RoutesWithinMargin(routes, 0))
	assert.Equal(t, []int{0, 1, 2}, RoutesWithinMargin(routes, 50))
}

func TestRoutesWithinMargin_InclusiveBoundary(t *testing.T) {
	// Exactly 15% over 600s is 690s and must be included.
	routes := []tomtom.Route{timedRoute(600), timedRoute(690)}
	assert.Equal(t, []int{0, 1}, RoutesWithinMargin(routes, 15))
}

func TestRoutesWithinMargin_ZeroMarginKeepsTies(t *testing.T) {
	routes := []tomtom.Route{timedRoute(600), timedRoute(600), timedRoute(601)}
	assert.Equal(t, []int{0, 1}, RoutesWithinMargin(routes, 0))
}

func TestRoutesWithinMargin_ExcludesUntimedCandidates(t *testing.T) {
	routes := []tomtom.Route{timedRoute(600), untimedRoute()}
	assert.Equal(t, []int{0}, RoutesWithinMargin(routes, 15))
}

func TestRoutesWithinMargin_AllUntimedKeepsPrimary(t *testing.T) {
	routes := []tomtom.Route{untimedRoute(), untimedRoute()}
	assert.Equal(t, []int{0}, RoutesWithinMargin(routes, 15))
}

func TestRoutesWithinMargin_ZeroFastestIncludesAllTimed(t *testing.T) {
	routes := []tomtom.Route{timedRoute(0), timedRoute(900), untimedRoute()}
	assert.Equal(t, []int{0, 1}, RoutesWithinMargin(routes, 15))
}

func TestRoutesWithinMargin_PreservesProviderOrder(t *testing.T) {
	// The slower candidate appears first in provider order; the returned
	// indices must stay in ascending index order, not time order.
	routes := []tomtom.Route{timedRoute(650), timedRoute(600)}
	assert.Equal(t, []int{0, 1}, RoutesWithinMargin(routes, 15))
}

func TestRoutesWithinMargin_MonotonicInMargin(t *testing.T) {
	routes := []tomtom.Route{timedRoute(600), timedRoute(640), timedRoute(700), timedRoute(880)}

	previous := map[int]bool{}
	for margin := 0; margin <= 50; margin += 5 {
		current := map[int]bool{}
		for _, idx := range RoutesWithinMargin(routes, margin) {
			current[idx] = true
		}
		for idx := range previous {
			assert.True(t, current[idx], "margin %d dropped index %d included at a smaller margin", margin, idx)
		}
		previous = current
	}
}
