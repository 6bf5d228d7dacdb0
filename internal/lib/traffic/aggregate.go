package traffic

import (
	"math"
	"sort"
	"strings"

	"github.com/dpup/lighthouse/internal/clients/tomtom"
)

// maxRoadsPerAlternative caps each alternative's candidate road set.
const maxRoadsPerAlternative = 3

// maxKeyRoads caps the distinguishing roads shown per alternative.
const maxKeyRoads = 2

// maxStatusLength truncates incident text attached to an alternative.
const maxStatusLength = 100

// AggregateMainRoads combines the viable candidates into ranked alternative
// summaries. Roads present in every alternative are non-distinguishing and
// excluded from key_roads; an alternative with no unique roads falls back to
// its own top roads. When trafficNotes mentions one of an alternative's key
// roads (case-insensitive substring), the note text is attached as that
// alternative's status. The result is sorted by actual travel time, fastest
// first, with 1-based route numbers assigned after sorting.
func AggregateMainRoads(routes []tomtom.Route, withinIndices []int, trafficNotes string) []RouteAlternative {
	type candidate struct {
		travelMin int
		delayMin  int
		roads     []string
	}

	var candidates []candidate
	for _, idx := range withinIndices {
		if idx < 0 || idx >= len(routes) {
			continue
		}
		route := routes[idx]

		travelSeconds := 0
		if route.Summary.TravelTimeInSeconds != nil {
			travelSeconds = *route.Summary.TravelTimeInSeconds
		}

		roads := topRoadNames(route, maxRoadsPerAlternative)

		candidates = append(candidates, candidate{
			travelMin: roundToMinutes(travelSeconds),
			delayMin:  roundToMinutes(route.Summary.TrafficDelayInSeconds),
			roads:     roads,
		})
	}

	if len(candidates) == 0 {
		return nil
	}

	// Roads common to every alternative don't help a commuter pick between
	// them, so they are excluded from key roads when there is a choice.
	var commonRoads map[string]bool
	if len(candidates) > 1 {
		commonRoads = make(map[string]bool)
		for _, name := range candidates[0].roads {
			commonRoads[strings.ToLower(name)] = true
		}
		for _, cand := range candidates[1:] {
			present := make(map[string]bool, len(cand.roads))
			for _, name := range cand.roads {
				present[strings.ToLower(name)] = true
			}
			for key := range commonRoads {
				if !present[key] {
					delete(commonRoads, key)
				}
			}
		}
	}

	minTime := candidates[0].travelMin
	for _, cand := range candidates[1:] {
		if cand.travelMin < minTime {
			minTime = cand.travelMin
		}
	}

	alternatives := make([]RouteAlternative, 0, len(candidates))
	for _, cand := range candidates {
		var uniqueRoads []string
		for _, name := range cand.roads {
			if commonRoads != nil && commonRoads[strings.ToLower(name)] {
				continue
			}
			uniqueRoads = append(uniqueRoads, name)
		}

		keyRoads := uniqueRoads
		if len(keyRoads) == 0 {
			keyRoads = cand.roads
		}
		if len(keyRoads) > maxKeyRoads {
			keyRoads = keyRoads[:maxKeyRoads]
		}

		alt := RouteAlternative{
			TravelTimeMin: cand.travelMin,
			DelayMin:      cand.delayMin,
			IsFastest:     cand.travelMin == minTime,
			TimeVsFastest: cand.travelMin - minTime,
			KeyRoads:      keyRoads,
		}

		if trafficNotes != "" {
			lowerNotes := strings.ToLower(trafficNotes)
			for _, road := range alt.KeyRoads {
				if road != "" && strings.Contains(lowerNotes, strings.ToLower(road)) {
					alt.Status = truncate(trafficNotes, maxStatusLength)
					break
				}
			}
		}

		alternatives = append(alternatives, alt)
	}

	sort.SliceStable(alternatives, func(i, j int) bool {
		return alternatives[i].TravelTimeMin < alternatives[j].TravelTimeMin
	})
	for i := range alternatives {
		alternatives[i].RouteNum = i + 1
	}

	return alternatives
}

// topRoadNames returns up to limit extracted road names for a route
func topRoadNames(route tomtom.Route, limit int) []string {
	stretches := ExtractRoadNames(route)
	if len(stretches) > limit {
		stretches = stretches[:limit]
	}

	names := make([]string, 0, len(stretches))
	for _, stretch := range stretches {
		names = append(names, stretch.Name)
	}
	return names
}

// roundToMinutes converts seconds to whole minutes, rounding half up
func roundToMinutes(seconds int) int {
	return int(math.Round(float64(seconds) / 60.0))
}

// truncate shortens s to at most max characters
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
