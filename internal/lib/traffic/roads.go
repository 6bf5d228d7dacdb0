package traffic

import (
	"sort"
	"strings"

	"github.com/dpup/lighthouse/internal/clients/tomtom"
)

// importantRoadStretch marks sections worth naming. Turn-by-turn guidance is
// deliberately ignored: it enumerates every minor street and drowns out the
// arterials a commuter actually recognizes.
const importantRoadStretch = "IMPORTANT_ROAD_STRETCH"

// minStretchPoints filters sub-mile stretches as noise.
const minStretchPoints = 20

// maxRoadNumbers limits how many route numbers join into one display name.
const maxRoadNumbers = 2

// ExtractRoadNames converts one route's section metadata into named major
// road stretches, longest first. Route numbers are preferred over street
// names, and duplicate names within the route are dropped case-insensitively
// (first occurrence wins).
func ExtractRoadNames(route tomtom.Route) []RoadStretch {
	var stretches []RoadStretch
	seen := make(map[string]bool)

	for _, section := range route.Sections {
		if section.SectionType != importantRoadStretch {
			continue
		}

		length := section.EndPointIndex - section.StartPointIndex
		if length < 1 {
			length = 1
		}
		if length < minStretchPoints {
			continue
		}

		name := sectionDisplayName(section)
		if name == "" {
			continue
		}

		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true

		stretches = append(stretches, RoadStretch{Name: name, LengthEstimate: length})
	}

	sort.SliceStable(stretches, func(i, j int) bool {
		return stretches[i].LengthEstimate > stretches[j].LengthEstimate
	})

	return stretches
}

// sectionDisplayName picks a display name for a section: joined road numbers
// when present, street name otherwise.
func sectionDisplayName(section tomtom.Section) string {
	if len(section.RoadNumbers) > 0 {
		limit := maxRoadNumbers
		if len(section.RoadNumbers) < limit {
			limit = len(section.RoadNumbers)
		}

		parts := make([]string, 0, limit)
		for _, number := range section.RoadNumbers[:limit] {
			if number.Text != "" {
				parts = append(parts, number.Text)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, ", ")
		}
	}

	return section.StreetName.Text
}
