package traffic

import (
	"fmt"
	"strings"

	"github.com/dpup/lighthouse/internal/clients/tomtom"
)

// ClearConditions is the sentinel summary when the incident feed returned no
// incidents for the area. It is distinguishable from "" (lookup not
// attempted, e.g. no API key or no coordinates).
const ClearConditions = "Clear conditions"

// maxSummarizedIncidents caps how many incidents make the summary line.
const maxSummarizedIncidents = 3

// minReportedDelaySeconds hides sub-minute delays from the summary.
const minReportedDelaySeconds = 60

// incidentCategoryLabels maps TomTom icon category codes to display labels.
var incidentCategoryLabels = map[int]string{
	1:  "Accident",
	2:  "Fog",
	3:  "Dangerous Conditions",
	4:  "Rain",
	5:  "Ice",
	6:  "Traffic Jam",
	7:  "Lane Closed",
	8:  "Road Closed",
	9:  "Road Works",
	10: "Wind",
	11: "Flooding",
	14: "Broken Down Vehicle",
}

// SummarizeIncidents condenses up to three incidents into one
// semicolon-joined line for the route's traffic notes. Location text prefers
// joined road numbers, falling back to the incident's "from" field.
func SummarizeIncidents(incidents []tomtom.Incident) string {
	if len(incidents) == 0 {
		return ClearConditions
	}

	limit := maxSummarizedIncidents
	if len(incidents) < limit {
		limit = len(incidents)
	}

	parts := make([]string, 0, limit)
	for _, incident := range incidents[:limit] {
		props := incident.Properties

		text := CategoryLabel(props.IconCategory)

		location := strings.Join(props.RoadNumbers, ", ")
		if location == "" {
			location = props.From
		}
		if location != "" {
			text += " on " + location
		}

		if props.DelaySeconds > minReportedDelaySeconds {
			text += fmt.Sprintf(" (+%dmin)", roundToMinutes(props.DelaySeconds))
		}

		parts = append(parts, text)
	}

	return strings.Join(parts, "; ")
}

// CategoryLabel maps an incident icon category code to a human label
func CategoryLabel(iconCategory int) string {
	if label, ok := incidentCategoryLabels[iconCategory]; ok {
		return label
	}
	return "Issue"
}
