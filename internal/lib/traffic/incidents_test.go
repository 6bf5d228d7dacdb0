package traffic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dpup/lighthouse/internal/clients/tomtom"
)

func incident(category int, delaySeconds int, from string, roadNumbers ...string) tomtom.Incident {
	return tomtom.Incident{
		Properties: tomtom.IncidentProperties{
			IconCategory: category,
			DelaySeconds: delaySeconds,
			From:         from,
			RoadNumbers:  roadNumbers,
		},
	}
}

func TestSummarizeIncidents_NoIncidents(t *testing.T) {
	assert.Equal(t, ClearConditions, SummarizeIncidents(nil))
	assert.Equal(t, ClearConditions, SummarizeIncidents([]tomtom.Incident{}))
}

func TestSummarizeIncidents_SingleIncident(t *testing.T) {
	summary := SummarizeIncidents([]tomtom.Incident{
		incident(1, 300, "Exit 41", "I-93"),
	})
	assert.Equal(t, "Accident on I-93 (+5min)", summary)
}

func TestSummarizeIncidents_PrefersRoadNumbersOverFrom(t *testing.T) {
	summary := SummarizeIncidents([]tomtom.Incident{
		incident(8, 0, "Lowell St", "Rt 125", "Rt 28"),
	})
	assert.Equal(t, "Road Closed on Rt 125, Rt 28", summary)
}

func TestSummarizeIncidents_FallsBackToFromLocation(t *testing.T) {
	summary := SummarizeIncidents([]tomtom.Incident{
		incident(11, 0, "Shawsheen River crossing"),
	})
	assert.Equal(t, "Flooding on Shawsheen River crossing", summary)
}

func TestSummarizeIncidents_OmitsSubMinuteDelay(t *testing.T) {
	summary := SummarizeIncidents([]tomtom.Incident{
		incident(6, 60, "", "I-495"),
	})
	assert.Equal(t, "Traffic Jam on I-495", summary)

	summary = SummarizeIncidents([]tomtom.Incident{
		incident(6, 61, "", "I-495"),
	})
	assert.Equal(t, "Traffic Jam on I-495 (+1min)", summary)
}

func TestSummarizeIncidents_CapsAtThreeJoinedBySemicolons(t *testing.T) {
	incidents := []tomtom.Incident{
		incident(1, 0, "", "I-93"),
		incident(9, 0, "", "Rt 125"),
		incident(7, 0, "", "Rt 28"),
		incident(8, 0, "", "Rt 62"),
	}

	summary := SummarizeIncidents(incidents)
	parts := strings.Split(summary, "; ")
	assert.Len(t, parts, 3)
	assert.NotContains(t, summary, "Rt 62")
}

func TestSummarizeIncidents_UnknownCategoryIsIssue(t *testing.T) {
	summary := SummarizeIncidents([]tomtom.Incident{
		incident(99, 0, "", "I-93"),
	})
	assert.Equal(t, "Issue on I-93", summary)
}

func TestCategoryLabel(t *testing.T) {
	assert.Equal(t, "Accident", CategoryLabel(1))
	assert.Equal(t, "Road Closed", CategoryLabel(8))
	assert.Equal(t, "Flooding", CategoryLabel(11))
	assert.Equal(t, "Issue", CategoryLabel(0))
	assert.Equal(t, "Issue", CategoryLabel(-1))
}
