package tomtom

import "encoding/json"

// RoadLabel is a road name or number that TomTom returns either as a plain
// JSON string or as an object with a "text" field, depending on endpoint
// version. Decoding accepts both so callers never duck-type at use sites.
type RoadLabel struct {
	Text string
}

// UnmarshalJSON accepts both `"I-93"` and `{"text": "I-93"}`.
func (l *RoadLabel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		l.Text = s
		return nil
	}

	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	l.Text = obj.Text
	return nil
}

// MarshalJSON always emits the structured form.
func (l RoadLabel) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Text string `json:"text"`
	}{l.Text})
}

// RouteSummary holds the timing figures for one route candidate.
// TravelTimeInSeconds is a pointer because a missing value is not the same
// as a zero-second route when filtering candidates.
type RouteSummary struct {
	TravelTimeInSeconds   *int `json:"travelTimeInSeconds,omitempty"`
	TrafficDelayInSeconds int  `json:"trafficDelayInSeconds"`
}

// Section is one segment of a route's path metadata
type Section struct {
	SectionType     string      `json:"sectionType"`
	StartPointIndex int         `json:"startPointIndex"`
	EndPointIndex   int         `json:"endPointIndex"`
	StreetName      RoadLabel   `json:"streetName,omitempty"`
	RoadNumbers     []RoadLabel `json:"roadNumbers,omitempty"`
}

// Route is a single route candidate returned by calculateRoute. The first
// candidate in a response is always the provider's primary suggestion.
type Route struct {
	Summary  RouteSummary `json:"summary"`
	Sections []Section    `json:"sections"`
}

// routingResponse is the calculateRoute envelope
type routingResponse struct {
	Routes []Route `json:"routes"`
}

// geocodeResponse is the geocode envelope
type geocodeResponse struct {
	Results []geocodeResult `json:"results"`
}

type geocodeResult struct {
	Position geocodePosition `json:"position"`
}

type geocodePosition struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Incident is one entry from the incident details feed
type Incident struct {
	Properties IncidentProperties `json:"properties"`
}

// IncidentProperties carries the fields used for incident summaries
type IncidentProperties struct {
	IconCategory int             `json:"iconCategory"`
	From         string          `json:"from"`
	To           string          `json:"to"`
	DelaySeconds int             `json:"delay"`
	RoadNumbers  []string        `json:"roadNumbers"`
	Events       []IncidentEvent `json:"events"`
}

// IncidentEvent is a human-readable description attached to an incident
type IncidentEvent struct {
	Description string `json:"description"`
}

// incidentsResponse is the incidentDetails envelope
type incidentsResponse struct {
	Incidents []Incident `json:"incidents"`
}
