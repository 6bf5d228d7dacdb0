package traffic

// RoadStretch is a named stretch of road extracted from a route's section
// metadata. LengthEstimate is in path point indexes, a rough proxy for
// distance that is good enough to rank arterials above side streets.
type RoadStretch struct {
	Name           string `json:"name"`
	LengthEstimate int    `json:"length_estimate"`
}

// RouteAlternative summarizes one viable route candidate for display.
// KeyRoads carries the roads that distinguish this alternative from the
// others; Status carries incident text when it mentions one of those roads.
type RouteAlternative struct {
	RouteNum      int      `json:"route_num"`
	TravelTimeMin int      `json:"travel_time_min"`
	DelayMin      int      `json:"delay_min"`
	IsFastest     bool     `json:"is_fastest"`
	TimeVsFastest int      `json:"time_vs_fastest"`
	KeyRoads      []string `json:"key_roads"`
	Status        string   `json:"status,omitempty"`
}
