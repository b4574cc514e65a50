package models

// Coverage describes the loaded dataset: its production period and the
// area its stops cover.
type Coverage struct {
	StartDate   string       `json:"startDate"`
	EndDate     string       `json:"endDate"`
	Days        int          `json:"days"`
	Timezone    string       `json:"timezone"`
	Bounds      RegionBounds `json:"bounds"`
	LastUpdated int64        `json:"lastUpdated"`
	Stops       int          `json:"stops"`
	Lines       int          `json:"lines"`
	Journeys    int          `json:"vehicleJourneys"`
}

// RegionBounds is the bounding box of the stops, with its center and spans.
type RegionBounds struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	LatSpan float64 `json:"latSpan"`
	LonSpan float64 `json:"lonSpan"`
}
