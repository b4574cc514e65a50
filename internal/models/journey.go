package models

// Journey is one itinerary of a plan-journeys response. Date-times use the
// YYYYMMDDTHHMMSS layout in the timezone of the dataset.
type Journey struct {
	ID                string    `json:"id"`
	RequestedDateTime string    `json:"requestedDateTime"`
	DepartureDateTime string    `json:"departureDateTime"`
	ArrivalDateTime   string    `json:"arrivalDateTime"`
	Duration          int64     `json:"duration"`
	NbTransfers       int       `json:"nbTransfers"`
	AccessDuration    int32     `json:"accessDuration"`
	EgressDuration    int32     `json:"egressDuration"`
	Sections          []Section `json:"sections"`
}

// Section is a ride or a transfer of a journey. Ride fields are empty on
// transfers.
type Section struct {
	ID                string         `json:"id"`
	Type              string         `json:"type"`
	FromStopID        string         `json:"fromStopId"`
	ToStopID          string         `json:"toStopId"`
	DepartureDateTime string         `json:"departureDateTime"`
	ArrivalDateTime   string         `json:"arrivalDateTime"`
	Duration          int64          `json:"duration"`
	VehicleJourneyID  string         `json:"vehicleJourneyId,omitempty"`
	LineID            string         `json:"lineId,omitempty"`
	Headsign          string         `json:"headsign,omitempty"`
	StayIn            bool           `json:"stayIn,omitempty"`
	StopDateTimes     []StopDateTime `json:"stopDateTimes,omitempty"`
}

// StopDateTime is one call of a ride.
type StopDateTime struct {
	StopID            string `json:"stopId"`
	ArrivalDateTime   string `json:"arrivalDateTime"`
	DepartureDateTime string `json:"departureDateTime"`
}
