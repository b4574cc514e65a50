package models

// Stop is a stop of the loaded timetable.
type Stop struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Lat                float64  `json:"lat"`
	Lon                float64  `json:"lon"`
	WheelchairBoarding string   `json:"wheelchairBoarding"`
	LineIDs            []string `json:"lineIds"`
}

func NewStop(id, name string, lat, lon float64, wheelchair bool, lineIDs []string) Stop {
	if lineIDs == nil {
		lineIDs = []string{}
	}
	return Stop{
		ID:                 id,
		Name:               name,
		Lat:                lat,
		Lon:                lon,
		WheelchairBoarding: WheelchairBoarding(wheelchair),
		LineIDs:            lineIDs,
	}
}

// WheelchairBoarding renders an accessibility flag.
func WheelchairBoarding(accessible bool) string {
	if accessible {
		return Accessible
	}
	return NotAccessible
}

// Line is a commercial line of the loaded timetable.
type Line struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

func NewLine(id, code, name string) Line {
	return Line{ID: id, Code: code, Name: name}
}
