package restapi

import (
	"net/http"

	"planner.onebusaway.org/internal/models"
)

const coverageDateLayout = "20060102"

// coverageHandler describes the dataset searches run against.
func (api *RestAPI) coverageHandler(w http.ResponseWriter, r *http.Request) {
	tt := api.GtfsManager.Timetable()
	if tt == nil {
		api.serviceUnavailableResponse(w, r)
		return
	}

	period := tt.Period()
	stats := tt.Statistics()
	bounds := api.GtfsManager.GetRegionBounds()
	coverage := models.Coverage{
		StartDate: period.Start.Format(coverageDateLayout),
		EndDate:   period.Date(period.Days - 1).Format(coverageDateLayout),
		Days:      period.Days,
		Timezone:  period.Location().String(),
		Bounds: models.RegionBounds{
			Lat:     bounds.Lat,
			Lon:     bounds.Lon,
			LatSpan: bounds.LatSpan,
			LonSpan: bounds.LonSpan,
		},
		LastUpdated: api.GtfsManager.LastUpdated().UnixMilli(),
		Stops:       stats.Stops,
		Lines:       stats.Lines,
		Journeys:    stats.VehicleJourneys,
	}

	api.sendResponse(w, r, models.NewEntryResponse(coverage, models.NewEmptyReferences()))
}
