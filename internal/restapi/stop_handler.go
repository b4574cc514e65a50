package restapi

import (
	"net/http"

	"planner.onebusaway.org/internal/models"
	"planner.onebusaway.org/internal/planner"
	"planner.onebusaway.org/internal/utils"
)

func (api *RestAPI) stopHandler(w http.ResponseWriter, r *http.Request) {
	stopID := utils.ExtractIDFromParams(r, "id")
	if err := utils.ValidateID(stopID); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"id": {err.Error()}})
		return
	}

	tt := api.GtfsManager.Timetable()
	if tt == nil {
		api.serviceUnavailableResponse(w, r)
		return
	}

	stop, ok := tt.StopByURI(stopID)
	if !ok {
		api.sendNotFound(w, r)
		return
	}

	stopData := planner.StopModel(tt, stop)
	references := models.NewEmptyReferences()
	for _, lineID := range stopData.LineIDs {
		if line, ok := tt.LineByURI(lineID); ok {
			references.Lines = append(references.Lines, planner.LineModel(line))
		}
	}

	api.sendResponse(w, r, models.NewEntryResponse(stopData, references))
}
