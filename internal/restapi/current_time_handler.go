package restapi

import (
	"net/http"
	"time"

	"planner.onebusaway.org/internal/models"
)

func (api *RestAPI) currentTimeHandler(w http.ResponseWriter, r *http.Request) {
	timeData := models.NewCurrentTimeData(time.Now())
	api.sendResponse(w, r, models.NewOKResponse(timeData))
}
