package restapi

import (
	"context"
	"errors"
	"net/http"

	"planner.onebusaway.org/internal/models"
	"planner.onebusaway.org/internal/planner"
	"planner.onebusaway.org/internal/raptor"
	"planner.onebusaway.org/internal/utils"
)

// queryErrorFields maps search input errors back to request parameters.
var queryErrorFields = map[string]string{
	"origin":       "from",
	"destination":  "to",
	"datetimes":    "datetime",
	"maxTransfers": "maxTransfers",
}

// planJourneysHandler answers
//
//	GET /api/where/plan-journeys.json?from=A&to=B&datetime=20250102T080000
//
// from and to are stop ids; fromAccess and toAccess replace them with
// stop:seconds lists computed by a street router. datetime may be repeated.
func (api *RestAPI) planJourneysHandler(w http.ResponseWriter, r *http.Request) {
	q, fieldErrors := api.parsePlanJourneysQuery(r)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	result, err := api.Planner.PlanJourneys(r.Context(), q)
	if err != nil {
		var queryErr *raptor.QueryError
		switch {
		case errors.As(err, &queryErr):
			field := queryErrorFields[queryErr.Field]
			if field == "" {
				field = queryErr.Field
			}
			api.validationErrorResponse(w, r, map[string][]string{field: {queryErr.Err.Error()}})
		case errors.Is(err, planner.ErrNoTimetable):
			api.serviceUnavailableResponse(w, r)
		case errors.Is(err, context.Canceled):
			// The client is gone.
		default:
			api.serverErrorResponse(w, r, err)
		}
		return
	}

	api.sendResponse(w, r, models.NewListResponse(result.Journeys, result.References))
}

func (api *RestAPI) parsePlanJourneysQuery(r *http.Request) (planner.Query, map[string][]string) {
	params := r.URL.Query()
	var fieldErrors map[string][]string

	q := planner.Query{
		From:      utils.SanitizeInput(params.Get("from")),
		To:        utils.SanitizeInput(params.Get("to")),
		Forbidden: utils.ParseListParam(params, "forbiddenUris"),
	}

	var fromAccess, toAccess []utils.AccessParam
	fromAccess, fieldErrors = utils.ParseAccessParam(params, "fromAccess", fieldErrors)
	toAccess, fieldErrors = utils.ParseAccessParam(params, "toAccess", fieldErrors)
	q.FromAccess = stopAccess(fromAccess)
	q.ToAccess = stopAccess(toAccess)

	fieldErrors = checkEntryPoint(fieldErrors, "from", q.From, len(q.FromAccess) > 0)
	fieldErrors = checkEntryPoint(fieldErrors, "to", q.To, len(q.ToAccess) > 0)

	q.DateTimes, fieldErrors = utils.ParseDateTimesParam(params, "datetime", fieldErrors)
	if len(q.DateTimes) == 0 && fieldErrors["datetime"] == nil {
		fieldErrors = addFieldError(fieldErrors, "datetime", "datetime is required")
	}

	q.Clockwise, fieldErrors = utils.ParseBoolParam(params, "clockwise", true, fieldErrors)
	q.Wheelchair, fieldErrors = utils.ParseBoolParam(params, "wheelchair", false, fieldErrors)

	maxTransfers := api.Config.MaxTransfers
	if maxTransfers <= 0 {
		maxTransfers = 1
	}
	q.MaxTransfers, fieldErrors = utils.ParseIntParam(params, "maxTransfers", maxTransfers, fieldErrors)
	if fieldErrors["maxTransfers"] == nil {
		if err := utils.ValidateMaxTransfers(q.MaxTransfers, api.Config.MaxTransfersLimit); err != nil {
			fieldErrors = addFieldError(fieldErrors, "maxTransfers", err.Error())
		}
	}

	for _, uri := range q.Forbidden {
		if err := utils.ValidateID(uri); err != nil {
			fieldErrors = addFieldError(fieldErrors, "forbiddenUris", err.Error())
			break
		}
	}
	return q, fieldErrors
}

// checkEntryPoint requires a valid stop id unless an access list is given.
func checkEntryPoint(fieldErrors map[string][]string, key, id string, hasAccess bool) map[string][]string {
	if hasAccess && id == "" {
		return fieldErrors
	}
	if err := utils.ValidateID(id); err != nil {
		return addFieldError(fieldErrors, key, err.Error())
	}
	return fieldErrors
}

func addFieldError(fieldErrors map[string][]string, key, message string) map[string][]string {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}
	fieldErrors[key] = append(fieldErrors[key], message)
	return fieldErrors
}

func stopAccess(params []utils.AccessParam) []raptor.StopAccess {
	if len(params) == 0 {
		return nil
	}
	access := make([]raptor.StopAccess, len(params))
	for i, p := range params {
		access[i] = raptor.StopAccess{Stop: p.StopID, Duration: p.Duration}
	}
	return access
}
