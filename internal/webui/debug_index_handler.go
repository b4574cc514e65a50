package webui

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/davecgh/go-spew/spew"

	"planner.onebusaway.org/internal/gtfs"
	"planner.onebusaway.org/internal/timetable"
)

//go:embed debug_index.html
var templateFS embed.FS

var debugTemplate = template.Must(template.ParseFS(templateFS, "debug_index.html"))

// maxDumpItems bounds the entities dumped per page.
const maxDumpItems = 200

var dataTypes = []string{"statistics", "period", "stops", "lines", "patterns", "vehicle_journeys", "connections", "warnings"}

type debugData struct {
	Title     string
	Pre       string
	DataTypes []string
}

// WebUI serves pages dumping the internals of the live timetable.
type WebUI struct {
	GtfsManager *gtfs.Manager
}

func writeDebugData(w http.ResponseWriter, title string, data interface{}) {
	config := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, MaxDepth: 4}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := debugTemplate.Execute(w, debugData{
		Title:     title,
		Pre:       config.Sdump(data),
		DataTypes: dataTypes,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func head[E any](items []E) []E {
	return items[:min(len(items), maxDumpItems)]
}

func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	tt := webUI.GtfsManager.Timetable()
	if tt == nil {
		http.Error(w, "timetable not loaded", http.StatusServiceUnavailable)
		return
	}

	var data interface{}
	var title string
	switch r.URL.Query().Get("dataType") {
	case "statistics":
		data = tt.Statistics()
		title = "Timetable - Statistics"
	case "period":
		data = struct {
			Period   timetable.Period
			FeedHash string
			Source   string
		}{tt.Period(), webUI.GtfsManager.FeedHash(), webUI.GtfsManager.Source()}
		title = "Timetable - Production Period"
	case "stops":
		data = head(tt.Stops())
		title = "Timetable - Stops"
	case "lines":
		data = head(tt.Lines())
		title = "Timetable - Lines"
	case "patterns":
		data = head(tt.JourneyPatterns())
		title = "Timetable - Journey Patterns"
	case "vehicle_journeys":
		data = head(tt.VehicleJourneys())
		title = "Timetable - Vehicle Journeys"
	case "connections":
		data = head(tt.Connections())
		title = "Timetable - Connections"
	case "warnings":
		if static := webUI.GtfsManager.GetStaticData(); static != nil {
			data = static.Warnings
		} else {
			data = "restored from snapshot, no parse warnings kept"
		}
		title = "GTFS Static - Parse Warnings"
	default:
		data = map[string][]string{"Please use one of the following": dataTypes}
		title = "Choose a data type"
	}

	writeDebugData(w, title, data)
}
