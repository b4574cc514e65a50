package gtfs

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// testFeed is a small network:
//
//	S1 --T1--> P1 ==stay-in T2==> S3 --walk 300s--> S4
//	           P1 <-station STA-> P2 --T3--> S4
//
// T1 and T2 share block B1. Service WK runs every day of January 2025 except
// the 15th, plus February 1st.
var testFeed = map[string]string{
	"agency.txt": `agency_id,agency_name,agency_url,agency_timezone
AG,Test Transit,http://example.com,America/Los_Angeles
`,
	"routes.txt": `route_id,agency_id,route_short_name,route_long_name,route_type
R1,AG,1,Crosstown,3
R2,AG,2,,3
`,
	"stops.txt": `stop_id,stop_name,stop_lat,stop_lon,location_type,parent_station,wheelchair_boarding
STA,Central Station,47.6001,-122.3300,1,,1
P1,Central Platform 1,47.6000,-122.3300,0,STA,0
P2,Central Platform 2,47.6003,-122.3300,0,STA,2
S1,First Avenue,47.5900,-122.3300,0,,1
S3,Third Avenue,47.6100,-122.3300,0,,1
S4,Fourth Avenue,47.6110,-122.3300,0,,1
`,
	"calendar.txt": `service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date
WK,1,1,1,1,1,1,1,20250101,20250131
`,
	"calendar_dates.txt": `service_id,date,exception_type
WK,20250115,2
WK,20250201,1
`,
	"trips.txt": `route_id,service_id,trip_id,trip_headsign,block_id,wheelchair_accessible
R1,WK,T1,Central,B1,1
R1,WK,T2,Third Avenue,B1,1
R2,WK,T3,Fourth Avenue,,2
`,
	"stop_times.txt": `trip_id,arrival_time,departure_time,stop_id,stop_sequence
T1,08:00:00,08:00:00,S1,1
T1,08:10:00,08:10:00,P1,2
T2,08:20:00,08:20:00,P1,1
T2,08:30:00,08:30:00,S3,2
T3,08:20:00,08:20:00,P2,1
T3,08:40:00,08:40:00,S4,2
`,
	"transfers.txt": `from_stop_id,to_stop_id,transfer_type,min_transfer_time
S3,S4,2,300
`,
}

// writeTestFeed zips files into a temporary directory and returns its path.
func writeTestFeed(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feed.zip")
	writeFeedFile(t, path, files)
	return path
}

// writeFeedFile replaces the zip at path.
func writeFeedFile(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

// withFile returns a copy of files with name replaced.
func withFile(files map[string]string, name, content string) map[string]string {
	out := make(map[string]string, len(files))
	for k, v := range files {
		out[k] = v
	}
	out[name] = strings.TrimLeft(content, "\n")
	return out
}
