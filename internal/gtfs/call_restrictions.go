package gtfs

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const stopTimesFile = "stop_times.txt"

// CallKey identifies a row of stop_times.txt.
type CallKey struct {
	TripID       string
	StopSequence int
}

// CallRestriction records an explicit pickup_type or drop_off_type of 1.
type CallRestriction struct {
	NoPickUp  bool
	NoDropOff bool
}

// CallRestrictions holds the calls that forbid pickup or drop-off. Calls not
// in the map have regular service.
//
// The parser reads an empty or missing policy as "no service", the same as
// an explicit 1, so the explicit values are taken from the raw file.
type CallRestrictions map[CallKey]CallRestriction

func (cr CallRestrictions) lookup(tripID string, stopSequence int) CallRestriction {
	return cr[CallKey{TripID: tripID, StopSequence: stopSequence}]
}

// readCallRestrictions scans stop_times.txt of a zipped feed.
func readCallRestrictions(content []byte) (CallRestrictions, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}
	for _, f := range reader.File {
		if f.Name == stopTimesFile {
			return consumeStopTimes(f)
		}
	}
	return CallRestrictions{}, nil
}

func consumeStopTimes(f *zip.File) (CallRestrictions, error) {
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return parseCallRestrictions(r)
}

func parseCallRestrictions(r io.Reader) (CallRestrictions, error) {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	csvr.ReuseRecord = true

	restrictions := CallRestrictions{}
	head, err := csvr.Read()
	if errors.Is(err, io.EOF) {
		return restrictions, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s header: %w", stopTimesFile, err)
	}
	idx := func(col string) int {
		for i, h := range head {
			if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), col) {
				return i
			}
		}
		return -1
	}
	tripCol, seqCol := idx("trip_id"), idx("stop_sequence")
	pickupCol, dropOffCol := idx("pickup_type"), idx("drop_off_type")
	if tripCol < 0 || seqCol < 0 || (pickupCol < 0 && dropOffCol < 0) {
		return restrictions, nil
	}

	field := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	for {
		row, err := csvr.Read()
		if errors.Is(err, io.EOF) {
			return restrictions, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", stopTimesFile, err)
		}
		rc := CallRestriction{
			NoPickUp:  field(row, pickupCol) == "1",
			NoDropOff: field(row, dropOffCol) == "1",
		}
		if !rc.NoPickUp && !rc.NoDropOff {
			continue
		}
		seq, err := strconv.Atoi(field(row, seqCol))
		if err != nil {
			continue
		}
		restrictions[CallKey{TripID: field(row, tripCol), StopSequence: seq}] = rc
	}
}
