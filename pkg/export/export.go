// Package export writes the installation schedule in file formats shared with
// the field teams.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/fleetrollout/core/model"
)

// Row is one scheduled installation.
type Row struct {
	VehicleID string `json:"vehicle_id" yaml:"vehicle_id"`
	Type      string `json:"type" yaml:"type"`
	Location  string `json:"location" yaml:"location"`
	Day       int    `json:"day" yaml:"day"`
	Date      string `json:"date" yaml:"date"`
	TimeSlot  string `json:"time_slot" yaml:"time_slot"`
	Status    string `json:"status" yaml:"status"`
}

// Formats lists the supported output formats.
var Formats = []string{"json", "csv", "yaml"}

// Rows builds the schedule ordered by day, slot and vehicle id. dateForDay
// maps a project day to its calendar date.
func Rows(vehicles []model.Vehicle, dateForDay func(int) model.Date) []Row {
	rows := make([]Row, 0, len(vehicles))
	for _, v := range vehicles {
		rows = append(rows, Row{
			VehicleID: v.ID,
			Type:      v.Type,
			Location:  v.Location,
			Day:       v.Day,
			Date:      dateForDay(v.Day).String(),
			TimeSlot:  v.TimeSlot,
			Status:    string(v.Status),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.TimeSlot != b.TimeSlot {
			return a.TimeSlot < b.TimeSlot
		}
		return a.VehicleID < b.VehicleID
	})
	return rows
}

// Write encodes rows to w in format.
func Write(w io.Writer, format string, rows []Row) error {
	switch format {
	case "json":
		return WriteJSON(w, rows)
	case "csv":
		return WriteCSV(w, rows)
	case "yaml", "yml":
		return WriteYAML(w, rows)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func WriteJSON(w io.Writer, rows []Row) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// WriteCSV writes a header line followed by one line per row.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"vehicle_id", "type", "location", "day", "date", "time_slot", "status"}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{r.VehicleID, r.Type, r.Location, strconv.Itoa(r.Day), r.Date, r.TimeSlot, r.Status}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteYAML(w io.Writer, rows []Row) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rows); err != nil {
		return err
	}
	return enc.Close()
}
