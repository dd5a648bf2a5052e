package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetrollout/core/model"
	"github.com/kilianp07/fleetrollout/core/schedule"
	"github.com/kilianp07/fleetrollout/internal/formatter"
	"github.com/kilianp07/fleetrollout/pkg/export"
)

func newScheduleCmd(opts *options) *cobra.Command {
	sched := &cobra.Command{
		Use:   "schedule",
		Short: "Installation schedule",
	}
	sched.AddCommand(newGridCmd(opts), newRescheduleCmd(opts), newExportCmd(opts))
	return sched
}

func newGridCmd(opts *options) *cobra.Command {
	var (
		week int
		f    struct{ location, status, query string }
	)
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Show vehicles per day and time slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer closeService(svc)
			ws := svc.Workspace
			if week < 0 || week > ws.Weeks() {
				return fmt.Errorf("week %d out of range, the project has %d weeks", week, ws.Weeks())
			}
			grid := ws.Grid(week-1, schedule.Filter{
				Location: f.location,
				Status:   model.VehicleStatus(f.status),
				Query:    f.query,
			})
			days := make([]int, 0, len(grid))
			for d := range grid {
				days = append(days, d)
			}
			sort.Ints(days)
			headers := append([]string{"DAY", "DATE"}, ws.Slots()...)
			rows := make([][]string, 0, len(days))
			for _, d := range days {
				row := []string{strconv.Itoa(d), ws.DateForDay(d).String()}
				for _, slot := range ws.Slots() {
					ids := make([]string, 0, len(grid[d][slot]))
					for _, v := range grid[d][slot] {
						ids = append(ids, v.ID)
					}
					row = append(row, strings.Join(ids, " "))
				}
				rows = append(rows, row)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), formatter.Table(headers, rows))
			return err
		},
	}
	cmd.Flags().IntVarP(&week, "week", "w", 0, "one-based week to show, 0 for the whole project")
	cmd.Flags().StringVar(&f.location, "location", "", "only vehicles at this location")
	cmd.Flags().StringVar(&f.status, "status", "", "only vehicles with this status")
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "match vehicle id, type or location")
	return cmd
}

func newRescheduleCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reschedule ID DAY SLOT",
		Short: "Move a vehicle to another day and time slot",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("day %q: %w", args[1], err)
			}
			svc, err := openService(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer closeService(svc)
			ws := svc.Workspace
			preview, err := ws.PreviewReschedule(args[0], day, args[2])
			if err != nil {
				return err
			}
			changed, err := ws.Reschedule(cmd.Context(), args[0], day, args[2])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !changed {
				_, err = fmt.Fprintf(out, "%s already on day %d %s\n", args[0], day, args[2])
				return err
			}
			fmt.Fprintf(out, "%s moved to day %d (%s) %s\n", args[0], day, preview.Date, args[2])
			for _, o := range preview.Occupants {
				fmt.Fprintf(out, "  shares the slot with %s (%s)\n", o.ID, o.Location)
			}
			return nil
		},
	}
}

func newExportCmd(opts *options) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the schedule as " + strings.Join(export.Formats, ", "),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer closeService(svc)
			ws := svc.Workspace
			rows := export.Rows(ws.Vehicles().Data, ws.DateForDay)
			if output == "" || output == "-" {
				return export.Write(cmd.OutOrStdout(), format, rows)
			}
			fh, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := export.Write(fh, format, rows); err != nil {
				_ = fh.Close()
				return err
			}
			return fh.Close()
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}
