package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetrollout/internal/formatter"
)

func newFleetCmd(opts *options) *cobra.Command {
	fleet := &cobra.Command{
		Use:   "fleet",
		Short: "Fleet related commands",
	}
	var location, status string
	ls := &cobra.Command{
		Use:   "ls",
		Short: "List vehicles and their installation slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer closeService(svc)
			ws := svc.Workspace
			var rows [][]string
			for _, v := range ws.Vehicles().Data {
				if location != "" && v.Location != location {
					continue
				}
				if status != "" && string(v.Status) != status {
					continue
				}
				rows = append(rows, []string{
					v.ID, v.Type, v.Location,
					strconv.Itoa(v.Day), ws.DateForDay(v.Day).String(), v.TimeSlot,
					formatter.Status(string(v.Status)),
				})
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), formatter.Table(
				[]string{"ID", "TYPE", "LOCATION", "DAY", "DATE", "SLOT", "STATUS"}, rows))
			return err
		},
	}
	ls.Flags().StringVar(&location, "location", "", "only vehicles at this location")
	ls.Flags().StringVar(&status, "status", "", "only vehicles with this status")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show installation progress per location",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer closeService(svc)
			ws := svc.Workspace
			f := ws.FleetStats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Fleet      %s  %d/%d completed, %d in progress, %d pending\n",
				formatter.Progress(f.Percent, 20), f.Completed, f.Total, f.InProgress, f.Pending)
			fmt.Fprintf(out, "Devices    %d GPS, %d fuel sensors, %d special requirements\n\n",
				f.GPSDevices, f.FuelSensors, f.SpecialRequirements)
			var rows [][]string
			for _, p := range ws.LocationProgress() {
				rows = append(rows, []string{
					p.Location, formatter.Progress(p.Percent, 10),
					strconv.Itoa(p.Completed), strconv.Itoa(p.Total),
				})
			}
			_, err = fmt.Fprint(out, formatter.Table([]string{"LOCATION", "PROGRESS", "DONE", "VEHICLES"}, rows))
			return err
		},
	}
	fleet.AddCommand(ls, stats)
	return fleet
}
