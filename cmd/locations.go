package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetrollout/internal/formatter"
)

func newLocationsCmd(opts *options) *cobra.Command {
	locations := &cobra.Command{
		Use:   "locations",
		Short: "Location counters",
	}
	drift := &cobra.Command{
		Use:   "drift",
		Short: "List locations whose declared counters disagree with their vehicles",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer closeService(svc)
			drifted := svc.Workspace.Drifted()
			out := cmd.OutOrStdout()
			if len(drifted) == 0 {
				_, err = fmt.Fprintln(out, "All location counters match their vehicles.")
				return err
			}
			var rows [][]string
			for _, p := range drifted {
				rows = append(rows, []string{
					p.Location,
					fmt.Sprintf("%d/%d", p.Declared.Vehicles, p.Actual.Vehicles),
					fmt.Sprintf("%d/%d", p.Declared.GPSDevices, p.Actual.GPSDevices),
					fmt.Sprintf("%d/%d", p.Declared.FuelSensors, p.Actual.FuelSensors),
				})
			}
			_, err = fmt.Fprint(out, formatter.Table([]string{"LOCATION", "VEHICLES", "GPS", "FUEL SENSORS"}, rows))
			return err
		},
	}
	sync := &cobra.Command{
		Use:   "sync NAME",
		Short: "Rewrite the counters of a location from its vehicles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer closeService(svc)
			loc, changed, err := svc.Workspace.SyncLocationCounts(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !changed {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s already in sync\n", loc.Name)
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s synced: %s vehicles, %s GPS devices, %s fuel sensors\n",
				loc.Name, strconv.Itoa(loc.Vehicles), strconv.Itoa(loc.GPSDevices), strconv.Itoa(loc.FuelSensors))
			return err
		},
	}
	locations.AddCommand(drift, sync)
	return locations
}
