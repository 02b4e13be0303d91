package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/neurofield/alphalink/recording"
)

var recordingsCmd = &cobra.Command{
	Use:   "recordings",
	Short: "List the local recording index",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := recording.OpenStore(cfg.Recording.DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close()

		recs, err := store.List()
		if err != nil {
			return err
		}

		if len(recs) == 0 {
			fmt.Println("no recordings")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "ID\tDevice\tLabel\tStarted\tStopped\tStatus\n")

		for _, r := range recs {
			stopped := "-"
			if !r.StoppedAt.IsZero() {
				stopped = r.StoppedAt.Format(time.RFC3339)
			}

			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				r.ID, r.DeviceID, r.Label,
				r.StartedAt.Format(time.RFC3339), stopped, r.Status)
		}

		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(recordingsCmd)
}
