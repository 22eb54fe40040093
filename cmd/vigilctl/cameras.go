package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/FadyMorkos3/VIGIL-sub001/internal/viewmodel"
	"github.com/spf13/cobra"
)

func (a *app) camerasCmd() *cobra.Command {
	var layoutName string

	cmd := &cobra.Command{
		Use:   "cameras",
		Short: "List roster cameras with their live status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			layout, err := viewmodel.ParseLayout(layoutName)
			if err != nil {
				return err
			}

			dash, fetchErr := a.fetchOnce(cmd.Context())
			if dash == nil {
				return fetchErr
			}
			entries := dash.Cameras(layout).Entries

			out := cmd.OutOrStdout()
			if a.asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(entries); err != nil {
					return err
				}
				return fetchErr
			}

			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTATUS\tALERT\tVIDEO")
			fmt.Fprintln(w, "--\t----\t------\t-----\t-----")
			for _, e := range entries {
				alert := "-"
				if e.HasAlert && e.AlertType != nil {
					alert = *e.AlertType
				}
				video := e.VideoURL
				if video == "" {
					video = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Name, e.Status, alert, video)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return fetchErr
		},
	}
	cmd.Flags().StringVar(&layoutName, "layout", "", "grid layout: all, 2x2, 3x2, 3x3, 4x4")
	return cmd
}
