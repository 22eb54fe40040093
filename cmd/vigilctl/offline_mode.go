package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/FadyMorkos3/VIGIL-sub001/internal/livestatus"
	"github.com/spf13/cobra"
)

func (a *app) offlineModeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "offline-mode [get|toggle]",
		Short:     "Show or flip the backend offline-mode flag",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"get", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.timeoutCtx(cmd.Context())
			defer cancel()

			client := a.client()
			if len(args) == 0 || args[0] == "get" {
				on, err := client.OfflineMode(ctx)
				if err != nil {
					return fmt.Errorf("offline mode: %w", err)
				}
				return a.printOfflineMode(cmd.OutOrStdout(), on)
			}

			p := livestatus.New(a.log, client, livestatus.Options{FetchTimeout: a.v.GetDuration("timeout")})
			defer p.Close()

			// current flag first; the toggle sends its inverse
			if err := p.FetchOfflineMode(ctx); err != nil {
				return err
			}
			if err := p.ToggleOfflineMode(ctx); err != nil {
				return err
			}
			return a.printOfflineMode(cmd.OutOrStdout(), p.State().OfflineMode)
		},
	}
	return cmd
}

func (a *app) printOfflineMode(w io.Writer, on bool) error {
	if a.asJSON {
		return json.NewEncoder(w).Encode(map[string]bool{"offline_mode": on})
	}
	_, err := fmt.Fprintf(w, "offline_mode: %t\n", on)
	return err
}
