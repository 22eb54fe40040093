package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/FadyMorkos3/VIGIL-sub001/internal/livestatus"
	"github.com/FadyMorkos3/VIGIL-sub001/internal/service"
	"github.com/spf13/cobra"
)

// fetchOnce runs one live-status + offline-mode fetch and returns the
// projection over it. The live-status error is returned alongside a usable
// (offline) dashboard.
func (a *app) fetchOnce(ctx context.Context) (*service.DashboardService, error) {
	ids, err := a.roster()
	if err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}

	p := livestatus.New(a.log, a.client(), livestatus.Options{FetchTimeout: a.v.GetDuration("timeout")})
	defer p.Close()

	ctx, cancel := a.timeoutCtx(ctx)
	defer cancel()

	liveErr := p.FetchLiveStatus(ctx)
	_ = p.FetchOfflineMode(ctx)

	// State is copied out before Close, so the dashboard stays readable.
	dash := service.NewDashboardService(a.log, frozen{p.State()}, service.NewRoster(ids), a.builder())
	if liveErr != nil {
		return dash, fmt.Errorf("live status: %w", liveErr)
	}
	return dash, nil
}

// frozen serves one captured state.
type frozen struct{ st livestatus.State }

func (f frozen) State() livestatus.State { return f.st }

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show backend reachability, offline mode and a camera summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dash, err := a.fetchOnce(cmd.Context())
			if dash == nil {
				return err
			}
			if perr := a.printStatus(cmd.OutOrStdout(), dash.Status()); perr != nil {
				return perr
			}
			return err
		},
	}
}

func (a *app) printStatus(w io.Writer, v service.StatusView) error {
	if a.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	last := "never"
	if v.LastUpdate != nil {
		last = v.LastUpdate.Local().Format(time.DateTime)
	}
	fmt.Fprintf(w, "System:       %s\n", v.SystemStatus)
	fmt.Fprintf(w, "Offline mode: %t\n", v.OfflineMode)
	fmt.Fprintf(w, "Last update:  %s\n", last)
	fmt.Fprintf(w, "Cameras:      %d online / %d total\n", v.Summary.Online, v.Summary.Total)
	fmt.Fprintf(w, "Alerts:       %d\n", v.Summary.Alerts)
	return nil
}
