package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/FadyMorkos3/VIGIL-sub001/internal/domain/camera"
	"github.com/FadyMorkos3/VIGIL-sub001/internal/livestatus"
	"github.com/FadyMorkos3/VIGIL-sub001/internal/redis"
	"github.com/FadyMorkos3/VIGIL-sub001/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type watchOpts struct {
	interval    time.Duration
	redisAddr   string
	redisDB     int
	redisPrefix string
	maxUpdates  int
}

func (a *app) watchCmd() *cobra.Command {
	var o watchOpts

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the backend and print a line per state change",
		Long: "Poll the backend and print a line per state change until interrupted.\n" +
			"With --redis, follow the snapshot mirror of a running vigil-dashboard instead.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids, err := a.roster()
			if err != nil {
				return fmt.Errorf("roster: %w", err)
			}
			roster := service.NewRoster(ids)

			if o.redisAddr != "" {
				return a.watchRedis(cmd.Context(), cmd.OutOrStdout(), roster, o)
			}
			return a.watchPoller(cmd.Context(), cmd.OutOrStdout(), roster, o)
		},
	}

	f := cmd.Flags()
	f.DurationVar(&o.interval, "interval", livestatus.DefaultInterval, "poll interval")
	f.StringVar(&o.redisAddr, "redis", "", "follow the Redis snapshot mirror at this address")
	f.IntVar(&o.redisDB, "redis-db", 0, "Redis database")
	f.StringVar(&o.redisPrefix, "redis-prefix", "vigil", "Redis key prefix")
	f.IntVar(&o.maxUpdates, "max-updates", 0, "exit after this many updates (0 = run until interrupted)")
	_ = f.MarkHidden("max-updates")
	return cmd
}

func (a *app) watchPoller(ctx context.Context, w io.Writer, roster *service.Roster, o watchOpts) error {
	if o.interval < time.Second {
		return fmt.Errorf("interval %s: must be at least 1s", o.interval)
	}

	p := livestatus.New(a.log, a.client(), livestatus.Options{
		Interval:     o.interval,
		FetchTimeout: a.v.GetDuration("timeout"),
	})
	defer p.Close()

	dash := service.NewDashboardService(a.log, p, roster, a.builder())

	// first line reflects one synchronous fetch, reachable or not
	fctx, fcancel := a.timeoutCtx(ctx)
	_ = p.FetchLiveStatus(fctx)
	_ = p.FetchOfflineMode(fctx)
	fcancel()
	if ctx.Err() != nil {
		return nil
	}

	last := watchKeyOf(p.State())
	if err := a.printUpdate(w, dash.Status()); err != nil {
		return err
	}
	n := 1
	if o.maxUpdates > 0 && n >= o.maxUpdates {
		return nil
	}

	updates, unsubscribe := p.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := p.Start(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case st, ok := <-updates:
			if !ok {
				return nil
			}
			// polling on/off flips are not worth a line
			k := watchKeyOf(st)
			if k == last {
				continue
			}
			last = k
			if err := a.printUpdate(w, dash.Status()); err != nil {
				return err
			}
			if n++; o.maxUpdates > 0 && n >= o.maxUpdates {
				return nil
			}
		}
	}
}

// watchKey is what a watch line reports on.
type watchKey struct {
	snapshotGen uint64
	system      camera.SystemStatus
	offline     bool
	stale       bool
}

func watchKeyOf(st livestatus.State) watchKey {
	return watchKey{st.SnapshotGen, st.SystemStatus, st.OfflineMode, st.Stale}
}

func (a *app) watchRedis(ctx context.Context, w io.Writer, roster *service.Roster, o watchOpts) error {
	client := redis.NewClient(a.log, o.redisAddr, o.redisDB)
	repo := redis.NewRepository(a.log, client, o.redisPrefix)
	defer repo.Close()

	pctx, cancel := a.timeoutCtx(ctx)
	err := client.Ping(pctx)
	cancel()
	if err != nil {
		return fmt.Errorf("redis %s: %w", o.redisAddr, err)
	}

	events, err := repo.Snapshots.Events(ctx)
	if err != nil {
		return err
	}

	src := &mirrorSource{}
	dash := service.NewDashboardService(a.log, src, roster, a.builder())

	load := func() error {
		lctx, cancel := a.timeoutCtx(ctx)
		defer cancel()
		st, err := repo.Snapshots.Load(lctx)
		if err != nil {
			return err
		}
		src.st = st
		return a.printUpdate(w, dash.Status())
	}

	n := 0
	if err := load(); err != nil && !errors.Is(err, redis.ErrNoSnapshot) {
		return err
	} else if err == nil {
		n++
	}
	for o.maxUpdates == 0 || n < o.maxUpdates {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			a.log.Debug("mirror event", zap.Uint64("version", ev.Version))
			if err := load(); err != nil {
				return err
			}
			n++
		}
	}
	return nil
}

// mirrorSource holds the last state loaded from Redis. Only the watch loop
// touches it.
type mirrorSource struct{ st livestatus.State }

func (m *mirrorSource) State() livestatus.State { return m.st }

func (a *app) printUpdate(w io.Writer, v service.StatusView) error {
	if a.asJSON {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", b)
		return err
	}

	stale := ""
	if v.Stale {
		stale = " (stale)"
	}
	_, err := fmt.Fprintf(w, "%s  v%d  %-8s %d/%d online  %d alerts  offline_mode=%t%s\n",
		time.Now().Format(time.TimeOnly), v.Version, v.SystemStatus,
		v.Summary.Online, v.Summary.Total, v.Summary.Alerts, v.OfflineMode, stale)
	return err
}
