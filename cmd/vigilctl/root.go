package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/FadyMorkos3/VIGIL-sub001/internal/backend"
	"github.com/FadyMorkos3/VIGIL-sub001/internal/config"
	"github.com/FadyMorkos3/VIGIL-sub001/internal/viewmodel"
	"github.com/FadyMorkos3/VIGIL-sub001/pkg/fmtt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// app carries what every subcommand needs.
type app struct {
	v   *viper.Viper
	log *zap.Logger

	cfgFile string
	asJSON  bool
	debug   bool
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{v: viper.New(), log: zap.NewNop()}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		if a.debug {
			fmtt.FprintErrChain(stderr, err, true)
		} else {
			fmt.Fprintln(stderr, "Error:", err)
		}
		return 1
	}
	return 0
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vigilctl",
		Short:         "Inspect and control a VIGIL surveillance backend",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", config.Version, config.GitCommit, config.BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initConfig(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default $HOME/.vigilctl.yaml)")
	pf.String("api-url", "http://127.0.0.1:5000", "backend base URL (env VIGIL_API_URL)")
	pf.String("video-base-url", "", "prefix for /videos/ URLs (env VIGIL_VIDEO_BASE_URL)")
	pf.String("roster-file", "", "YAML roster file; default is the built-in roster")
	pf.Duration("timeout", 5*time.Second, "per-request timeout")
	pf.BoolVar(&a.asJSON, "json", false, "output JSON")
	pf.BoolVar(&a.debug, "debug", false, "verbose logs and error dumps")

	for key, flag := range map[string]string{
		"api_url":        "api-url",
		"video_base_url": "video-base-url",
		"roster_file":    "roster-file",
		"timeout":        "timeout",
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		a.statusCmd(),
		a.camerasCmd(),
		a.offlineModeCmd(),
		a.watchCmd(),
	)
	return root
}

func (a *app) initConfig(cmd *cobra.Command) error {
	a.v.SetEnvPrefix("VIGIL")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		a.v.AddConfigPath(home)
		a.v.SetConfigType("yaml")
		a.v.SetConfigName(".vigilctl")
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	if a.debug {
		a.log = zap.Must(zap.NewDevelopment())
	}
	a.log.Debug("config resolved",
		zap.String("file", a.v.ConfigFileUsed()),
		zap.String("api_url", a.v.GetString("api_url")),
		zap.String("command", cmd.Name()),
	)
	return nil
}

func (a *app) client() *backend.Client {
	return backend.NewClient(a.log, backend.Options{
		BaseURL:        a.v.GetString("api_url"),
		RequestTimeout: a.v.GetDuration("timeout"),
	})
}

func (a *app) builder() viewmodel.Builder {
	return viewmodel.Builder{VideoBase: a.v.GetString("video_base_url")}
}

func (a *app) roster() ([]string, error) {
	path := a.v.GetString("roster_file")
	if path == "" {
		if ids := a.v.GetStringSlice("roster"); len(ids) > 0 {
			return ids, nil
		}
		return viewmodel.DefaultRoster, nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	return viewmodel.ParseRoster(data)
}

func (a *app) timeoutCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, a.v.GetDuration("timeout")+time.Second)
}
