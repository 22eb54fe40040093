package config

// Build metadata, set via -ldflags "-X github.com/FadyMorkos3/VIGIL-sub001/internal/config.Version=..."
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)
