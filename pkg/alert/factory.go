package alert

import (
	"log/slog"

	"github.com/codeready-toolchain/tarsy/internal/config"
	"github.com/codeready-toolchain/tarsy/pkg/driftprofile"
)

// Factory selects a Dispatcher per profile, following the profile's
// DispatchConfig.Sink, and falls back to console when the requested
// sink's required credentials are missing.
type Factory struct {
	cfg    config.Dispatch
	logger *slog.Logger

	console *ConsoleSink
}

// NewFactory builds a Factory over env-sourced dispatch credentials,
// loaded once at construction.
func NewFactory(cfg config.Dispatch) *Factory {
	return &Factory{
		cfg:     cfg,
		logger:  slog.Default().With("component", "alert-factory"),
		console: NewConsoleSink(),
	}
}

// For returns the Dispatcher for a profile's configured sink.
func (f *Factory) For(dc driftprofile.DispatchConfig) Dispatcher {
	switch dc.Sink {
	case "slack":
		if f.cfg.SlackAppToken == "" || dc.SlackChannel == "" {
			f.logger.Warn("slack dispatch requested but credentials/channel missing, falling back to console")
			return f.console
		}
		if f.cfg.SlackAPIURL != "" {
			return NewSlackSinkWithAPIURL(f.cfg.SlackAppToken, dc.SlackChannel, f.cfg.SlackAPIURL)
		}
		return NewSlackSink(f.cfg.SlackAppToken, dc.SlackChannel)
	case "opsgenie":
		if f.cfg.OpsGenieAPIKey == "" || f.cfg.OpsGenieAPIURL == "" {
			f.logger.Warn("opsgenie dispatch requested but credentials missing, falling back to console")
			return f.console
		}
		return NewOpsGenieSink(f.cfg.OpsGenieAPIURL, f.cfg.OpsGenieAPIKey, f.cfg.OpsGenieTeam)
	default:
		return f.console
	}
}
