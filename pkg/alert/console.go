package alert

import "log/slog"

// ConsoleSink logs alerts via slog rather than posting to an external
// service; it's the fallback dispatcher used when no HTTP sink is
// configured.
type ConsoleSink struct {
	logger *slog.Logger
}

// NewConsoleSink builds a ConsoleSink.
func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{logger: slog.Default().With("component", "alert-console")}
}

func (s *ConsoleSink) Dispatch(a Alert) error {
	s.logger.Info("drift alert", "description", describe(a))
	return nil
}
