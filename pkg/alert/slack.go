package alert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goslack "github.com/slack-go/slack"
)

// SlackSink posts alerts to a Slack channel via chat.postMessage, a
// thin wrapper around the slack-go SDK, nil-safe and fail-open.
type SlackSink struct {
	api     *goslack.Client
	channel string
	logger  *slog.Logger
}

// NewSlackSink builds a SlackSink posting to channel using token.
func NewSlackSink(token, channel string) *SlackSink {
	return &SlackSink{
		api:     goslack.New(token),
		channel: channel,
		logger:  slog.Default().With("component", "alert-slack"),
	}
}

// NewSlackSinkWithAPIURL builds a SlackSink against a custom API URL,
// used in tests against a mock server.
func NewSlackSinkWithAPIURL(token, channel, apiURL string) *SlackSink {
	return &SlackSink{
		api:     goslack.New(token, goslack.OptionAPIURL(apiURL)),
		channel: channel,
		logger:  slog.Default().With("component", "alert-slack"),
	}
}

// Dispatch posts the alert as Block Kit blocks. Errors are logged and
// returned as plain wrapped errors for the caller to log and swallow
// rather than fail the scheduler cycle.
func (s *SlackSink) Dispatch(a Alert) error {
	if s == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	blocks := buildSlackBlocks(a)
	_, _, err := s.api.PostMessageContext(ctx, s.channel, goslack.MsgOptionBlocks(blocks...))
	if err != nil {
		s.logger.Error("failed to post slack alert", "entity_name", a.EntityName, "error", err)
		return fmt.Errorf("chat.postMessage failed: %w", err)
	}
	return nil
}

func buildSlackBlocks(a Alert) []goslack.Block {
	header := goslack.NewHeaderBlock(goslack.NewTextBlockObject(
		goslack.PlainTextType, fmt.Sprintf("Drift alert: %s", a.EntityName), false, false))

	body := goslack.NewSectionBlock(goslack.NewTextBlockObject(
		goslack.MarkdownType, describeBulleted(a), false, false), nil, nil)

	return []goslack.Block{header, body}
}
