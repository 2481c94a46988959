package alert

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarsy/internal/config"
	"github.com/codeready-toolchain/tarsy/pkg/driftprofile"
)

func sampleAlert() Alert {
	return Alert{
		EntityName: "latency-monitor",
		Body: map[string]string{
			"drift_type":           "spc",
			"feature":              "latency_ms",
			"out_of_control_rate": "0.120000",
		},
		ZoneBreakdown: map[string][]ZoneHit{
			"latency_ms": {{Kind: "out_of_control", Zone: 4}},
		},
	}
}

func TestConsoleSinkNeverErrors(t *testing.T) {
	s := NewConsoleSink()
	assert.NoError(t, s.Dispatch(sampleAlert()))
}

func TestDescribeIndentedVsBulleted(t *testing.T) {
	a := sampleAlert()
	indented := describeIndented(a)
	bulleted := describeBulleted(a)
	assert.Contains(t, indented, "  drift_type: spc")
	assert.Contains(t, bulleted, "• drift_type: spc")
	assert.Contains(t, indented, "zone breakdown")
	assert.Contains(t, bulleted, "zone breakdown")
}

func TestOpsGenieSinkPostsAndSucceeds(t *testing.T) {
	var captured opsGenieRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/alerts", r.URL.Path)
		assert.Equal(t, "GenieKey test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sink := NewOpsGenieSink(srv.URL, "test-key", "sre-team")
	err := sink.Dispatch(sampleAlert())
	require.NoError(t, err)
	assert.Contains(t, captured.Message, "latency-monitor")
	require.Len(t, captured.Responders, 1)
	assert.Equal(t, "sre-team", captured.Responders[0].Name)
}

func TestOpsGenieSinkReturnsErrorOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink := NewOpsGenieSink(srv.URL, "test-key", "")
	err := sink.Dispatch(sampleAlert())
	assert.Error(t, err) // caller is expected to log and swallow
}

func TestFactoryFallsBackToConsoleWhenCredentialsMissing(t *testing.T) {
	f := NewFactory(config.Dispatch{})

	d := f.For(driftprofile.DispatchConfig{Sink: "slack", SlackChannel: "#alerts"})
	_, isConsole := d.(*ConsoleSink)
	assert.True(t, isConsole)

	d = f.For(driftprofile.DispatchConfig{Sink: "opsgenie"})
	_, isConsole = d.(*ConsoleSink)
	assert.True(t, isConsole)
}

func TestFactorySelectsOpsGenieWhenConfigured(t *testing.T) {
	f := NewFactory(config.Dispatch{OpsGenieAPIKey: "k", OpsGenieAPIURL: "https://api.opsgenie.com"})
	d := f.For(driftprofile.DispatchConfig{Sink: "opsgenie"})
	_, ok := d.(*OpsGenieSink)
	assert.True(t, ok)
}
