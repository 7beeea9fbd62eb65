package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.SoundEnqueued()
	m.SoundEnqueued()
	m.SoundPlayed()
	m.PlayFailed()
	m.DrainStarted()
	m.DrainStarted()
	m.DrainFinished()
	m.CombinationSaved()
	m.CombinationDeleted()
	m.Interaction("soundboard")
	m.Interaction("soundboard")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.enqueued))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.played))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.playFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeDrains))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.combinationsSaved))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.combinationsDeleted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.commands.WithLabelValues("soundboard")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SoundEnqueued()
		m.SoundPlayed()
		m.PlayFailed()
		m.DrainStarted()
		m.DrainFinished()
		m.CombinationSaved()
		m.CombinationDeleted()
		m.Interaction("x")
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler(t *testing.T) {
	m := New()
	m.SoundPlayed()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "soundbig_sounds_played_total 1")
}
