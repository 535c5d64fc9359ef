package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/serenemind/emotion-monitor/internal/http/handlers"
	"github.com/serenemind/emotion-monitor/internal/intervention"
	"github.com/serenemind/emotion-monitor/internal/session"
	"github.com/serenemind/emotion-monitor/pkg/logging"
)

type stubView struct{}

func (stubView) Status() session.Status         { return session.Status{SessionID: "s"} }
func (stubView) History() []intervention.Record { return nil }

func TestRoutes(t *testing.T) {
	logger := logging.NewWithWriter("error", io.Discard)
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r := New(&Config{
		Logger:         logger,
		StatusHandler:  handlers.NewStatusHandler(stubView{}, logger),
		MetricsHandler: metricsHandler,
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	for _, path := range []string{"/healthz", "/status", "/interventions", "/metrics"} {
		resp, err := http.Get(srv.URL + path)
		if assert.NoError(t, err, path) {
			assert.Equal(t, http.StatusOK, resp.StatusCode, path)
			resp.Body.Close()
		}
	}

	resp, err := http.Get(srv.URL + "/nope")
	if assert.NoError(t, err) {
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	}
}
