package scheduler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cornell-dti/o-week-android-sub000/internal/clients/feed"
	"github.com/cornell-dti/o-week-android-sub000/internal/domain/schedule"
	syncdomain "github.com/cornell-dti/o-week-android-sub000/internal/domain/sync"
	"github.com/cornell-dti/o-week-android-sub000/internal/infrastructure/persistence/sqlite"
	"github.com/cornell-dti/o-week-android-sub000/pkg/logger"
)

func newTestRunner(t *testing.T, handler http.Handler) (*Runner, *schedule.Service, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	state := sqlite.NewStateStore(db)

	svc := schedule.NewService(state, zap.NewNop())
	reconciler := syncdomain.NewReconciler(svc, state, zap.NewNop())
	client := feed.NewClient(server.URL, 5*time.Second, zap.NewNop())

	log := logger.NewLoggerWithLevel("error", "json")
	return NewRunner(client, reconciler, "@every 1h", log), svc, server
}

func TestRunOnceAppliesPayload(t *testing.T) {
	start := time.Date(2026, 8, 22, 9, 0, 0, 0, time.UTC)
	day := time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC)

	runner, svc, _ := newTestRunner(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/events/feed/0", r.URL.Path)
		fmt.Fprintf(w, `{
			"events": {"changed": [{"pk": "a", "name": "Check-In", "start": %d, "end": %d}]},
			"timestamp": 9
		}`, start.UnixMilli(), start.Add(time.Hour).UnixMilli())
	}))

	result, err := runner.RunOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(9), result.Version)
	assert.Len(t, svc.EventsOn(day), 1)
}

func TestRunOnceUpToDate(t *testing.T) {
	runner, _, _ := newTestRunner(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	result, err := runner.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestRunOnceFetchError(t *testing.T) {
	runner, _, _ := newTestRunner(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))

	result, err := runner.RunOnce(context.Background())
	assert.Nil(t, result)
	assert.Error(t, err)
}

func TestRunOnceRejectsOverlap(t *testing.T) {
	release := make(chan struct{})
	var inFlight atomic.Bool

	runner, _, _ := newTestRunner(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inFlight.Store(true)
		<-release
		w.WriteHeader(http.StatusNoContent)
	}))

	done := make(chan error, 1)
	go func() {
		_, err := runner.RunOnce(context.Background())
		done <- err
	}()

	require.Eventually(t, inFlight.Load, time.Second, time.Millisecond)

	_, err := runner.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrSyncInFlight)

	close(release)
	require.NoError(t, <-done)
}
