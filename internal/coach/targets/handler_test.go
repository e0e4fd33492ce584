package targets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Alazca/official-coach/internal/coach/scalars"
	"github.com/Alazca/official-coach/internal/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type flakyProgressMock struct {
	progress map[uuid.UUID]float64
	fail     map[uuid.UUID]error
}

func (m *flakyProgressMock) VectorProgress(_ context.Context, _ int, targetID uuid.UUID) (float64, error) {
	if err := m.fail[targetID]; err != nil {
		return 0, err
	}
	return m.progress[targetID], nil
}

func testHandlerRouter(t *testing.T) (*mux.Router, *Generator, time.Time) {
	t.Helper()

	generator, _, now := testGenerator(t, map[string]float64{
		scalars.DimCombinedStrength: 0.3,
	})
	handler := NewHandler(generator, metrics.NewTestManager())

	router := mux.NewRouter()
	router.HandleFunc("/goals/target/{targetID}", handler.HandleUpdate).Methods("PUT")
	router.HandleFunc("/goals/{userID}/archive", handler.HandleArchive).Methods("POST")
	return router, generator, now
}

func TestHandler_Update_rejectsUnknownStatus(t *testing.T) {
	router, generator, now := testHandlerRouter(t)

	target, err := generator.Initialize(context.Background(), InitializeParams{
		UserID:     1,
		GoalType:   GoalStrength,
		TargetDate: now.AddDate(0, 0, 60),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(
		"PUT", "/goals/target/"+target.ID.String(),
		strings.NewReader(`{"status":"snoozing"}`),
	)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	stored, err := generator.Get(context.Background(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, stored.Status)
}

func TestHandler_Archive_partialFailure(t *testing.T) {
	router, generator, now := testHandlerRouter(t)

	done, err := generator.Initialize(context.Background(), InitializeParams{
		UserID:     1,
		GoalType:   GoalStrength,
		TargetDate: now.AddDate(0, 0, 10),
	})
	require.NoError(t, err)
	stuck, err := generator.Initialize(context.Background(), InitializeParams{
		UserID:     1,
		GoalType:   GoalEndurance,
		TargetDate: now.AddDate(0, 0, 20),
	})
	require.NoError(t, err)

	// the clock moves past both target dates, one progress lookup breaks
	generator.now = func() time.Time { return now.AddDate(0, 0, 30) }
	generator.SetProgressReporter(&flakyProgressMock{
		progress: map[uuid.UUID]float64{done.ID: 85},
		fail:     map[uuid.UUID]error{stuck.ID: errors.New("progress store down")},
	})

	req := httptest.NewRequest("POST", "/goals/1/archive", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	// the goal that did archive is still reported
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"archived":1,"failed":1}`, rr.Body.String())

	stored, err := generator.Get(context.Background(), done.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Status)
}
