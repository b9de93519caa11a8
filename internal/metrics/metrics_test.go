package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func scrape(t *testing.T) string {
	t.Helper()
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestRecordPoints(t *testing.T) {
	RecordPointsAwarded("test_award", 60)
	RecordPointsAwarded("test_award_zero", 0)

	body := scrape(t)
	assert.Contains(t, body, `gigsos_points_awarded_total{reason="test_award"} 60`)
	assert.NotContains(t, body, `reason="test_award_zero"`)
}

func TestRecordNotification(t *testing.T) {
	RecordNotification("test_ok", nil)
	RecordNotification("test_fail", errors.New("db down"))

	body := scrape(t)
	assert.Contains(t, body, `gigsos_notifications_sent_total{type="test_ok"} 1`)
	assert.Contains(t, body, `gigsos_notifications_failures_total{type="test_fail"} 1`)
}

func TestObserveHTTP_UnmatchedRoute(t *testing.T) {
	ObserveHTTP("GET", "", "404", 0.01)

	assert.Contains(t, scrape(t), `route="unmatched"`)
}
