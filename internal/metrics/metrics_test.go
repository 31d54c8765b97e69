package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordersBeforeInitAreNoOps(t *testing.T) {
	if RSVPDecisions != nil {
		t.Skip("metrics already initialized")
	}
	assert.NotPanics(t, func() {
		RecordRSVPDecision("ACCEPTED", "")
		RecordAudit(1, 1, nil)
		RecordPublish("rsvp.decided", nil)
	})
}

func TestRecorders(t *testing.T) {
	Init()
	Init()

	before := testutil.ToFloat64(RSVPDecisions.WithLabelValues("REJECTED", "EVENT_FULL"))
	RecordRSVPDecision("REJECTED", "EVENT_FULL")
	assert.Equal(t, before+1, testutil.ToFloat64(RSVPDecisions.WithLabelValues("REJECTED", "EVENT_FULL")))

	before = testutil.ToFloat64(AllocationDecisions.WithLabelValues("ALLOCATED", "PENDING"))
	RecordAllocationDecision("ALLOCATED", "PENDING")
	assert.Equal(t, before+1, testutil.ToFloat64(AllocationDecisions.WithLabelValues("ALLOCATED", "PENDING")))

	before = testutil.ToFloat64(ExpansionTruncated)
	RecordExpansion(5000, true)
	RecordExpansion(3, false)
	assert.Equal(t, before+1, testutil.ToFloat64(ExpansionTruncated))

	before = testutil.ToFloat64(DecisionsPublished.WithLabelValues("event.approved", "error"))
	RecordPublish("event.approved", errors.New("broker down"))
	assert.Equal(t, before+1, testutil.ToFloat64(DecisionsPublished.WithLabelValues("event.approved", "error")))

	RecordAudit(2, 3, nil)
	assert.Equal(t, 2.0, testutil.ToFloat64(OvercommittedEvents))
	assert.Equal(t, 3.0, testutil.ToFloat64(OvercommittedResources))
	assert.InDelta(t, float64(time.Now().Unix()), testutil.ToFloat64(AuditLastSuccess), 5)

	// A failed run leaves the gauges alone
	RecordAudit(0, 0, errors.New("db down"))
	assert.Equal(t, 2.0, testutil.ToFloat64(OvercommittedEvents))
}

func TestHTTPMiddleware(t *testing.T) {
	Init()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(HTTPMiddleware())
	router.GET("/api/v1/events/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/events/abc", nil))

	assert.Equal(t, 1, testutil.CollectAndCount(RequestDuration, "events_http_request_duration_seconds"))
}
