package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestUploadMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewUpload(reg)

	m.ObserveBatch(OutcomeSuccess)
	m.ObserveBatch(OutcomeSuccess)
	m.ObserveBatch(OutcomeFailed)
	m.ObserveRejected(ReasonUnsupported, 2)
	m.ObserveRejected(ReasonDuplicateSeen, 0)
	m.ObserveSubmitted(3, 150*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BatchesTotal.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchesTotal.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RejectedTotal.WithLabelValues(ReasonUnsupported)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RejectedTotal.WithLabelValues(ReasonDuplicateSeen)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SubmittedTotal))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Duration))
}

func TestNilUploadIsNoop(t *testing.T) {
	var m *Upload
	assert.NotPanics(t, func() {
		m.ObserveBatch(OutcomeSkipped)
		m.ObserveRejected(ReasonDuplicateBatch, 1)
		m.ObserveSubmitted(1, time.Second)
	})
}
