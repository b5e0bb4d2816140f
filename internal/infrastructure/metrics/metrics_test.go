package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, ResultSuccess, Outcome(nil))
	assert.Equal(t, ResultError, Outcome(errors.New("boom")))
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(RateLimited.WithLabelValues("sign"))
	RateLimited.WithLabelValues("sign").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(RateLimited.WithLabelValues("sign")))

	ObserveStage("watermark", time.Now().Add(-10*time.Millisecond))
	assert.Equal(t, 1, testutil.CollectAndCount(PdfProcessing))
}
