package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordRequest("premint-api", "next_uid", 10*time.Millisecond, nil)
	m.RecordRequest("premint-api", "next_uid", 10*time.Millisecond, errors.New("boom"))
	m.RecordRetry("premint-api", "next_uid")
	m.RecordChainRead("mintFee", nil)
	m.RecordMintFeeFallback()

	keys, values, err := Summarize(reg)
	require.NoError(t, err)
	require.NotEmpty(t, keys)

	assert.Equal(t, 1.0, values["premint_http_client_requests_total{client=premint-api,op=next_uid,outcome=ok}"])
	assert.Equal(t, 1.0, values["premint_http_client_requests_total{client=premint-api,op=next_uid,outcome=error}"])
	assert.Equal(t, 2.0, values["premint_http_client_request_duration_seconds{client=premint-api,op=next_uid}"])
	assert.Equal(t, 1.0, values["premint_http_client_retries_total{client=premint-api,op=next_uid}"])
	assert.Equal(t, 1.0, values["premint_chain_reads_total{method=mintFee,outcome=ok}"])
	assert.Equal(t, 1.0, values["premint_chain_mint_fee_fallbacks_total"])
	assert.IsIncreasing(t, keys)
}

func TestNoopMetricsAreIndependent(t *testing.T) {
	require.NotPanics(t, func() {
		NewNoop().RecordRetry("a", "b")
		NewNoop().RecordRetry("a", "b")
	})
}
