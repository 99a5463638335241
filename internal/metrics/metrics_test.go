package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCountersMove(t *testing.T) {
	before := testutil.ToFloat64(sessionsStarted)
	RecordSessionStarted()
	require.Equal(t, before+1, testutil.ToFloat64(sessionsStarted))

	paid := testutil.ToFloat64(monthsSettled.WithLabelValues("true"))
	RecordMonthSettled(true)
	require.Equal(t, paid+1, testutil.ToFloat64(monthsSettled.WithLabelValues("true")))

	miss := testutil.ToFloat64(reportCacheLookups.WithLabelValues("miss"))
	RecordCacheLookup(false)
	require.Equal(t, miss+1, testutil.ToFloat64(reportCacheLookups.WithLabelValues("miss")))
}

func TestSettlementExportWatermark(t *testing.T) {
	ts := time.Unix(1710000000, 0)
	RecordSettlementExport(ts, nil)
	require.Equal(t, float64(ts.Unix()), testutil.ToFloat64(lastSettlementExport))

	failed := testutil.ToFloat64(settlementsExported.WithLabelValues("error"))
	RecordSettlementExport(time.Now(), errors.New("sheets down"))
	require.Equal(t, failed+1, testutil.ToFloat64(settlementsExported.WithLabelValues("error")))
	require.Equal(t, float64(ts.Unix()), testutil.ToFloat64(lastSettlementExport))
}
