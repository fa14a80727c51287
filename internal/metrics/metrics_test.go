package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAndHandler(t *testing.T) {
	m, err := New(func() int { return 3 })
	require.NoError(t, err)

	m.DraftSaved("plant", nil)
	m.DraftSaved("plant", errors.New("offline"))
	m.DraftSaved("plant", nil)
	m.RecordsCreated.WithLabelValues("vehicle").Add(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DraftSaves.WithLabelValues("plant", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DraftSaves.WithLabelValues("plant", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecordsCreated.WithLabelValues("vehicle")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "sitecheck_active_sessions 3")
	assert.Contains(t, string(body), `sitecheck_records_created_total{kind="vehicle"} 2`)
}
