package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	res string
	err error
}

func (s stubClient) GetCompletion(ctx context.Context, prompt string) (string, error) {
	return s.res, s.err
}

func TestInstrumentClient(t *testing.T) {
	m := New(prometheus.NewRegistry())

	ok := m.InstrumentClient(stubClient{res: "import bpy"})
	res, err := ok.GetCompletion(WithOperation(context.Background(), "generating material code"), "p")
	require.NoError(t, err)
	assert.Equal(t, "import bpy", res)

	failing := m.InstrumentClient(stubClient{err: errors.New("down")})
	_, err = failing.GetCompletion(context.Background(), "p")
	assert.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModelCallsTotal.WithLabelValues("generating material code", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModelCallsTotal.WithLabelValues("unknown", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.ModelCallDuration))
}
