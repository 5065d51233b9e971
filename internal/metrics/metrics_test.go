package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveDocument("JSON", OpFormat, time.Millisecond, nil)
	m.ObserveDocument("JSON", OpFormat, time.Millisecond, nil)
	m.ObserveDocument("XML", OpParse, time.Millisecond, errors.New("bad"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.documents.WithLabelValues("JSON", OpFormat, OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.documents.WithLabelValues("XML", OpParse, OutcomeError)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.documents.WithLabelValues("XML", OpParse, OutcomeOK)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))

	m.AddObservations(3)
	m.AddObservations(2)
	assert.Equal(t, 5.0, testutil.ToFloat64(m.observations))

	m.SetCurrent(7)
	assert.Equal(t, 7.0, testutil.ToFloat64(m.current))

	m.SetClients(2)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.clients))
}

func TestNew_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
