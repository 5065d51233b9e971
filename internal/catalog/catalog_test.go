package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KevinKickass/mtconnect-core/internal/observation"
)

func TestNaming(t *testing.T) {
	tests := []struct {
		typ     string
		element string
	}{
		{typ: "TEMPERATURE", element: "Temperature"},
		{typ: "PATH_FEEDRATE", element: "PathFeedrate"},
		{typ: "X_DIMENSION", element: "XDimension"},
		{typ: "PART_COUNT", element: "PartCount"},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			assert.Equal(t, tt.element, TypeToElement(tt.typ))
		})
	}

	assert.Equal(t, "VOLTAGE_DC", ElementToType("VoltageDC"))
	assert.Equal(t, "PH_VALUE", ElementToType("PHValue"))
	assert.Equal(t, "PATH_FEEDRATE", ElementToType("PathFeedrate"))
	assert.Equal(t, "SOME_FUTURE_TYPE", ElementToType("SomeFutureType"))
}

func TestDefault(t *testing.T) {
	c := Default()
	require.Greater(t, c.Len(), 100)

	temp, ok := c.Lookup("TEMPERATURE")
	require.True(t, ok)
	assert.Equal(t, observation.CategorySample, temp.Category)
	assert.Equal(t, "CELSIUS", temp.Units)

	assert.Equal(t, observation.CategoryEvent, c.CategoryOf("EXECUTION"))
	assert.Equal(t, observation.CategoryCondition, c.CategoryOf("SYSTEM"))
	assert.Equal(t, observation.CategoryUnset, c.CategoryOf("NOT_A_TYPE"))
	assert.Equal(t, -1, c.Index("NOT_A_TYPE"))
	assert.NotEmpty(t, c.CategoryDescription(observation.CategorySample))
}

func TestElementName(t *testing.T) {
	c := Default()

	assert.Equal(t, "Temperature", c.ElementName("TEMPERATURE", observation.RepresentationValue))
	assert.Equal(t, "VariableDataSet", c.ElementName("VARIABLE", observation.RepresentationDataSet))
	assert.Equal(t, "ToolOffsetTable", c.ElementName("TOOL_OFFSET", observation.RepresentationTable))
	assert.Equal(t, "VoltageDC", c.ElementName("VOLTAGE_DC", observation.RepresentationValue))
	assert.Equal(t, "SomethingNewTimeSeries", c.ElementName("SOMETHING_NEW", observation.RepresentationTimeSeries))
}

func TestResolve(t *testing.T) {
	c := Default()

	tests := []struct {
		element string
		typ     string
		rep     observation.Representation
		known   bool
	}{
		{element: "Temperature", typ: "TEMPERATURE", rep: observation.RepresentationValue, known: true},
		{element: "PositionTimeSeries", typ: "POSITION", rep: observation.RepresentationTimeSeries, known: true},
		{element: "VariableDataSet", typ: "VARIABLE", rep: observation.RepresentationDataSet, known: true},
		{element: "ToolOffsetTable", typ: "TOOL_OFFSET", rep: observation.RepresentationTable, known: true},
		{element: "VoltageDC", typ: "VOLTAGE_DC", rep: observation.RepresentationValue, known: true},
		{element: "FluxCapacitor", typ: "FLUX_CAPACITOR", rep: observation.RepresentationValue, known: false},
		{element: "FluxCapacitorDataSet", typ: "FLUX_CAPACITOR", rep: observation.RepresentationDataSet, known: false},
	}

	for _, tt := range tests {
		t.Run(tt.element, func(t *testing.T) {
			typ, rep, known := c.Resolve(tt.element)
			assert.Equal(t, tt.typ, typ)
			assert.Equal(t, tt.rep, rep)
			assert.Equal(t, tt.known, known)
		})
	}
}

func TestSubTypeDescription(t *testing.T) {
	c := Default()

	d, ok := c.SubTypeDescription("PATH_FEEDRATE", "ACTUAL")
	assert.True(t, ok)
	assert.NotEmpty(t, d)

	_, ok = c.SubTypeDescription("PATH_FEEDRATE", "NOPE")
	assert.False(t, ok)
}

func TestLoader_Extension(t *testing.T) {
	dir := t.TempDir()
	ext := []byte(`version: "2.3"
types:
  - type: FLUX_CAPACITOR
    category: SAMPLE
    units: GIGAWATT
  - type: TEMPERATURE
    category: SAMPLE
    units: KELVIN
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.yaml"), ext, 0o644))

	loader, err := NewLoader([]string{dir}, zap.NewNop())
	require.NoError(t, err)

	c, err := loader.Load()
	require.NoError(t, err)

	flux, ok := c.Lookup("FLUX_CAPACITOR")
	require.True(t, ok)
	assert.Equal(t, "GIGAWATT", flux.Units)
	assert.Equal(t, c.Len()-1, c.Index("FLUX_CAPACITOR"))

	temp, _ := c.Lookup("TEMPERATURE")
	assert.Equal(t, "KELVIN", temp.Units)
	assert.Equal(t, Default().Index("TEMPERATURE"), c.Index("TEMPERATURE"))
}

func TestLoader_RejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	bad := []byte(`version: "2.3"
types:
  - type: lower_case
    category: SOMETHING
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), bad, 0o644))

	loader, err := NewLoader([]string{dir}, zap.NewNop())
	require.NoError(t, err)

	_, err = loader.Load()
	assert.Error(t, err)
}
