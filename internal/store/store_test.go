package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajmle/pidlab/internal/loop"
	"github.com/ajmle/pidlab/pidctrl"
)

func sampleResult() *loop.Result {
	return &loop.Result{
		Times:        []float64{0, 1, 2},
		Setpoints:    []float64{60, 60, 60},
		Measurements: []float64{20, 30, 45},
		Outputs:      []float64{100, 100, 80.5},
		Metrics:      map[string]float64{"control_effort": 93.5},
		Ticks:        3,
	}
}

func TestSaveAndLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	meta := RunMetadata{
		Plant:      "thermal",
		Period:     1.0,
		Duration:   3.0,
		Integrator: "rk4",
		Setpoint:   "constant",
		Controller: pidctrl.Config{Kp: 5, Ki: 0.5, UMin: 0, UMax: 100},
	}

	runID, err := st.Save(meta, sampleResult())
	require.NoError(t, err)
	assert.Contains(t, runID, "thermal_")

	loaded, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, runID, loaded.ID)
	assert.Equal(t, "thermal", loaded.Plant)
	assert.Equal(t, 5.0, loaded.Controller.Kp)
	assert.Equal(t, 93.5, loaded.Metrics["control_effort"])

	series, err := st.LoadSeries(runID)
	require.NoError(t, err)
	require.Len(t, series.Times, 3)
	assert.Equal(t, []float64{20, 30, 45}, series.Measurements)
	assert.Equal(t, []float64{100, 100, 80.5}, series.Outputs)
	assert.Equal(t, []float64{60, 60, 60}, series.Setpoints)
}

func TestList(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	_, err = st.Save(RunMetadata{Plant: "tank"}, sampleResult())
	require.NoError(t, err)

	runs, err = st.List()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "tank", runs[0].Plant)
}

func TestList_MissingDir(t *testing.T) {
	st := New("/nonexistent/pidlab-data")
	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestLoad_UnknownRun(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	_, err := st.Load("thermal_0")
	assert.Error(t, err)
}
