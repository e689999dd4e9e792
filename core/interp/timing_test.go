package interp

import (
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatInterval(t *testing.T) {
	assert.Equal(t, "0.500ms", formatInterval(500*time.Microsecond))
	assert.Equal(t, "0.250s", formatInterval(250*time.Millisecond))
	assert.Equal(t, "2.50s", formatInterval(2500*time.Millisecond))
}

func TestTimeBuiltinReportsToStderr(t *testing.T) {
	color.NoColor = true
	f := newExecutorFixture(t)

	status, err := f.exec.Execute(simple("time", "say", "timed"))
	require.NoError(t, err)
	assert.Equal(t, 0, status)

	assert.Equal(t, "said: timed\n", f.stdout.String())
	assert.Contains(t, f.stderr.String(), "Timing Information")
	assert.Contains(t, f.stderr.String(), "Real:")
}

func TestTimeExternalReportsCPU(t *testing.T) {
	color.NoColor = true
	f := newExecutorFixture(t)

	status, err := f.exec.Execute(simple("time", "echo", "hi"))
	require.NoError(t, err)
	assert.Equal(t, 0, status)

	assert.Equal(t, "hi\n", f.stdout.String())
	assert.Contains(t, f.stderr.String(), "Real:")
}

func TestTimeMissingCommand(t *testing.T) {
	f := newExecutorFixture(t)

	status, err := f.exec.Execute(simple("time"))
	require.NoError(t, err)
	assert.Equal(t, 1, status)
	assert.Contains(t, f.stderr.String(), "time: missing command")
}

func TestTimePreservesFailureStatus(t *testing.T) {
	color.NoColor = true
	f := newExecutorFixture(t)

	status, err := f.exec.Execute(simple("time", "fail"))
	require.NoError(t, err)
	assert.Equal(t, 1, status)
}
