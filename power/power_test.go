package power

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnergyConversions(t *testing.T) {
	e := Energy(2_500_000)

	assert.Equal(t, uint64(2_500_000), e.MicroJoules())
	assert.InDelta(t, 2.5, e.Joules(), 1e-9)
	assert.Equal(t, "2.500000J", e.String())
}

func TestDelta(t *testing.T) {
	pre := Reading{CumulativeEnergy: 100, Supported: true}
	post := Reading{CumulativeEnergy: 350, Supported: true}

	delta, ok := Delta(pre, post)
	assert.True(t, ok)
	assert.Equal(t, Energy(250), delta)
}

func TestDeltaUnsupported(t *testing.T) {
	supported := Reading{CumulativeEnergy: 100, Supported: true}
	unsupported := Reading{Supported: false}

	_, ok := Delta(unsupported, supported)
	assert.False(t, ok)

	_, ok = Delta(supported, unsupported)
	assert.False(t, ok)
}

func TestUnsupportedSampler(t *testing.T) {
	reading, err := Unsupported().Sample()

	require.NoError(t, err)
	assert.False(t, reading.Supported)
	assert.False(t, reading.Timestamp.IsZero())
}

// writeCounter creates a fake powercap counter file for the RAPL sampler.
func writeCounter(t *testing.T, path, value string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(value+"\n"), 0o644))
}

func TestRAPLSamplerMonotonic(t *testing.T) {
	dir := t.TempDir()
	energyPath := filepath.Join(dir, "energy_uj")
	rangePath := filepath.Join(dir, "max_energy_range_uj")

	writeCounter(t, energyPath, "1000")
	writeCounter(t, rangePath, "262143328850")

	sampler, err := newRAPLSampler(energyPath, rangePath)
	require.NoError(t, err)

	writeCounter(t, energyPath, "1500")
	first, err := sampler.Sample()
	require.NoError(t, err)
	assert.True(t, first.Supported)
	assert.Equal(t, Energy(500), first.CumulativeEnergy)

	writeCounter(t, energyPath, "4000")
	second, err := sampler.Sample()
	require.NoError(t, err)
	assert.Equal(t, Energy(3000), second.CumulativeEnergy)
	assert.GreaterOrEqual(t, second.CumulativeEnergy, first.CumulativeEnergy)
}

func TestRAPLSamplerWraparound(t *testing.T) {
	dir := t.TempDir()
	energyPath := filepath.Join(dir, "energy_uj")
	rangePath := filepath.Join(dir, "max_energy_range_uj")

	writeCounter(t, energyPath, "900")
	writeCounter(t, rangePath, "1000")

	sampler, err := newRAPLSampler(energyPath, rangePath)
	require.NoError(t, err)

	// Raw counter wrapped at 1000: 900 -> 50 means 150 consumed.
	writeCounter(t, energyPath, "50")
	reading, err := sampler.Sample()
	require.NoError(t, err)
	assert.Equal(t, Energy(150), reading.CumulativeEnergy)
}

func TestNewSamplerFallsBack(t *testing.T) {
	// newRAPLSampler must reject a missing counter so NewSampler can fall
	// back to the unsupported sampler on hosts without powercap.
	_, err := newRAPLSampler("/nonexistent/energy_uj", "/nonexistent/max_energy_range_uj")
	assert.Error(t, err)
}
