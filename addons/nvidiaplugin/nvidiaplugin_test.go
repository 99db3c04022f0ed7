package nvidiaplugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eks-ops/eks-addon-installer/addon"
)

func TestProcedureShape(t *testing.T) {
	p := New()

	assert.Equal(t, "nvidia-device-plugin", p.ID)
	require.Len(t, p.Steps, 3)
	require.Len(t, p.Checks, 2)
	assert.True(t, p.Checks[1].WarnOnly, "allocatable GPUs are empty until GPU nodes join")
	require.NotNil(t, p.PostInstall)
}

func TestChartValuesDefault(t *testing.T) {
	vals, err := chartValues(&addon.Context{})
	require.NoError(t, err)

	op := vals["operator"].(map[string]interface{})
	assert.Equal(t, "containerd", op["defaultRuntime"])
	assert.NotContains(t, vals, "devicePlugin")
}

func TestChartValuesTimeSlicing(t *testing.T) {
	vals, err := chartValues(&addon.Context{EnableTimeSlicing: true})
	require.NoError(t, err)

	dp := vals["devicePlugin"].(map[string]interface{})
	cfg := dp["config"].(map[string]interface{})
	assert.Equal(t, "time-slicing-config", cfg["name"])
	assert.Equal(t, "any", cfg["default"])
}

func TestRecommendedGPUInstances(t *testing.T) {
	recs := RecommendedGPUInstances()
	require.NotEmpty(t, recs)

	families := make([]string, 0, len(recs))
	for _, r := range recs {
		require.NotEmpty(t, r.GPUs)
		require.NotEmpty(t, r.UseCase)
		families = append(families, r.Family)
	}
	assert.Equal(t, []string{"P3", "P4", "G4dn", "G5"}, families)
}
