package addonconfig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eks-ops/eks-addon-installer/addon"
)

func TestClusterNameRequired(t *testing.T) {
	cfg := NewDefault()
	assert.Error(t, cfg.ValidateAndSetDefaults())

	cfg.ClusterName = "dev"
	assert.NoError(t, cfg.ValidateAndSetDefaults())
}

func TestRegionFromEnv(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-central-1")
	t.Setenv("AWS_DEFAULT_REGION", "")
	assert.Equal(t, "eu-central-1", NewDefault().Region)

	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "ap-southeast-2")
	assert.Equal(t, "ap-southeast-2", NewDefault().Region)

	t.Setenv("AWS_DEFAULT_REGION", "")
	assert.Equal(t, DefaultRegion, NewDefault().Region)
}

func TestValidateFillsDefaults(t *testing.T) {
	cfg := &Config{ClusterName: "dev"}
	require.NoError(t, cfg.ValidateAndSetDefaults())

	assert.Equal(t, "kubectl", cfg.KubectlPath)
	assert.Equal(t, "helm", cfg.HelmPath)
	assert.Equal(t, "eksctl", cfg.EksctlPath)
	assert.Equal(t, "aws", cfg.AWSCLIPath)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, 5*time.Minute, cfg.CommandTimeout)
	assert.NotEmpty(t, cfg.Region)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"stderr"}, cfg.LogOutputs)
}

func TestNewContextSeedsSuppliedValues(t *testing.T) {
	cfg := NewDefault()
	cfg.ClusterName = "dev"
	cfg.AccountID = "123456789012"
	cfg.ClusterEndpoint = "https://ABCDEF.gr7.us-west-2.eks.amazonaws.com"
	require.NoError(t, cfg.ValidateAndSetDefaults())

	pctx, err := cfg.NewContext()
	require.NoError(t, err)

	v, err := pctx.Value(addon.KeyAccountID)
	require.NoError(t, err)
	assert.Equal(t, "123456789012", v)

	v, err = pctx.Value(addon.KeyClusterEndpoint)
	require.NoError(t, err)
	assert.Equal(t, "https://ABCDEF.gr7.us-west-2.eks.amazonaws.com", v)

	_, resolved := pctx.Get(addon.KeyVPCID)
	assert.False(t, resolved, "vpc id is always resolved lazily")
}

func TestNewContextLeavesUnsuppliedValuesUnresolved(t *testing.T) {
	cfg := NewDefault()
	cfg.ClusterName = "dev"
	require.NoError(t, cfg.ValidateAndSetDefaults())

	pctx, err := cfg.NewContext()
	require.NoError(t, err)

	_, ok := pctx.Get(addon.KeyAccountID)
	assert.False(t, ok)
}
