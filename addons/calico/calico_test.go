package calico

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eks-ops/eks-addon-installer/addon"
)

func TestProcedureShape(t *testing.T) {
	p := New()

	assert.Equal(t, "calico", p.ID)
	require.Len(t, p.Steps, 4)
	assert.Equal(t, "check aws-node daemonset present", p.Steps[0].Name,
		"the VPC CNI gate must run before anything is installed")
	assert.Empty(t, p.Steps[0].IgnorePatterns, "a missing VPC CNI is fatal")

	require.Len(t, p.Checks, 3)
	assert.True(t, p.Checks[2].WarnOnly, "the aws-node survival check is advisory")
}

func TestChartValuesPolicyOnlyMode(t *testing.T) {
	vals, err := chartValues(&addon.Context{ClusterName: "dev"})
	require.NoError(t, err)

	inst := vals["installation"].(map[string]interface{})
	assert.Equal(t, true, inst["enabled"])
	assert.Equal(t, "EKS", inst["kubernetesProvider"])
	cni := inst["cni"].(map[string]interface{})
	assert.Equal(t, "AmazonVPC", cni["type"], "pod networking stays on the VPC CNI")
}
