package karpenter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"

	"github.com/eks-ops/eks-addon-installer/addon"
)

func TestProcedureShape(t *testing.T) {
	p := New()

	assert.Equal(t, "karpenter", p.ID)
	require.Len(t, p.Steps, 8)
	require.NotNil(t, p.PostInstall, "karpenter must write the node-pool manifest")

	names := make([]string, 0, len(p.Steps))
	for _, st := range p.Steps {
		names = append(names, st.Name)
	}
	assert.Equal(t, []string{
		"resolve aws account id",
		"eksctl associate-iam-oidc-provider",
		"aws cloudformation deploy Karpenter",
		"aws iam create-service-linked-role spot.amazonaws.com",
		"eksctl create iamidentitymapping",
		"install karpenter CRDs",
		"resolve cluster endpoint",
		"helm upgrade --install karpenter",
	}, names)
}

func TestCloudFormationTemplateIsValidYAML(t *testing.T) {
	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(cloudFormationTemplate), &doc))

	resources := doc["Resources"].(map[string]interface{})
	assert.Contains(t, resources, "KarpenterNodeRole")
	assert.Contains(t, resources, "KarpenterNodeInstanceProfile")
}

func TestNodeRoleARN(t *testing.T) {
	pctx := &addon.Context{ClusterName: "dev"}
	_, err := nodeRoleARN(pctx)
	require.Error(t, err, "account id must be resolved first")

	require.NoError(t, pctx.Set(addon.KeyAccountID, "123456789012"))
	arn, err := nodeRoleARN(pctx)
	require.NoError(t, err)
	assert.Equal(t, "arn:aws:iam::123456789012:role/KarpenterNodeRole-dev", arn)
}

func TestChartValues(t *testing.T) {
	pctx := &addon.Context{ClusterName: "dev", Region: "us-west-2"}
	require.NoError(t, pctx.Set(addon.KeyAccountID, "123456789012"))

	_, err := chartValues(pctx)
	require.Error(t, err, "cluster endpoint must be resolved first")

	require.NoError(t, pctx.Set(addon.KeyClusterEndpoint, "https://ABCDEF.gr7.us-west-2.eks.amazonaws.com"))
	vals, err := chartValues(pctx)
	require.NoError(t, err)

	settings := vals["settings"].(map[string]interface{})
	assert.Equal(t, "dev", settings["clusterName"])
	assert.Equal(t, "https://ABCDEF.gr7.us-west-2.eks.amazonaws.com", settings["clusterEndpoint"])

	sa := vals["serviceAccount"].(map[string]interface{})
	ann := sa["annotations"].(map[string]interface{})
	assert.Equal(t, "arn:aws:iam::123456789012:role/KarpenterControllerRole-dev",
		ann["eks.amazonaws.com/role-arn"])
}
