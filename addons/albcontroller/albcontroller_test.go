package albcontroller

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eks-ops/eks-addon-installer/addon"
	"github.com/eks-ops/eks-addon-installer/pkg/executil"
)

func TestProcedureShape(t *testing.T) {
	p := New()

	assert.Equal(t, "aws-load-balancer-controller", p.ID)
	require.Len(t, p.Steps, 8)

	names := make([]string, 0, len(p.Steps))
	for _, st := range p.Steps {
		names = append(names, st.Name)
	}
	assert.Equal(t, []string{
		"helm repo add eks",
		"helm repo update",
		"resolve aws account id",
		"eksctl associate-iam-oidc-provider",
		"aws iam create-policy AWSLoadBalancerControllerIAMPolicy",
		"eksctl create iamserviceaccount kube-system/aws-load-balancer-controller",
		"resolve cluster vpc id",
		"helm upgrade --install aws-load-balancer-controller",
	}, names)
}

func TestIAMPolicyDocumentIsValidJSON(t *testing.T) {
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(iamPolicyDocument), &doc))
	assert.Equal(t, "2012-10-17", doc["Version"])
}

func TestControllerPolicyARN(t *testing.T) {
	pctx := &addon.Context{}
	_, err := controllerPolicyARN(pctx)
	require.Error(t, err, "account id must be resolved first")

	require.NoError(t, pctx.Set(addon.KeyAccountID, "123456789012"))
	arn, err := controllerPolicyARN(pctx)
	require.NoError(t, err)
	assert.Equal(t, "arn:aws:iam::123456789012:policy/AWSLoadBalancerControllerIAMPolicy", arn)
}

func TestChartValuesNeedResolvedVPC(t *testing.T) {
	pctx := &addon.Context{ClusterName: "dev", Region: "us-west-2"}
	_, err := chartValues(pctx)
	require.Error(t, err)

	require.NoError(t, pctx.Set(addon.KeyVPCID, "vpc-0abc123"))
	vals, err := chartValues(pctx)
	require.NoError(t, err)
	assert.Equal(t, "dev", vals["clusterName"])
	assert.Equal(t, "vpc-0abc123", vals["vpcId"])
	sa := vals["serviceAccount"].(map[string]interface{})
	assert.Equal(t, false, sa["create"], "eksctl owns the service account")
	assert.Equal(t, "aws-load-balancer-controller", sa["name"])
}

// End to end over the declared steps: supplied account id skips the STS
// resolve, the VPC id resolved mid-run feeds the chart values.
func TestInstallSequenceResolvesValues(t *testing.T) {
	var helmInstallLine string
	runner := &runnerFunc{fn: func(ctx context.Context, cmd executil.Command) (executil.Result, error) {
		line := cmd.String()
		switch {
		case strings.Contains(line, "sts get-caller-identity"):
			t.Fatal("account id was supplied; STS must not be called")
		case strings.Contains(line, "describe-cluster"):
			return executil.Result{Stdout: "vpc-0abc123\n"}, nil
		case strings.Contains(line, "upgrade --install"):
			helmInstallLine = line
		}
		return executil.Result{ExitCode: 0}, nil
	}}

	pctx := &addon.Context{
		ClusterName: "dev",
		Region:      "us-west-2",
		HelmPath:    "helm",
		EksctlPath:  "eksctl",
		AWSCLIPath:  "aws",
		KubectlPath: "kubectl",
	}
	require.NoError(t, pctx.Set(addon.KeyAccountID, "123456789012"))

	seq := addon.NewSequencer(zap.NewExample(), runner)
	ok, outcomes := seq.Run(context.Background(), pctx, New().Steps)

	require.True(t, ok)
	assert.Len(t, outcomes, 8)
	assert.Contains(t, helmInstallLine, "--values")

	v, err := pctx.Value(addon.KeyVPCID)
	require.NoError(t, err)
	assert.Equal(t, "vpc-0abc123", v)
}

type runnerFunc struct {
	fn func(ctx context.Context, cmd executil.Command) (executil.Result, error)
}

func (r *runnerFunc) Run(ctx context.Context, cmd executil.Command) (executil.Result, error) {
	return r.fn(ctx, cmd)
}
