// Package albcontroller installs the AWS Load Balancer Controller.
// ref. https://docs.aws.amazon.com/eks/latest/userguide/aws-load-balancer-controller.html
package albcontroller

import (
	"fmt"

	"github.com/eks-ops/eks-addon-installer/addon"
	"github.com/eks-ops/eks-addon-installer/awscli"
	"github.com/eks-ops/eks-addon-installer/eksctl"
	"github.com/eks-ops/eks-addon-installer/helm"
	"github.com/eks-ops/eks-addon-installer/kubectl"
)

const (
	// ID identifies this add-on on the command line.
	ID = "aws-load-balancer-controller"

	Namespace   = "kube-system"
	ReleaseName = "aws-load-balancer-controller"

	repoName = "eks"
	repoURL  = "https://aws.github.io/eks-charts"
	chart    = "eks/aws-load-balancer-controller"

	policyName = "AWSLoadBalancerControllerIAMPolicy"
)

// iamPolicyDocument grants the controller the ELB/EC2 permissions it needs.
// Abbreviated from the upstream policy; extend from the controller release
// when new ELB features are enabled.
const iamPolicyDocument = `{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Effect": "Allow",
      "Action": [
        "iam:CreateServiceLinkedRole",
        "ec2:Describe*",
        "elasticloadbalancing:*",
        "acm:ListCertificates",
        "acm:DescribeCertificate",
        "wafv2:GetWebACL",
        "wafv2:AssociateWebACL",
        "wafv2:DisassociateWebACL",
        "shield:GetSubscriptionState",
        "cognito-idp:DescribeUserPoolClient",
        "tag:GetResources"
      ],
      "Resource": "*"
    }
  ]
}`

// New declares the installation procedure.
func New() *addon.Procedure {
	return &addon.Procedure{
		ID:          ID,
		DisplayName: "AWS Load Balancer Controller",
		Steps: []addon.Step{
			helm.RepoAddStep(repoName, repoURL),
			helm.RepoUpdateStep(),
			awscli.AccountIDStep(),
			eksctl.AssociateOIDCProviderStep(),
			awscli.CreatePolicyStep(policyName, iamPolicyDocument),
			eksctl.CreateIAMServiceAccountStep(Namespace, ReleaseName, controllerPolicyARN),
			awscli.VPCIDStep(),
			helm.UpgradeInstallStep(helm.InstallOptions{
				Release:   ReleaseName,
				Chart:     chart,
				Namespace: Namespace,
				Values:    chartValues,
			}),
		},
		Existence: kubectl.ResourceExistsProbe("deployment", ReleaseName, Namespace),
		Checks: []addon.Check{
			{Probe: kubectl.DeploymentReadyProbe(ReleaseName, Namespace)},
		},
	}
}

func controllerPolicyARN(pctx *addon.Context) (string, error) {
	acct, err := pctx.Value(addon.KeyAccountID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("arn:aws:iam::%s:policy/%s", acct, policyName), nil
}

func chartValues(pctx *addon.Context) (map[string]interface{}, error) {
	vpcID, err := pctx.Value(addon.KeyVPCID)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"clusterName": pctx.ClusterName,
		"region":      pctx.Region,
		"vpcId":       vpcID,
		"serviceAccount": map[string]interface{}{
			"create": false,
			"name":   ReleaseName,
		},
	}, nil
}
