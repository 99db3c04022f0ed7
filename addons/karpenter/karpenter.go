// Package karpenter installs the Karpenter node autoscaler. This is the most
// involved procedure: CloudFormation for the node role, IAM identity mapping
// into aws-auth, then the controller chart, and finally a generated node-pool
// manifest for the operator to review and apply.
// ref. https://karpenter.sh/docs/getting-started/
package karpenter

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/eks-ops/eks-addon-installer/addon"
	"github.com/eks-ops/eks-addon-installer/awscli"
	"github.com/eks-ops/eks-addon-installer/eksctl"
	"github.com/eks-ops/eks-addon-installer/helm"
	"github.com/eks-ops/eks-addon-installer/kubectl"
)

const (
	// ID identifies this add-on on the command line.
	ID = "karpenter"

	Namespace   = "karpenter"
	ReleaseName = "karpenter"

	chart = "oci://public.ecr.aws/karpenter/karpenter"

	crdURL = "https://raw.githubusercontent.com/aws/karpenter-provider-aws/v0.37.0/pkg/apis/crds/karpenter.sh_provisioners.yaml"

	stackNamePrefix = "Karpenter"
)

// cloudFormationTemplate provisions the node role and instance profile that
// Karpenter-launched instances assume. The stack name and role names embed
// the cluster name so multiple clusters can share an account.
const cloudFormationTemplate = `AWSTemplateFormatVersion: "2010-09-09"
Description: Resources used by Karpenter-provisioned nodes
Parameters:
  ClusterName:
    Type: String
    Description: EKS cluster name
Resources:
  KarpenterNodeRole:
    Type: AWS::IAM::Role
    Properties:
      RoleName:
        Fn::Sub: "KarpenterNodeRole-${ClusterName}"
      AssumeRolePolicyDocument:
        Version: "2012-10-17"
        Statement:
          - Effect: Allow
            Principal:
              Service: ec2.amazonaws.com
            Action: sts:AssumeRole
      ManagedPolicyArns:
        - Fn::Sub: "arn:${AWS::Partition}:iam::aws:policy/AmazonEKSWorkerNodePolicy"
        - Fn::Sub: "arn:${AWS::Partition}:iam::aws:policy/AmazonEKS_CNI_Policy"
        - Fn::Sub: "arn:${AWS::Partition}:iam::aws:policy/AmazonEC2ContainerRegistryReadOnly"
        - Fn::Sub: "arn:${AWS::Partition}:iam::aws:policy/AmazonSSMManagedInstanceCore"
  KarpenterNodeInstanceProfile:
    Type: AWS::IAM::InstanceProfile
    Properties:
      InstanceProfileName:
        Fn::Sub: "KarpenterNodeInstanceProfile-${ClusterName}"
      Roles:
        - Ref: KarpenterNodeRole
`

// New declares the installation procedure.
func New() *addon.Procedure {
	return &addon.Procedure{
		ID:          ID,
		DisplayName: "Karpenter",
		Steps: []addon.Step{
			awscli.AccountIDStep(),
			eksctl.AssociateOIDCProviderStep(),
			awscli.CloudFormationDeployStep(stackNamePrefix, cloudFormationTemplate),
			awscli.CreateServiceLinkedRoleStep("spot.amazonaws.com"),
			eksctl.CreateIAMIdentityMappingStep(
				nodeRoleARN,
				"system:node:{{EC2PrivateDNSName}}",
				[]string{"system:bootstrappers", "system:nodes"},
			),
			kubectl.ApplyStep("install karpenter CRDs", crdURL),
			awscli.ClusterEndpointStep(),
			helm.UpgradeInstallStep(helm.InstallOptions{
				Release:         ReleaseName,
				Chart:           chart,
				Namespace:       Namespace,
				CreateNamespace: true,
				Values:          chartValues,
			}),
		},
		Existence: kubectl.ResourceExistsProbe("deployment", ReleaseName, Namespace),
		Checks: []addon.Check{
			{Probe: kubectl.DeploymentReadyProbe(ReleaseName, Namespace)},
		},
		PostInstall: writeNodePoolManifest,
	}
}

func nodeRoleARN(pctx *addon.Context) (string, error) {
	acct, err := pctx.Value(addon.KeyAccountID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("arn:aws:iam::%s:role/KarpenterNodeRole-%s", acct, pctx.ClusterName), nil
}

func chartValues(pctx *addon.Context) (map[string]interface{}, error) {
	acct, err := pctx.Value(addon.KeyAccountID)
	if err != nil {
		return nil, err
	}
	endpoint, err := pctx.Value(addon.KeyClusterEndpoint)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"settings": map[string]interface{}{
			"clusterName":     pctx.ClusterName,
			"region":          pctx.Region,
			"clusterEndpoint": endpoint,
		},
		"serviceAccount": map[string]interface{}{
			"annotations": map[string]interface{}{
				"eks.amazonaws.com/role-arn": fmt.Sprintf("arn:aws:iam::%s:role/KarpenterControllerRole-%s", acct, pctx.ClusterName),
			},
		},
	}, nil
}

func writeNodePoolManifest(_ context.Context, env addon.Env, pctx *addon.Context) error {
	path, err := GenerateNodePoolManifest(pctx)
	if err != nil {
		return err
	}
	env.Logger.Info("wrote node-pool manifest; review and apply it to enable provisioning",
		zap.String("path", path),
	)
	return nil
}
