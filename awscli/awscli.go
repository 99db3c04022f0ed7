// Package awscli builds aws CLI invocations. Cloud-provider state is only
// ever touched through the external binary.
package awscli

import (
	"fmt"
	"os"

	"github.com/eks-ops/eks-addon-installer/addon"
	"github.com/eks-ops/eks-addon-installer/pkg/executil"
	"github.com/eks-ops/eks-addon-installer/pkg/fileutil"
)

// AccountIDStep resolves the caller's AWS account id into the run context.
// Skipped when the id was already supplied.
func AccountIDStep() addon.Step {
	return addon.Step{
		Name:      "resolve aws account id",
		ExportKey: addon.KeyAccountID,
		Build: func(pctx *addon.Context) (executil.Command, func(), error) {
			args := []string{"sts", "get-caller-identity", "--query", "Account", "--output", "text"}
			return executil.Command{Path: pctx.AWSCLIPath, Args: args}, nil, nil
		},
	}
}

// VPCIDStep resolves the cluster's VPC id into the run context.
func VPCIDStep() addon.Step {
	return addon.Step{
		Name:      "resolve cluster vpc id",
		ExportKey: addon.KeyVPCID,
		Build: func(pctx *addon.Context) (executil.Command, func(), error) {
			args := []string{
				"eks", "describe-cluster",
				"--name", pctx.ClusterName,
				"--region", pctx.Region,
				"--query", "cluster.resourcesVpcConfig.vpcId",
				"--output", "text",
			}
			return executil.Command{Path: pctx.AWSCLIPath, Args: args}, nil, nil
		},
	}
}

// ClusterEndpointStep resolves the cluster API endpoint into the run
// context. Skipped when the endpoint was already supplied.
func ClusterEndpointStep() addon.Step {
	return addon.Step{
		Name:      "resolve cluster endpoint",
		ExportKey: addon.KeyClusterEndpoint,
		Build: func(pctx *addon.Context) (executil.Command, func(), error) {
			args := []string{
				"eks", "describe-cluster",
				"--name", pctx.ClusterName,
				"--region", pctx.Region,
				"--query", "cluster.endpoint",
				"--output", "text",
			}
			return executil.Command{Path: pctx.AWSCLIPath, Args: args}, nil, nil
		},
	}
}

// CreatePolicyStep creates an IAM policy from an embedded policy document.
// The document is written to a temp file for the CLI and removed after the
// command runs.
func CreatePolicyStep(policyName, document string) addon.Step {
	return addon.Step{
		Name: fmt.Sprintf("aws iam create-policy %s", policyName),
		Build: func(pctx *addon.Context) (executil.Command, func(), error) {
			path, err := fileutil.WriteTempFile("iam-policy", []byte(document))
			if err != nil {
				return executil.Command{}, nil, err
			}
			args := []string{
				"iam", "create-policy",
				"--policy-name", policyName,
				"--policy-document", "file://" + path,
			}
			return executil.Command{Path: pctx.AWSCLIPath, Args: args}, func() { os.Remove(path) }, nil
		},
		IgnorePatterns: []string{"EntityAlreadyExists"},
	}
}

// CreateServiceLinkedRoleStep creates a service-linked role for an AWS
// service (e.g. EC2 spot).
func CreateServiceLinkedRoleStep(serviceName string) addon.Step {
	return addon.Step{
		Name: fmt.Sprintf("aws iam create-service-linked-role %s", serviceName),
		Build: func(pctx *addon.Context) (executil.Command, func(), error) {
			args := []string{"iam", "create-service-linked-role", "--aws-service-name", serviceName}
			return executil.Command{Path: pctx.AWSCLIPath, Args: args}, nil, nil
		},
		IgnorePatterns: []string{"has been taken"},
	}
}

// CloudFormationDeployStep deploys an embedded CloudFormation template. The
// stack name is derived from the cluster name at build time; "deploy" is
// idempotent for existing stacks except for its no-op exit, which is
// classified as already satisfied.
func CloudFormationDeployStep(stackNamePrefix, template string) addon.Step {
	return addon.Step{
		Name: fmt.Sprintf("aws cloudformation deploy %s", stackNamePrefix),
		Build: func(pctx *addon.Context) (executil.Command, func(), error) {
			path, err := fileutil.WriteTempFile("cfn-template", []byte(template))
			if err != nil {
				return executil.Command{}, nil, err
			}
			args := []string{
				"cloudformation", "deploy",
				"--stack-name", fmt.Sprintf("%s-%s", stackNamePrefix, pctx.ClusterName),
				"--template-file", path,
				"--capabilities", "CAPABILITY_NAMED_IAM",
				"--parameter-overrides", "ClusterName=" + pctx.ClusterName,
				"--region", pctx.Region,
			}
			return executil.Command{Path: pctx.AWSCLIPath, Args: args}, func() { os.Remove(path) }, nil
		},
		IgnorePatterns: []string{"No changes to deploy"},
	}
}
