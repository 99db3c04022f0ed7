// Package addonconfig defines the add-on installer configuration.
package addonconfig

import (
	"errors"
	"os"
	"time"

	"github.com/eks-ops/eks-addon-installer/addon"
	"github.com/eks-ops/eks-addon-installer/pkg/executil"
	"github.com/eks-ops/eks-addon-installer/pkg/logutil"
)

// DefaultRegion is used when neither the flag nor the environment provides
// an AWS region.
const DefaultRegion = "us-west-2"

// Config holds everything one installer run needs. All cluster and cloud
// interaction happens through the external binaries whose paths it carries.
type Config struct {
	// ClusterName is the target EKS cluster. Required.
	ClusterName string `json:"cluster-name"`
	// Region is the AWS region; defaults to AWS_REGION, AWS_DEFAULT_REGION,
	// then DefaultRegion.
	Region string `json:"region"`
	// AccountID is the AWS account id. Resolved through STS when empty.
	AccountID string `json:"account-id"`
	// ClusterEndpoint is the cluster API endpoint. Resolved through the EKS
	// API when empty (Karpenter needs it).
	ClusterEndpoint string `json:"cluster-endpoint"`

	// KubeconfigPath is passed to every kubectl invocation when set.
	KubeconfigPath string `json:"kubeconfig-path"`
	// OutputDir receives generated manifests and the run lock.
	OutputDir string `json:"output-dir"`

	// EnableTimeSlicing turns on GPU time slicing for the NVIDIA plugin.
	EnableTimeSlicing bool `json:"enable-time-slicing"`

	// CommandTimeout bounds each external command invocation.
	CommandTimeout time.Duration `json:"command-timeout"`

	KubectlPath string `json:"kubectl-path"`
	HelmPath    string `json:"helm-path"`
	EksctlPath  string `json:"eksctl-path"`
	AWSCLIPath  string `json:"aws-cli-path"`

	LogLevel   string   `json:"log-level"`
	LogOutputs []string `json:"log-outputs"`
}

// NewDefault returns a Config with default values.
func NewDefault() *Config {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = os.Getenv("AWS_DEFAULT_REGION")
	}
	if region == "" {
		region = DefaultRegion
	}
	return &Config{
		Region:         region,
		OutputDir:      "output",
		CommandTimeout: executil.DefaultTimeout,
		KubectlPath:    "kubectl",
		HelmPath:       "helm",
		EksctlPath:     "eksctl",
		AWSCLIPath:     "aws",
		LogLevel:       logutil.DefaultLogLevel,
		LogOutputs:     []string{"stderr"},
	}
}

// ValidateAndSetDefaults checks required fields and fills in anything left
// empty.
func (cfg *Config) ValidateAndSetDefaults() error {
	if cfg.ClusterName == "" {
		return errors.New("cluster name is required")
	}
	def := NewDefault()
	if cfg.Region == "" {
		cfg.Region = def.Region
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = def.OutputDir
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = def.CommandTimeout
	}
	if cfg.KubectlPath == "" {
		cfg.KubectlPath = def.KubectlPath
	}
	if cfg.HelmPath == "" {
		cfg.HelmPath = def.HelmPath
	}
	if cfg.EksctlPath == "" {
		cfg.EksctlPath = def.EksctlPath
	}
	if cfg.AWSCLIPath == "" {
		cfg.AWSCLIPath = def.AWSCLIPath
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if len(cfg.LogOutputs) == 0 {
		cfg.LogOutputs = def.LogOutputs
	}
	return nil
}

// NewContext builds the shared run context. Values supplied up front
// (account id, cluster endpoint) are fixed for the whole run; the rest are
// resolved lazily by the procedures that need them.
func (cfg *Config) NewContext() (*addon.Context, error) {
	pctx := &addon.Context{
		ClusterName:       cfg.ClusterName,
		Region:            cfg.Region,
		KubeconfigPath:    cfg.KubeconfigPath,
		OutputDir:         cfg.OutputDir,
		EnableTimeSlicing: cfg.EnableTimeSlicing,
		KubectlPath:       cfg.KubectlPath,
		HelmPath:          cfg.HelmPath,
		EksctlPath:        cfg.EksctlPath,
		AWSCLIPath:        cfg.AWSCLIPath,
	}
	if cfg.AccountID != "" {
		if err := pctx.Set(addon.KeyAccountID, cfg.AccountID); err != nil {
			return nil, err
		}
	}
	if cfg.ClusterEndpoint != "" {
		if err := pctx.Set(addon.KeyClusterEndpoint, cfg.ClusterEndpoint); err != nil {
			return nil, err
		}
	}
	return pctx, nil
}
