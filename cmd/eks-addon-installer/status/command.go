// Package status implements "eks-addon-installer status" command.
package status

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mitchellh/colorstring"
	"github.com/spf13/cobra"

	"github.com/eks-ops/eks-addon-installer/addonconfig"
	"github.com/eks-ops/eks-addon-installer/installer"
	"github.com/eks-ops/eks-addon-installer/pkg/logutil"
)

var (
	clusterName    string
	region         string
	kubeconfigPath string
	commandTimeout time.Duration
	logLevel       string
	logOutputs     []string
)

// NewCommand implements "eks-addon-installer status" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report installed state and readiness of every known add-on",
		RunE:  statusFunc,
	}
	cmd.PersistentFlags().StringVar(&clusterName, "cluster-name", "", "EKS cluster name (required)")
	cmd.PersistentFlags().StringVar(&region, "region", "", "AWS region (defaults to AWS_REGION, then "+addonconfig.DefaultRegion+")")
	cmd.PersistentFlags().StringVar(&kubeconfigPath, "kubeconfig", "", "kubeconfig path passed to kubectl")
	cmd.PersistentFlags().DurationVar(&commandTimeout, "command-timeout", 5*time.Minute, "timeout for each external command")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", logutil.DefaultLogLevel, "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringSliceVar(&logOutputs, "log-outputs", []string{"stderr"}, "log output paths")
	return cmd
}

func statusFunc(cmd *cobra.Command, args []string) error {
	cfg := addonconfig.NewDefault()
	cfg.ClusterName = clusterName
	if region != "" {
		cfg.Region = region
	}
	cfg.KubeconfigPath = kubeconfigPath
	cfg.CommandTimeout = commandTimeout
	cfg.LogLevel = logLevel
	cfg.LogOutputs = logOutputs
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return err
	}

	lg, err := logutil.New(cfg.LogLevel, cfg.LogOutputs)
	if err != nil {
		return err
	}
	defer lg.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	in := installer.New(cfg, lg)
	states, err := in.Status(ctx)
	if err != nil {
		return err
	}

	colorstring.Printf("\n[bold]Add-on status for cluster %q:\n", cfg.ClusterName)
	for _, st := range states {
		switch {
		case st.Installed && st.Ready:
			colorstring.Printf("  [green]%-32s installed, ready\n", st.AddonID)
		case st.Installed:
			colorstring.Printf("  [yellow]%-32s installed, not ready\n", st.AddonID)
		default:
			colorstring.Printf("  [dark_gray]%-32s not installed\n", st.AddonID)
		}
	}
	return nil
}
