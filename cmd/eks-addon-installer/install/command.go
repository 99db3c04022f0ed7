// Package install implements "eks-addon-installer install" command.
package install

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eks-ops/eks-addon-installer/addonconfig"
	"github.com/eks-ops/eks-addon-installer/installer"
	"github.com/eks-ops/eks-addon-installer/pkg/logutil"
)

var (
	clusterName       string
	region            string
	accountID         string
	clusterEndpoint   string
	kubeconfigPath    string
	outputDir         string
	addonIDs          []string
	enableTimeSlicing bool
	commandTimeout    time.Duration
	logLevel          string
	logOutputs        []string
)

// NewCommand implements "eks-addon-installer install" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install add-ons onto an existing EKS cluster",
		Long:  "Installs the selected add-ons in the order given, skipping ones already installed.",
		RunE:  installFunc,
	}
	cmd.PersistentFlags().StringVar(&clusterName, "cluster-name", "", "EKS cluster name (required)")
	cmd.PersistentFlags().StringVar(&region, "region", "", "AWS region (defaults to AWS_REGION, then "+addonconfig.DefaultRegion+")")
	cmd.PersistentFlags().StringVar(&accountID, "account-id", "", "AWS account id (auto-detected when empty)")
	cmd.PersistentFlags().StringVar(&clusterEndpoint, "cluster-endpoint", "", "EKS cluster endpoint (auto-detected when empty)")
	cmd.PersistentFlags().StringVar(&kubeconfigPath, "kubeconfig", "", "kubeconfig path passed to kubectl")
	cmd.PersistentFlags().StringVar(&outputDir, "output-dir", "output", "directory for generated manifests")
	cmd.PersistentFlags().StringSliceVar(&addonIDs, "addons", nil, "comma-separated add-on ids to install; interactive menu when empty")
	cmd.PersistentFlags().BoolVar(&enableTimeSlicing, "enable-time-slicing", false, "enable GPU time slicing for the NVIDIA plugin")
	cmd.PersistentFlags().DurationVar(&commandTimeout, "command-timeout", 5*time.Minute, "timeout for each external command")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", logutil.DefaultLogLevel, "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringSliceVar(&logOutputs, "log-outputs", []string{"stderr"}, "log output paths")
	return cmd
}

func installFunc(cmd *cobra.Command, args []string) error {
	cfg := addonconfig.NewDefault()
	cfg.ClusterName = clusterName
	if region != "" {
		cfg.Region = region
	}
	cfg.AccountID = accountID
	cfg.ClusterEndpoint = clusterEndpoint
	cfg.KubeconfigPath = kubeconfigPath
	cfg.OutputDir = outputDir
	cfg.EnableTimeSlicing = enableTimeSlicing
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

	if len(addonIDs) > 0 {
		_, err := in.Run(ctx, addonIDs)
		return err
	}
	return runInteractive(ctx, lg, in)
}

// runInteractive drives a selection menu until the operator is done,
// running each chosen add-on immediately.
func runInteractive(ctx context.Context, lg *zap.Logger, in *installer.Installer) error {
	ids := in.ProcedureIDs()
	items := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		p, _ := in.Procedure(id)
		items = append(items, fmt.Sprintf("%s (%s)", p.DisplayName, id))
	}
	items = append(items, "Exit")

	for {
		sel := promptui.Select{
			Label: "Select add-on to install",
			Items: items,
			Size:  len(items),
		}
		idx, _, err := sel.Run()
		if err != nil {
			return err
		}
		if idx == len(items)-1 {
			lg.Info("exiting")
			return nil
		}

		if _, err := in.Run(ctx, []string{ids[idx]}); err != nil {
			return err
		}

		cont := promptui.Prompt{
			Label:     "Install more add-ons",
			IsConfirm: true,
		}
		if _, err := cont.Run(); err != nil {
			// Anything but an explicit "y" ends the session.
			lg.Info("eks-addon-installer finished")
			return nil
		}
	}
}
