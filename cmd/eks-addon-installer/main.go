// eks-addon-installer installs and validates optional add-ons on an
// existing EKS cluster.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eks-ops/eks-addon-installer/cmd/eks-addon-installer/install"
	"github.com/eks-ops/eks-addon-installer/cmd/eks-addon-installer/status"
	"github.com/eks-ops/eks-addon-installer/cmd/eks-addon-installer/version"
)

var rootCmd = &cobra.Command{
	Use:   "eks-addon-installer",
	Short: "EKS add-on installer CLI",
}

func init() {
	cobra.EnablePrefixMatching = true
}

func init() {
	rootCmd.AddCommand(
		install.NewCommand(),
		status.NewCommand(),
		version.NewCommand(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "eks-addon-installer failed %v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}
