// Package version implements "eks-addon-installer version" command.
package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eks-ops/eks-addon-installer/version"
)

// NewCommand implements "eks-addon-installer version" command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints out eks-addon-installer version",
		Run:   versionFunc,
	}
}

func versionFunc(cmd *cobra.Command, args []string) {
	fmt.Printf(`GitCommit: %s
ReleaseVersion: %s
BuildTime: %s
`,
		version.GitCommit,
		version.ReleaseVersion,
		version.BuildTime,
	)
}
