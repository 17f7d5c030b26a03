package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"amdgpu-reset/internal/version"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "amdgpu-reset",
		Short:         "Remove out-of-distribution AMD GPU driver stacks and restore distro defaults",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewVersionCmd())

	cmd.SetVersionTemplate(fmt.Sprintf("%s (%s/%s)\n", version.Version, runtime.GOOS, runtime.GOARCH))
	cmd.Version = version.Version

	return cmd
}
