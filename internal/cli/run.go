package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"amdgpu-reset/internal/classify"
	"amdgpu-reset/internal/inventory"
	"amdgpu-reset/internal/report"
	"amdgpu-reset/internal/reset"
	"amdgpu-reset/internal/syscmd"
)

func NewRunCmd() *cobra.Command {
	var userland bool
	var reboot bool
	var yes bool
	var dryRun bool
	var rulesFile string
	var logDir string
	var backupDir string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Remove the foreign GPU driver stack and restore the distro default",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := syscmd.NewExecRunner(nil)
			if err := reset.Preflight(runner, os.Geteuid()); err != nil {
				return err
			}

			rules, err := loadRules(rulesFile)
			if err != nil {
				return err
			}

			started := time.Now()
			base := "amdgpu-reset-" + started.Format("20060102-150405")
			logFile, logPath, err := report.OpenTranscript(logDir, base)
			if err != nil {
				return fmt.Errorf("open transcript: %w", err)
			}
			defer logFile.Close()

			log := io.MultiWriter(os.Stdout, logFile)
			runner.Log = log
			distro := reset.DistroID("/etc/os-release")
			reset.WarnUnsupportedOS(log, distro)

			scope := inventory.ScopeFull
			if userland {
				scope = inventory.ScopeUserland
			}

			ctx := context.Background()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			opts := reset.Options{
				Scope:      scope,
				Rules:      rules,
				Paths:      inventory.DefaultPaths(),
				Run:        runner,
				Log:        log,
				DistroID:   distro,
				LogDir:     logDir,
				BackupDir:  filepath.Join(backupDir, started.Format("20060102-150405")),
				ReportBase: base,
				DryRun:     dryRun,
			}
			if !yes && !dryRun {
				opts.Confirm = confirmPlan
			}

			res, err := reset.Run(ctx, opts)
			if err != nil {
				return err
			}

			fmt.Print(report.RenderOutcome(res.Report, res.ReportPath, logPath))

			if reboot && !res.Report.Aborted && !dryRun {
				fmt.Fprintln(log, "[done] rebooting as requested")
				if _, err := runner.Run(ctx, "systemctl", "reboot"); err != nil {
					fmt.Fprintf(log, "[done] reboot request failed: %v\n", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&userland, "userland", false, "Reset userland graphics/compute libraries only, leave the kernel stack alone")
	cmd.Flags().BoolVar(&reboot, "reboot", false, "Reboot the host after completion")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Plan and report only, change nothing")
	cmd.Flags().StringVar(&rulesFile, "rules", "", "YAML rule-set override file")
	cmd.Flags().StringVar(&logDir, "log-dir", "/var/log/amdgpu-reset", "Directory for transcript and report")
	cmd.Flags().StringVar(&backupDir, "backup-dir", "/var/backups/amdgpu-reset", "Directory for quarantined files")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Minute, "Overall run timeout")
	return cmd
}

func loadRules(path string) (*classify.RuleSet, error) {
	if path == "" {
		return classify.Default()
	}
	return classify.Load(path)
}

func confirmPlan(planSummary string, foreignCount int) (bool, error) {
	fmt.Print(planSummary)
	var proceed bool
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Remove %d foreign artifacts and restore the stock driver stack?", foreignCount)).
			Value(&proceed),
	)).Run()
	if err != nil {
		return false, err
	}
	return proceed, nil
}
