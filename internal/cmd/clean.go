package cmd

import (
	"fmt"
	"io"

	"github.com/Iron-Ham/simfleet/internal/errors"
	"github.com/Iron-Ham/simfleet/internal/fleet"
	"github.com/Iron-Ham/simfleet/internal/report"
	"github.com/Iron-Ham/simfleet/internal/simctl"
	"github.com/Iron-Ham/simfleet/internal/styles"
	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove instances left behind by earlier sweeps",
	Long: `Clean deletes every instance whose name starts with the test prefix
(pairing.test_prefix). Interrupted pairing sweeps leave such instances behind.

With --all every instance on the host is deleted, which asks for confirmation
unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

var (
	cleanAll    bool
	cleanDryRun bool
	cleanForce  bool
)

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().BoolVar(&cleanAll, "all", false, "delete every instance, not only test instances")
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "list the instances that would be deleted")
	cleanCmd.Flags().BoolVarP(&cleanForce, "force", "f", false, "skip confirmation prompt for --all")
}

func runClean(cmd *cobra.Command, args []string) error {
	env, err := newRunEnv(cmd, "clean")
	if err != nil {
		return err
	}
	defer env.close()

	inv, err := env.client.Snapshot(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "clean inventory")
	}

	pred := fleet.HasPrefix(env.cfg.Pairing.TestPrefix)
	scope := fmt.Sprintf("instances named %s*", env.cfg.Pairing.TestPrefix)
	if cleanAll {
		pred = fleet.Everything()
		scope = "instances"
	}

	cleaner := fleet.NewCleaner(env.client, env.fleetOptions()...)
	candidates := cleaner.Candidates(inv, pred)

	if cleanDryRun {
		printCandidates(env.out, scope, candidates, env.renderer)
		return nil
	}
	if len(candidates) == 0 {
		fmt.Fprintf(env.out, "No %s to remove.\n", scope)
		return nil
	}

	if cleanAll && !cleanForce {
		ok, err := confirm(cmd, fmt.Sprintf("Delete all %d %s?", len(candidates), scope))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Cleanup cancelled.")
			return nil
		}
	}

	rep := report.New("Instance cleanup", report.CleanCounters)
	env.progress.Phase("Removing " + scope)
	res := cleaner.Sweep(cmd.Context(), inv, pred)
	rep.Add(report.InstancesRemoved, res.Removed)
	rep.Add(report.DeletionFailures, res.Failed())
	rep.Finish()

	if err := env.render(rep); err != nil {
		return err
	}
	if err := cmd.Context().Err(); err != nil {
		return errors.NewCanceledError("cleanup", err)
	}
	return nil
}

func printCandidates(w io.Writer, scope string, devices []simctl.Device, r styles.Renderer) {
	if len(devices) == 0 {
		fmt.Fprintf(w, "No %s to remove.\n", scope)
		return
	}
	fmt.Fprintf(w, "Would delete %d %s:\n", len(devices), scope)
	for _, d := range devices {
		fmt.Fprintf(w, "  %s %s\n", d.Name, r.Render(styles.Muted, "("+d.UDID+")"))
	}
}
