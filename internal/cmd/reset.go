package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Iron-Ham/simfleet/internal/errors"
	"github.com/Iron-Ham/simfleet/internal/fleet"
	"github.com/Iron-Ham/simfleet/internal/report"
	"github.com/Iron-Ham/simfleet/internal/styles"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every simulator instance and recreate one per device type and runtime",
	Long: `Reset deletes EVERY simulator instance on this host, including ones
simfleet did not create, and then creates exactly one instance for each
device type and available runtime, named "<device type> (<runtime>)".

You are asked to confirm unless --force is given or reset.confirm is false.
Use --dry-run to see what would be deleted and created.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

var (
	resetForce  bool
	resetDryRun bool
)

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().BoolVarP(&resetForce, "force", "f", false, "skip confirmation prompt")
	resetCmd.Flags().BoolVar(&resetDryRun, "dry-run", false, "show the plan without changing anything")
}

func runReset(cmd *cobra.Command, args []string) error {
	env, err := newRunEnv(cmd, "reset")
	if err != nil {
		return err
	}
	defer env.close()

	resetter := fleet.NewResetter(env.client, env.categories, env.fleetOptions()...)

	if resetDryRun || (env.cfg.Reset.Confirm && !resetForce) {
		preview, err := resetter.Preview(cmd.Context())
		if err != nil {
			return err
		}
		if resetDryRun {
			return printResetPlan(env.out, env.format(), preview, env.renderer)
		}

		question := fmt.Sprintf("Delete all %d instances and create %d new ones?", len(preview.Doomed), len(preview.Plan))
		ok, err := confirm(cmd, question)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Reset cancelled.")
			env.logger.Info("reset cancelled by user")
			return nil
		}
	}

	res, err := resetter.Run(cmd.Context())
	if res == nil {
		env.logger.Error("reset aborted", "error", err.Error())
		return err
	}
	if rerr := env.render(res.Report); rerr != nil {
		return rerr
	}
	return err
}

type resetPlanEntry struct {
	Name    string `json:"name" yaml:"name"`
	UDID    string `json:"udid,omitempty" yaml:"udid,omitempty"`
	Runtime string `json:"runtime,omitempty" yaml:"runtime,omitempty"`
	Family  string `json:"family,omitempty" yaml:"family,omitempty"`
}

type resetPlan struct {
	Delete []resetPlanEntry `json:"delete" yaml:"delete"`
	Create []resetPlanEntry `json:"create" yaml:"create"`
}

func newResetPlan(res *fleet.ResetResult) resetPlan {
	plan := resetPlan{
		Delete: make([]resetPlanEntry, 0, len(res.Doomed)),
		Create: make([]resetPlanEntry, 0, len(res.Plan)),
	}
	for _, d := range res.Doomed {
		plan.Delete = append(plan.Delete, resetPlanEntry{Name: d.Name, UDID: d.UDID, Runtime: d.RuntimeKey})
	}
	for _, c := range res.Plan {
		plan.Create = append(plan.Create, resetPlanEntry{
			Name:    c.Name(),
			Runtime: c.Runtime.Identifier,
			Family:  string(c.Family),
		})
	}
	return plan
}

func printResetPlan(w io.Writer, format string, res *fleet.ResetResult, r styles.Renderer) error {
	plan := newResetPlan(res)

	switch format {
	case report.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	case report.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(plan); err != nil {
			return err
		}
		return enc.Close()
	case "", report.FormatText:
	default:
		return errors.NewValidationError("unknown output format").WithField("output").WithValue(format)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, r.Render(styles.Title, "RESET PLAN (DRY RUN)"))
	fmt.Fprintln(w, strings.Repeat("─", 50))

	fmt.Fprintf(w, "%s\n", r.Render(styles.Label, fmt.Sprintf("Delete (%d):", len(plan.Delete))))
	for _, e := range plan.Delete {
		fmt.Fprintf(w, "  %s %s\n", e.Name, r.Render(styles.Muted, "("+e.UDID+")"))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s\n", r.Render(styles.Label, fmt.Sprintf("Create (%d):", len(plan.Create))))
	for _, e := range plan.Create {
		fmt.Fprintf(w, "  %s %s\n", e.Name, r.Render(styles.Muted, "["+e.Family+"]"))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, r.Render(styles.Muted, "Nothing was changed."))
	return nil
}
