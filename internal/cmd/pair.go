package cmd

import (
	"github.com/Iron-Ham/simfleet/internal/fleet"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var pairCmd = &cobra.Command{
	Use:   "pair",
	Short: "Find which wearable runtimes pair with which handset runtimes",
	Long: `Pair runs a compatibility sweep.

It creates one companion (wearable) instance per matching device type and
available runtime, then creates each matching handset in turn, tries to pair
it with every companion and deletes it again. Every instance it creates is
named with the test prefix and is removed before and after the sweep.

The report lists, for each handset runtime version, the wearable runtime
versions that paired successfully.`,
	Args: cobra.NoArgs,
	RunE: runPair,
}

func init() {
	rootCmd.AddCommand(pairCmd)

	pairCmd.Flags().String("prefix", "", "name prefix for test instances (default from pairing.test_prefix)")
	_ = viper.BindPFlag("pairing.test_prefix", pairCmd.Flags().Lookup("prefix"))
}

func runPair(cmd *cobra.Command, args []string) error {
	env, err := newRunEnv(cmd, "pair")
	if err != nil {
		return err
	}
	defer env.close()

	orch := fleet.NewOrchestrator(env.client, fleet.PairingConfig{
		TestPrefix: env.cfg.Pairing.TestPrefix,
		Categories: env.categories,
	}, env.fleetOptions()...)

	res, err := orch.Run(cmd.Context())
	if res == nil {
		env.logger.Error("pairing sweep aborted", "error", err.Error())
		return err
	}
	if rerr := env.render(res.Report); rerr != nil {
		return rerr
	}
	return err
}
