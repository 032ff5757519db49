// Command simfleet provisions and pairs the simulator instances on a
// developer host. CLI handling lives in internal/cmd.
package main

import (
	"os"

	"github.com/Iron-Ham/simfleet/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
