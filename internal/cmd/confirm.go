package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/Iron-Ham/simfleet/internal/errors"
	"github.com/spf13/cobra"
)

// confirm asks a y/N question on the command's input. It refuses to ask
// when stdin is not a terminal, so scripts must pass --force instead.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	if !stdinIsTerminal() {
		return false, fmt.Errorf("%w: stdin is not a terminal, use --force to skip confirmation", errors.ErrAborted)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n%s [y/N] ", question)
	reader := bufio.NewReader(cmd.InOrStdin())
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}
