package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

// RunCmd runs the monitor from sources; .env is picked up from the
// working directory by the cli itself.
func RunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the sensors monitor from sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return fmt.Errorf("could not get config flag: %w", err)
			}
			adapter, err := cmd.Flags().GetString("adapter")
			if err != nil {
				return fmt.Errorf("could not get adapter flag: %w", err)
			}
			runArgs := []string{"run", "./cmd/sensors", "--verbose", "monitor", "--config", configPath}
			if adapter != "" {
				runArgs = append(runArgs, "--adapter", adapter)
			}
			slog.Info("starting monitor", "args", runArgs)
			run := exec.CommandContext(cmd.Context(), "go", runArgs...)
			run.Stdout = os.Stdout
			run.Stderr = os.Stderr
			run.Stdin = os.Stdin
			if err := run.Run(); err != nil {
				return fmt.Errorf("monitor exited: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("config", "sensors.yaml", "configuration file")
	cmd.Flags().String("adapter", "", "bus adapter override")
	return cmd
}
