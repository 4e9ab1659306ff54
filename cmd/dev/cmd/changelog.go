package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

const defaultChangelog = "CHANGELOG.md"

func ChangelogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "changelog",
		Short: "Generate CHANGELOG.md from conventional commits",
		Long: `Generate the changelog with git-chglog.

Install it with:
  go install github.com/git-chglog/git-chglog/cmd/git-chglog@latest

Commit subjects follow <type>(<scope>): <description>, where scope is the
package touched, e.g. environment, accel, adapter, i2c, monitor or cli.

Examples:
  dev changelog
  dev changelog --next v0.3.0
  dev changelog --tag v0.2.0 --output CHANGES.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			next, _ := cmd.Flags().GetString("next")
			tag, _ := cmd.Flags().GetString("tag")

			if _, err := exec.LookPath("git-chglog"); err != nil {
				return fmt.Errorf("git-chglog not found in PATH: %w", err)
			}
			chglogArgs := changelogArgs(next, tag, output)
			slog.Info("running git-chglog", "args", chglogArgs)
			gitChglog := exec.CommandContext(cmd.Context(), "git-chglog", chglogArgs...)
			gitChglog.Stdout = os.Stdout
			gitChglog.Stderr = os.Stderr
			if err := gitChglog.Run(); err != nil {
				return fmt.Errorf("could not generate changelog: %w", err)
			}
			slog.Info("changelog generated", "output", chglogArgs[1])
			return nil
		},
	}
	cmd.Flags().String("next", "", "tag of the upcoming release (e.g. v0.3.0)")
	cmd.Flags().String("output", defaultChangelog, "output file")
	cmd.Flags().String("tag", "", "only generate the section of this tag")
	return cmd
}

// changelogArgs always starts with the output option.
func changelogArgs(next, tag, output string) []string {
	if output == "" {
		output = defaultChangelog
	}
	args := []string{"--output", output}
	if next != "" {
		args = append(args, "--next-tag", next)
	}
	if tag != "" {
		args = append(args, tag)
	}
	return args
}
