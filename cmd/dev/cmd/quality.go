package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

func TestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Run unit tests (no hardware needed)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := test.Test(); err != nil {
				return fmt.Errorf("unit tests failed: %w", err)
			}
			return nil
		},
	}
}

func LintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "Run linters",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := test.Lint(); err != nil {
				return fmt.Errorf("lint failed: %w", err)
			}
			return nil
		},
	}
}

// HardwareTestCmd runs the suite tagged "hardware" against sensors wired to
// an MCP2221 bridge.
func HardwareTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hardware-test",
		Short: "Run tests against a BME280 and an ADXL343 behind an MCP2221",
		RunE: func(cmd *cobra.Command, args []string) error {
			usbDevice, _ := cmd.Flags().GetInt("usb-device")
			goTest := exec.CommandContext(cmd.Context(), "go", hardwareTestArgs()...)
			goTest.Env = append(os.Environ(), envUSBDevice+"="+strconv.Itoa(usbDevice))
			goTest.Stdout = os.Stdout
			goTest.Stderr = os.Stderr
			slog.Info("running hardware tests", "args", goTest.Args, "usb_device", usbDevice)
			if err := goTest.Run(); err != nil {
				return fmt.Errorf("hardware tests failed: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().Int("usb-device", 0, "index of the mcp2221 bridge")
	return cmd
}

const envUSBDevice = "SENSORS_USB_DEVICE"

func hardwareTestArgs() []string {
	return []string{"test", "-tags", "hardware", "-count=1", "-run", "Hardware", "."}
}
