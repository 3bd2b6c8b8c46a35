package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bamsammich/zcopy/internal/platform"
)

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Report whether copy_file_range is usable on this system",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			probe := platform.CopyFileRangeAvailability()
			fmt.Fprintf(os.Stdout, "%s: %s\n", platform.CopyFileRange, probe.Availability)
			if probe.Err != nil {
				fmt.Fprintf(os.Stdout, "  %v\n", probe.Err)
			}
			if !probe.Usable() {
				return &exitError{code: 1}
			}
			return nil
		},
	}
}
