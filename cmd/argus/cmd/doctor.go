package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vigilsec/argus/internal/core"
	"github.com/vigilsec/argus/internal/validate"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check capability and resource health",
	Long:  "Probe every pipeline capability and report whether the minimum viable stages could run.",
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cfg, loader, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	if file := loader.ConfigFile(); file != "" {
		cmd.Printf("Config: %s\n", file)
	} else {
		cmd.Println("Config: built-in defaults")
	}
	cmd.Println()

	validator := buildValidator(cfg, log)
	flags := validator.Snapshot(cmd.Context())

	cmd.Println("Checking capabilities...")
	cmd.Println()
	for _, id := range []core.CapabilityID{
		core.CapabilityDownloader,
		core.CapabilityTranscribe,
		core.CapabilityModel,
		core.CapabilityDelivery,
		core.CapabilityKnowledge,
	} {
		icon := "✓"
		if !flags.Healthy(id) {
			icon = "✗"
		}
		cmd.Printf("  %s %s\n", icon, id)
	}
	cmd.Println()

	host := &validate.HostChecker{}
	if free, ok := host.DiskFreeBytes(); ok {
		cmd.Printf("Disk free:     %s\n", formatBytes(free))
	}
	if avail, ok := host.MemAvailableBytes(); ok {
		cmd.Printf("Mem available: %s\n", formatBytes(avail))
	}
	cmd.Println()

	if err := validator.CheckMinimumViable(flags); err != nil {
		cmd.Println("✗ minimum viable stages cannot run")
		return err
	}
	cmd.Println("✓ minimum viable stages can run")
	return nil
}

func formatBytes(n uint64) string {
	const gib = 1 << 30
	const mib = 1 << 20
	if n >= gib {
		return fmt.Sprintf("%.1f GiB", float64(n)/gib)
	}
	return fmt.Sprintf("%.0f MiB", float64(n)/mib)
}
