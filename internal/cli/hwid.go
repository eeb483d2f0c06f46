package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"licensegate/internal/config"
	"licensegate/internal/security"
)

func (c *CLI) hwidCommand() *cobra.Command {
	var (
		source     string
		components bool
	)
	cmd := &cobra.Command{
		Use:   "hwid",
		Short: "Print the hardware identifier licenses must be bound to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hw, used, err := c.hardwareIdentity(source)
			if err != nil {
				return err
			}
			id, err := hw.HardwareID()
			if err != nil {
				return fmt.Errorf("hardware identity unavailable: %w", err)
			}
			fmt.Fprintln(c.out, id)

			if components {
				if used != config.HardwareSourceFingerprint {
					fmt.Fprintf(c.errOut, "note: components describe the fingerprint source, active source is %s\n", used)
				}
				c.printComponents()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "hardware identity source (machine-id|fingerprint)")
	cmd.Flags().BoolVar(&components, "components", false, "also print the fingerprint inputs")
	return cmd
}

func (c *CLI) printComponents() {
	fm := security.NewFingerprintManager(0, c.logger())
	parts := fm.GetFingerprintComponents()

	keys := make([]string, 0, len(parts))
	for k := range parts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(c.out, "  %-12s %s\n", k+":", parts[k])
	}
}
