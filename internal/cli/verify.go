package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"licensegate/internal/license"
	"licensegate/pkg/contracts/domain"
)

func (c *CLI) verifyCommand() *cobra.Command {
	var (
		file   string
		source string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "verify [license|-]",
		Short: "Verify a license against the trusted key and this device",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := c.readToken(args, file)
			if err != nil {
				return err
			}
			key, err := c.trustedKey()
			if err != nil {
				return err
			}
			hw, _, err := c.hardwareIdentity(source)
			if err != nil {
				return err
			}

			verifier := license.NewVerifier(key,
				license.WithClock(c.clock),
				license.WithHardwareIdentity(hw),
			)
			result, err := verifier.Verify(token)
			if err != nil {
				c.printRejection(err, asJSON)
				return err
			}
			return c.printVerification(result, asJSON)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the license from a file")
	cmd.Flags().StringVar(&source, "source", "", "hardware identity source (machine-id|fingerprint)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func (c *CLI) printVerification(result *license.Result, asJSON bool) error {
	now := c.clock.Now()
	if asJSON {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(domain.LicenseVerification{
			Valid:     true,
			LicenseID: result.LicenseID,
			Product:   result.Product,
			ExpiresAt: result.ExpiresAt,
			ExpiresIn: humanize.RelTime(result.ExpiresAt, now, "ago", "from now"),
		})
	}

	fmt.Fprintln(c.out, "License valid")
	fmt.Fprintf(c.out, "  License ID: %s\n", result.LicenseID)
	fmt.Fprintf(c.out, "  Product:    %s\n", result.Product)
	fmt.Fprintf(c.out, "  Expires:    %s (%s)\n",
		result.ExpiresAt.Format(time.RFC3339),
		humanize.RelTime(result.ExpiresAt, now, "ago", "from now"))
	return nil
}

func (c *CLI) printRejection(err error, asJSON bool) {
	kind := license.KindOf(err)
	if asJSON {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{
			"valid":      false,
			"error_code": kind.Code(),
			"kind":       kind.String(),
			"detail":     err.Error(),
		})
		return
	}
	fmt.Fprintf(c.errOut, "License rejected [%s]: %v\n", kind.Code(), err)
}
