package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"licensegate/internal/license"
)

func (c *CLI) inspectCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "inspect [license|-]",
		Short: "Decode a license without verifying it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := c.readToken(args, file)
			if err != nil {
				return err
			}
			decoded, err := license.DecodeToken(token)
			if err != nil {
				return err
			}
			return c.printInspection(decoded)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the license from a file")
	return cmd
}

func (c *CLI) printInspection(t *license.Token) error {
	fmt.Fprintln(c.out, "UNVERIFIED: the signature has not been checked. Do not trust these contents.")
	fmt.Fprintf(c.out, "Payload (%s):\n", humanize.Bytes(uint64(len(t.PayloadBytes))))

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, t.PayloadBytes, "  ", "  "); err != nil {
		fmt.Fprintf(c.out, "  %q\n", t.PayloadBytes)
	} else {
		fmt.Fprintf(c.out, "  %s\n", pretty.String())
	}
	fmt.Fprintf(c.out, "Signature: %d bytes\n", len(t.SignatureBytes))

	p, err := license.ParsePayload(t.PayloadBytes)
	if err != nil {
		fmt.Fprintf(c.out, "Payload does not parse: %v\n", err)
		return nil
	}
	fmt.Fprintf(c.out, "Expires: %s (%s)\n",
		p.ExpiresAt.Format(time.RFC3339),
		humanize.RelTime(p.ExpiresAt, c.clock.Now(), "ago", "from now"))
	if p.BoundHwid != nil {
		fmt.Fprintf(c.out, "Bound to: %s\n", *p.BoundHwid)
	} else {
		fmt.Fprintln(c.out, "Bound to: (none)")
	}
	return nil
}
