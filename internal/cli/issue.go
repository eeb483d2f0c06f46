package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"licensegate/internal/license"
	"licensegate/internal/validation"
)

// DefaultValidity is the license lifetime used when neither --expires nor
// --valid-for is given.
const DefaultValidity = 365 * 24 * time.Hour

type issueOptions struct {
	keyFile        string
	passphraseEnv  string
	payloadFile    string
	licenseID      string
	product        string
	hwid           string
	expires        string
	validFor       time.Duration
	maxActivations uint32
	out            string
	force          bool
}

func (c *CLI) issueCommand() *cobra.Command {
	var o issueOptions
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign a license with the issuer key",
		Long: `Sign a license with the issuer key.

With --payload the file is signed byte for byte as written. Otherwise the
payload is built from --id, --product, --hwid and the expiry flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runIssue(&o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.keyFile, "key", "k", "", "issuer private key file (OpenSSH format)")
	f.StringVar(&o.passphraseEnv, "passphrase-env", DefaultPassphraseEnv, "environment variable holding the key passphrase")
	f.StringVarP(&o.payloadFile, "payload", "p", "", "JSON payload file to sign as-is")
	f.StringVar(&o.licenseID, "id", "", "license id")
	f.StringVar(&o.product, "product", "", "product name")
	f.StringVar(&o.hwid, "hwid", "", "hardware identifier to bind the license to")
	f.StringVar(&o.expires, "expires", "", "expiry as an RFC 3339 timestamp")
	f.DurationVar(&o.validFor, "valid-for", DefaultValidity, "validity from now when --expires is not set")
	f.Uint32Var(&o.maxActivations, "max-activations", 0, "activation limit recorded in the payload (0 omits it)")
	f.StringVarP(&o.out, "out", "o", "", "write the license to a file instead of stdout")
	f.BoolVar(&o.force, "force", false, "overwrite an existing output file")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func (c *CLI) runIssue(o *issueOptions) error {
	files := c.files()
	keyPEM, err := files.ReadFile(o.keyFile, validation.MaxKeyFileSize)
	if err != nil {
		return fmt.Errorf("read signing key: %w", err)
	}
	if ok, _ := files.PrivateKeyPermissionsOK(o.keyFile); !ok {
		fmt.Fprintf(c.errOut, "warning: %s is readable by other users\n", o.keyFile)
	}
	priv, err := license.ParseSigningKey(keyPEM, c.passphrase(o.passphraseEnv))
	if err != nil {
		return err
	}
	pub, err := license.PublicKeyOf(priv)
	if err != nil {
		return err
	}
	fingerprint, err := pub.Fingerprint()
	if err != nil {
		return err
	}

	var payload []byte
	if o.payloadFile != "" {
		payload, err = files.ReadFile(o.payloadFile, validation.MaxPayloadFileSize)
		if err != nil {
			return fmt.Errorf("read payload: %w", err)
		}
	} else {
		p, err := c.buildPayload(o)
		if err != nil {
			return err
		}
		if payload, err = license.MarshalPayload(p); err != nil {
			return err
		}
	}

	// Only sign payloads the verifier can parse.
	parsed, err := license.ParsePayload(payload)
	if err != nil {
		return fmt.Errorf("payload would not verify: %w", err)
	}
	if parsed.BoundHwid == nil {
		fmt.Fprintln(c.errOut, "warning: payload has no boundHwid; the license will be rejected as unbound")
	}

	token, err := license.Sign(priv, payload)
	if err != nil {
		return err
	}

	if o.out != "" {
		if err := files.ValidateOutputDirectory(filepath.Dir(o.out), 0o755); err != nil {
			return err
		}
		if err := c.writeFile(o.out, []byte(token+"\n"), 0o644, o.force); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(c.out, token)
	}

	fmt.Fprintf(c.errOut, "issued %s for %q, expires %s (%s)\n",
		parsed.LicenseID, parsed.Product,
		parsed.ExpiresAt.Format(time.RFC3339),
		humanize.RelTime(parsed.ExpiresAt, c.clock.Now(), "ago", "from now"))
	fmt.Fprintf(c.errOut, "signed with key %s\n", fingerprint)
	return nil
}

func (c *CLI) buildPayload(o *issueOptions) (*license.Payload, error) {
	switch {
	case o.licenseID == "":
		return nil, errors.New("--id is required without --payload")
	case o.product == "":
		return nil, errors.New("--product is required without --payload")
	case o.hwid == "":
		return nil, errors.New("--hwid is required without --payload")
	}

	now := c.clock.Now().UTC().Truncate(time.Second)
	expiresAt := now.Add(o.validFor)
	if o.expires != "" {
		t, err := time.Parse(time.RFC3339, o.expires)
		if err != nil {
			return nil, fmt.Errorf("invalid --expires: %w", err)
		}
		expiresAt = t.UTC()
	}
	if !expiresAt.After(now) {
		return nil, fmt.Errorf("expiry %s is not in the future", expiresAt.Format(time.RFC3339))
	}

	hwid := o.hwid
	nonce := uuid.NewString()
	issuedAt := now.Format(time.RFC3339)
	p := &license.Payload{
		LicenseID: o.licenseID,
		Product:   o.product,
		ExpiresAt: expiresAt,
		BoundHwid: &hwid,
		Nonce:     &nonce,
		IssuedAt:  &issuedAt,
	}
	if o.maxActivations > 0 {
		n := o.maxActivations
		p.MaxActivations = &n
	}
	return p, nil
}
