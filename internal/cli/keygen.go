package cli

import (
	"crypto/rand"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"licensegate/internal/license"
)

func (c *CLI) keygenCommand() *cobra.Command {
	var (
		dir           string
		name          string
		passphraseEnv string
		force         bool
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an issuer key pair",
		Long: `Generate an ed25519 issuer key pair.

The private key is written as an OpenSSH key file, encrypted when the
variable named by --passphrase-env is set. The public key is written as
standard base64, the form expected by license.public_key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, priv, err := license.GenerateKeyPair(rand.Reader)
			if err != nil {
				return err
			}
			passphrase := c.passphrase(passphraseEnv)
			pemBytes, err := license.MarshalSigningKey(priv, passphrase)
			if err != nil {
				return err
			}

			// Derive the public half from the encoded key so both files
			// always describe the same pair.
			stored, err := license.ParseSigningKey(pemBytes, passphrase)
			if err != nil {
				return err
			}
			pub, err := license.PublicKeyOf(stored)
			if err != nil {
				return err
			}
			fingerprint, err := pub.Fingerprint()
			if err != nil {
				return err
			}

			if err := c.files().ValidateOutputDirectory(dir, 0o700); err != nil {
				return err
			}
			privPath := filepath.Join(dir, name+"_ed25519")
			pubPath := privPath + ".pub"

			if err := c.writeFile(privPath, pemBytes, 0o600, force); err != nil {
				return err
			}
			if err := c.writeFile(pubPath, []byte(pub.String()+"\n"), 0o644, force); err != nil {
				return err
			}

			fmt.Fprintf(c.errOut, "wrote %s and %s\n", privPath, pubPath)
			fmt.Fprintf(c.errOut, "key fingerprint is %s\n", fingerprint)
			fmt.Fprintln(c.out, pub.String())
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory to write the key files to")
	cmd.Flags().StringVarP(&name, "name", "n", "licensegate", "key file base name")
	cmd.Flags().StringVar(&passphraseEnv, "passphrase-env", DefaultPassphraseEnv, "environment variable holding the key passphrase")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing key files")
	return cmd
}
