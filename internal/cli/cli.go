package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"licensegate/internal/config"
	"licensegate/internal/infrastructure"
	"licensegate/internal/license"
	"licensegate/internal/security"
	"licensegate/internal/validation"
	"licensegate/pkg/contracts"
)

// Exit codes returned by ExitCode.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitRejected = 2
)

// DefaultPassphraseEnv names the variable holding the signing key passphrase.
const DefaultPassphraseEnv = "LICENSEGATE_KEY_PASSPHRASE"

// CLI holds the dependencies shared by every licensectl command.
type CLI struct {
	fs       afero.Fs
	in       io.Reader
	out      io.Writer
	errOut   io.Writer
	clock    license.Clock
	hardware license.HardwareIdentityProvider
	cfg      *config.Config

	configPath string
	publicKey  string
	logLevel   string
}

// Option customizes a CLI.
type Option func(*CLI)

// WithFs replaces the OS filesystem.
func WithFs(fs afero.Fs) Option { return func(c *CLI) { c.fs = fs } }

// WithIO replaces stdin, stdout and stderr.
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(c *CLI) {
		c.in = in
		c.out = out
		c.errOut = errOut
	}
}

// WithClock replaces the system clock.
func WithClock(clock license.Clock) Option { return func(c *CLI) { c.clock = clock } }

// WithHardwareIdentity replaces the configured hardware identity source.
func WithHardwareIdentity(p license.HardwareIdentityProvider) Option {
	return func(c *CLI) { c.hardware = p }
}

// WithConfig skips configuration loading.
func WithConfig(cfg *config.Config) Option { return func(c *CLI) { c.cfg = cfg } }

// New creates a CLI bound to the process environment.
func New(opts ...Option) *CLI {
	c := &CLI{
		fs:     afero.NewOsFs(),
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
		clock:  license.SystemClock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Command builds the licensectl command tree.
func (c *CLI) Command() *cobra.Command {
	root := &cobra.Command{
		Use:           "licensectl",
		Short:         "Verify, inspect and issue offline licenses",
		Version:       contracts.GetFullVersionString(),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a licensegate.yaml file")
	root.PersistentFlags().StringVar(&c.publicKey, "public-key", "", "base64 ed25519 public key (overrides config)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "log level written to stderr")

	root.AddCommand(
		c.verifyCommand(),
		c.hwidCommand(),
		c.keygenCommand(),
		c.issueCommand(),
		c.inspectCommand(),
	)
	return root
}

// ExitCode maps a command error to a process exit code. Rejected licenses
// exit with ExitRejected so scripts can tell them from usage errors.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case license.KindOf(err) != 0 && license.KindOf(err) != license.KindKeyError:
		return ExitRejected
	default:
		return ExitFailure
	}
}

func (c *CLI) logger() *slog.Logger {
	return infrastructure.NewLogger(c.errOut, c.logLevel)
}

func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	var (
		cfg *config.Config
		err error
	)
	if c.configPath != "" {
		cfg, err = config.LoadFile(c.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *CLI) trustedKey() (license.PublicKey, error) {
	if c.publicKey != "" {
		return license.ParsePublicKey(c.publicKey)
	}
	cfg, err := c.config()
	if err != nil {
		return license.PublicKey{}, err
	}
	return license.ParsePublicKey(cfg.License.PublicKey)
}

func (c *CLI) hardwareIdentity(source string) (license.HardwareIdentityProvider, string, error) {
	if c.hardware != nil {
		return c.hardware, "custom", nil
	}
	cfg, err := c.config()
	if err != nil {
		return nil, "", err
	}
	hw := cfg.Hardware
	if source != "" {
		hw.Source = source
	}
	p, err := security.NewHardwareIdentityProvider(hw, c.logger())
	if err != nil {
		return nil, "", err
	}
	return p, hw.Source, nil
}

// readToken takes the license from --file, from stdin when the argument is
// "-", or from the argument itself. Surrounding whitespace is dropped.
func (c *CLI) readToken(args []string, file string) (string, error) {
	var raw string
	switch {
	case file != "":
		b, err := c.files().ReadFile(file, validation.MaxTokenFileSize)
		if err != nil {
			return "", fmt.Errorf("read license file: %w", err)
		}
		raw = string(b)
	case len(args) == 1 && args[0] == "-":
		b, err := io.ReadAll(c.in)
		if err != nil {
			return "", fmt.Errorf("read license from stdin: %w", err)
		}
		raw = string(b)
	case len(args) == 1:
		raw = args[0]
	default:
		return "", errors.New("a license argument or --file is required")
	}
	return strings.TrimSpace(raw), nil
}

func (c *CLI) files() *validation.FileValidator {
	return validation.NewFileValidator(c.fs, c.logger())
}

func (c *CLI) passphrase(env string) []byte {
	if env == "" {
		return nil
	}
	return []byte(os.Getenv(env))
}

func (c *CLI) writeFile(path string, data []byte, perm os.FileMode, force bool) error {
	if !force {
		exists, err := afero.Exists(c.fs, path)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	return afero.WriteFile(c.fs, path, data, perm)
}
