package cli

import (
	"context"
	"strconv"

	"github.com/alecthomas/kingpin/v2"
	"github.com/pkg/errors"

	"github.com/tinyvault/tinyvault/internal/config"
	"github.com/tinyvault/tinyvault/internal/crypto"
	"github.com/tinyvault/tinyvault/vault"
	"github.com/tinyvault/tinyvault/vault/encryption"
)

type commandGenerate struct {
	overwrite  bool
	iterations int
	keyBits    string
	mode       string
	hash       string

	svc appServices
	out textOutput
}

func (c *commandGenerate) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("generate", "Create a new empty vault.")
	cmd.Flag("overwrite", "Overwrite an existing vault file.").BoolVar(&c.overwrite)
	cmd.Flag("iterations", "Number of key derivation iterations.").Default(strconv.Itoa(vault.DefaultIterations)).Envar(svc.EnvName("TINYVAULT_ITERATIONS")).IntVar(&c.iterations)
	cmd.Flag("key-bits", "Size of the master key in bits.").Default(strconv.Itoa(vault.DefaultKeyBits)).Envar(svc.EnvName("TINYVAULT_KEY_BITS")).EnumVar(&c.keyBits, "128", "192", "256")
	cmd.Flag("mode", "Block cipher mode for the seed and record labels.").Default(vault.DefaultMode).Envar(svc.EnvName("TINYVAULT_MODE")).EnumVar(&c.mode, encryption.SupportedAlgorithms(true)...)
	cmd.Flag("hash", "Hash function used for key derivation.").Default(vault.DefaultHash).Envar(svc.EnvName("TINYVAULT_HASH")).EnumVar(&c.hash, crypto.SupportedHashes()...)
	cmd.Action(svc.baseActionWithContext(c.run))

	c.svc = svc
	c.out.setup(svc)
}

func (c *commandGenerate) run(ctx context.Context) error {
	st := c.svc.vaultStorage()

	if !c.overwrite {
		exists, err := st.Exists()
		if err != nil {
			return err //nolint:wrapcheck
		}

		if exists {
			return errors.Errorf("vault %v already exists, use --overwrite to replace it", st.Path())
		}
	}

	keyBits, err := strconv.Atoi(c.keyBits)
	if err != nil {
		return errors.Wrap(vault.ErrInvalidInput, "invalid key size")
	}

	e, err := c.svc.newEngine(vault.Options{
		Iterations: c.iterations,
		KeyBits:    keyBits,
		Mode:       c.mode,
		Hash:       c.hash,
	})
	if err != nil {
		return err
	}

	pass, err := c.svc.getPassword(ctx, true)
	if err != nil {
		return err
	}

	v, err := e.Generate(ctx, pass)
	if err != nil {
		return errors.Wrap(err, "unable to generate vault")
	}

	opts := e.Options()

	lc := &config.LocalConfig{
		VaultID:    v.IDString(),
		Iterations: opts.Iterations,
		KeyBits:    opts.KeyBits,
		Mode:       opts.Mode,
		Hash:       opts.Hash,
	}

	if err := st.Create(ctx, v, lc, c.overwrite); err != nil {
		return errors.Wrap(err, "unable to save vault")
	}

	if err := c.svc.onPasswordUsed(ctx, nil, pass); err != nil {
		log(ctx).Warnf("%v", err)
	}

	c.out.printStdout("Generated vault %v in %v\n", v.IDString(), st.Path())

	return nil
}
