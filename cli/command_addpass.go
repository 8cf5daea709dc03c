package cli

import (
	"context"

	"github.com/pkg/errors"

	"github.com/tinyvault/tinyvault/vault"
	"github.com/tinyvault/tinyvault/vault/format"
)

type commandAddPass struct {
	extra   string
	user    string
	newPass string

	svc appServices
	out textOutput
}

func (c *commandAddPass) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("addpass", "Add a credential record to the vault.")
	cmd.Flag("extra", "Site or host the credential belongs to.").Required().StringVar(&c.extra)
	cmd.Flag("user", "User name.").Required().StringVar(&c.user)
	cmd.Flag("newpass", "Password to store.").Envar(svc.EnvName("TINYVAULT_NEWPASS")).StringVar(&c.newPass)
	cmd.Action(svc.baseActionWithContext(c.run))

	c.svc = svc
	c.out.setup(svc)
}

func (c *commandAddPass) secretToStore() (string, error) {
	if c.newPass != "" {
		return c.newPass, nil
	}

	if !c.svc.isTerminal() {
		return "", errors.Wrap(vault.ErrInvalidInput, "missing --newpass")
	}

	return askPass(c.svc.Stderr(), "Enter password to store: ")
}

func (c *commandAddPass) run(ctx context.Context) error {
	newPass, err := c.secretToStore()
	if err != nil {
		return err
	}

	st := c.svc.vaultStorage()

	e, err := c.svc.engineForVault(ctx, st)
	if err != nil {
		return err
	}

	pass, err := c.svc.getPassword(ctx, false)
	if err != nil {
		return err
	}

	var added *format.Record

	_, err = st.Update(ctx, func(v *format.Vault) (*format.Vault, error) {
		nv, err := e.AddPass(ctx, pass, v, c.extra, c.user, newPass)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		added = nv.Records[0]

		return nv, nil
	})

	if perr := c.svc.onPasswordUsed(ctx, err, pass); perr != nil && err == nil {
		log(ctx).Warnf("%v", perr)
	}

	if err != nil {
		return errors.Wrap(err, "unable to add record")
	}

	c.out.printStdout("Added record %v\n", added.PepperString())

	return nil
}
