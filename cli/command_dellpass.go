package cli

import (
	"context"

	"github.com/pkg/errors"

	"github.com/tinyvault/tinyvault/vault"
	"github.com/tinyvault/tinyvault/vault/format"
)

type commandDellPass struct {
	recordID string

	svc appServices
	out textOutput
}

func (c *commandDellPass) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("dellpass", "Delete the credential records with the given id. Does not require the vault password.")
	cmd.Flag("idpass", "Record id, as printed by viewpass.").Required().StringVar(&c.recordID)
	cmd.Action(svc.baseActionWithContext(c.run))

	c.svc = svc
	c.out.setup(svc)
}

func (c *commandDellPass) run(ctx context.Context) error {
	st := c.svc.vaultStorage()

	e, err := c.svc.engineForVault(ctx, st)
	if err != nil {
		return err
	}

	var removed int

	_, err = st.Update(ctx, func(v *format.Vault) (*format.Vault, error) {
		nv, n, err := e.DellPass(ctx, c.recordID, v)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		removed = n

		return nv, nil
	})
	if err != nil {
		return errors.Wrap(err, "unable to delete record")
	}

	if removed == 0 {
		c.out.printStderr("No record with id %v.\n", vault.NormalizeRecordID(c.recordID))
		return nil
	}

	c.out.printStdout("Deleted %v record(s) with id %v\n", removed, vault.NormalizeRecordID(c.recordID))

	return nil
}
