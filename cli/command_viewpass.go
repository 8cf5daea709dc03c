package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/tinyvault/tinyvault/vault"
)

type commandViewPass struct {
	svc  appServices
	out  textOutput
	jo   jsonOutput
	list jsonList
}

func (c *commandViewPass) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("viewpass", "Decrypt and print all credential records, most recent first.")
	cmd.Action(svc.baseActionWithContext(c.run))

	c.svc = svc
	c.out.setup(svc)
	c.jo.setup(svc, cmd)
}

func (c *commandViewPass) run(ctx context.Context) error {
	st := c.svc.vaultStorage()

	e, err := c.svc.engineForVault(ctx, st)
	if err != nil {
		return err
	}

	pass, err := c.svc.getPassword(ctx, false)
	if err != nil {
		return err
	}

	v, err := st.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "unable to load vault")
	}

	records, err := e.ViewPass(ctx, pass, v)

	if perr := c.svc.onPasswordUsed(ctx, err, pass); perr != nil && err == nil {
		log(ctx).Warnf("%v", perr)
	}

	if err != nil {
		return errors.Wrap(err, "unable to view records")
	}

	if c.jo.jsonOutput {
		c.list.begin(&c.jo)

		for _, r := range records {
			c.list.emit(r)
		}

		c.list.end()

		return nil
	}

	c.printRecords(records)

	return nil
}

func (c *commandViewPass) printRecords(records []vault.PlainRecord) {
	if len(records) == 0 {
		c.out.printStderr("No records.\n")
		return
	}

	w := tabwriter.NewWriter(c.out.stdout(), 0, 0, 2, ' ', 0) //nolint:mnd

	fmt.Fprintln(w, "ID\tEXTRA\tUSER\tPASS") //nolint:errcheck

	for _, r := range records {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\n", r.ID, r.Extra, r.User, r.Pass) //nolint:errcheck
	}

	w.Flush() //nolint:errcheck
}
