package cli

import (
	"context"

	"github.com/pkg/errors"

	"github.com/tinyvault/tinyvault/vault"
)

type commandInfo struct {
	svc appServices
	out textOutput
	jo  jsonOutput
}

// vaultInfo is the summary of a vault that can be produced without its password.
type vaultInfo struct {
	File       string   `json:"file"`
	ID         string   `json:"id"`
	Iterations int      `json:"iterations"`
	KeyBits    int      `json:"keyBits"`
	Mode       string   `json:"mode"`
	Hash       string   `json:"hash"`
	Records    int      `json:"records"`
	RecordIDs  []string `json:"recordIds"`
}

func (c *commandInfo) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("info", "Show vault parameters and record identifiers without decrypting anything.")
	cmd.Action(svc.baseActionWithContext(c.run))

	c.svc = svc
	c.out.setup(svc)
	c.jo.setup(svc, cmd)
}

func (c *commandInfo) run(ctx context.Context) error {
	st := c.svc.vaultStorage()

	e, err := c.svc.engineForVault(ctx, st)
	if err != nil {
		return err
	}

	v, err := st.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "unable to load vault")
	}

	opts := e.Options()

	vi := vaultInfo{
		File:       st.Path(),
		ID:         v.IDString(),
		Iterations: opts.Iterations,
		KeyBits:    opts.KeyBits,
		Mode:       opts.Mode,
		Hash:       opts.Hash,
		Records:    len(v.Records),
		RecordIDs:  []string{},
	}

	for _, r := range v.Records {
		vi.RecordIDs = append(vi.RecordIDs, r.PepperString())
	}

	if c.jo.jsonOutput {
		c.out.printStdout("%s\n", c.jo.jsonBytes(vi))
		return nil
	}

	c.out.printStdout("File:        %v\n", vi.File)
	c.out.printStdout("Vault ID:    %v\n", vi.ID)
	c.out.printStdout("Key:         PBKDF2-%v, %v iterations, %v bits\n", vi.Hash, vi.Iterations, vi.KeyBits)
	c.out.printStdout("Mode:        %v (user/extra), %v (pass)\n", vi.Mode, vault.PassMode)
	c.out.printStdout("Records:     %v\n", vi.Records)

	for _, id := range vi.RecordIDs {
		c.out.printStdout("  %v\n", id)
	}

	return nil
}
