package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/tinyvault/tinyvault/internal/passwordpersist"
	"github.com/tinyvault/tinyvault/vault"
)

const maxPasswordPromptAttempts = 5

func (c *App) passwordPersistenceStrategy() passwordpersist.Strategy {
	if !c.persistCredentials {
		return passwordpersist.None()
	}

	if c.keyRingEnabled {
		return passwordpersist.Multiple{
			passwordpersist.Keyring(),
			passwordpersist.File(),
		}
	}

	return passwordpersist.File()
}

// isTerminal determines whether passwords can be prompted for interactively.
func (c *App) isTerminal() bool {
	if c.isInProcessTest {
		return false
	}

	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

func (c *App) getPassword(ctx context.Context, isCreate bool) (string, error) {
	switch {
	case c.password != "":
		// password provided via --password flag or TINYVAULT_PASSWORD environment variable
		return c.password, nil

	case !isCreate:
		// try fetching the password from persistent storage specific to the vault file.
		pass, err := c.passwordPersistenceStrategy().GetPassword(ctx, c.vaultFile)
		if err == nil {
			return pass, nil
		}

		if !errors.Is(err, passwordpersist.ErrPasswordNotFound) {
			return "", errors.Wrap(err, "error getting persistent password")
		}
	}

	if c.isInProcessTest && c.stdinReader != nil {
		return readPasswordLine(c.stdinReader)
	}

	if !c.isTerminal() {
		return "", errors.Wrapf(vault.ErrInvalidInput, "password is required, use --password or %v", c.EnvName("TINYVAULT_PASSWORD"))
	}

	if isCreate {
		return askForNewVaultPassword(c.stderrWriter)
	}

	return askForExistingVaultPassword(c.stderrWriter)
}

// onPasswordUsed persists the password after a successful operation and forgets it after the vault rejected it.
// Failures unrelated to the password leave any persisted password untouched.
func (c *App) onPasswordUsed(ctx context.Context, err error, password string) error {
	if err != nil && !errors.Is(err, vault.ErrInvalidPassword) {
		return err
	}

	return passwordpersist.OnSuccess(ctx, err, c.passwordPersistenceStrategy(), c.vaultFile, password) //nolint:wrapcheck
}

func askForNewVaultPassword(out io.Writer) (string, error) {
	for {
		p1, err := askPass(out, "Enter password to create new vault: ")
		if err != nil {
			return "", errors.Wrap(err, "password entry")
		}

		p2, err := askPass(out, "Re-enter password for verification: ")
		if err != nil {
			return "", errors.Wrap(err, "password verification")
		}

		if p1 != p2 {
			fmt.Fprintln(out, "Passwords don't match!") //nolint:errcheck
		} else {
			return p1, nil
		}
	}
}

func askForExistingVaultPassword(out io.Writer) (string, error) {
	return askPass(out, "Enter password to open vault: ")
}

// askPass presents a given prompt and asks the user for password.
func askPass(out io.Writer, prompt string) (string, error) {
	for range maxPasswordPromptAttempts {
		fmt.Fprint(out, prompt) //nolint:errcheck

		passBytes, err := term.ReadPassword(int(os.Stdin.Fd())) //nolint:gosec
		if err != nil {
			return "", errors.Wrap(err, "password prompt error")
		}

		fmt.Fprintln(out) //nolint:errcheck

		if len(passBytes) == 0 {
			continue
		}

		return string(passBytes), nil
	}

	return "", errors.New("can't get password")
}

// readPasswordLine reads a single line from a non-interactive reader.
func readPasswordLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", errors.Wrap(err, "unable to read password")
	}

	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.Wrap(vault.ErrInvalidInput, "empty password")
	}

	return line, nil
}
