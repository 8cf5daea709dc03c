package cli

import (
	"github.com/alecthomas/kingpin/v2"
)

func (c *App) setupOSSpecificKeychainFlags(svc appServices, app *kingpin.Application) {
	app.Flag("use-keychain", "Use macOS Keychain for storing vault password.").Default("true").Envar(svc.EnvName("TINYVAULT_USE_KEYRING")).BoolVar(&c.keyRingEnabled)
}
