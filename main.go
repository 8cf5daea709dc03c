/*
Command-line tool for keeping encrypted credentials in a single vault file.

Usage:

	$ tinyvault [<flags>] <subcommand> [<args> ...]

Use 'tinyvault help' to see more details.
*/
package main

import (
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/tinyvault/tinyvault/cli"
	"github.com/tinyvault/tinyvault/internal/logfile"
)

// BuildVersion is set at link time.
var BuildVersion = "v0-unofficial"

func main() {
	app := cli.NewApp()
	kp := kingpin.New("tinyvault", "Tinyvault - single-file encrypted credential store")
	kp.Version(BuildVersion)

	logfile.Attach(app, kp)
	app.Attach(kp)

	kingpin.MustParse(kp.Parse(os.Args[1:]))
}
