package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/alecthomas/kingpin/v2"
)

type jsonOutput struct {
	jsonOutput bool
	jsonIndent bool

	out io.Writer
}

func (c *jsonOutput) setup(svc appServices, cmd *kingpin.CmdClause) {
	cmd.Flag("json", "Output result in JSON format to stdout").BoolVar(&c.jsonOutput)
	cmd.Flag("json-indent", "Output result in indented JSON format to stdout").Hidden().BoolVar(&c.jsonIndent)

	c.out = svc.stdout()
}

func (c *jsonOutput) jsonBytes(v any) []byte {
	return c.jsonIndentedBytes(v, "")
}

func (c *jsonOutput) jsonIndentedBytes(v any, indent string) []byte {
	var (
		b   []byte
		err error
	)

	if c.jsonIndent {
		b, err = json.MarshalIndent(v, indent+"", indent+"  ")
	} else {
		b, err = json.Marshal(v)
	}

	if err != nil {
		panic("error serializing JSON, that should not happen: " + err.Error())
	}

	return b
}

type jsonList struct {
	separator string
	o         *jsonOutput
}

func (l *jsonList) begin(o *jsonOutput) {
	l.o = o

	if o.jsonOutput {
		fmt.Fprint(l.o.out, "[") //nolint:errcheck

		if !o.jsonIndent {
			l.separator = "\n "
		}
	}
}

func (l *jsonList) end() {
	if l.o.jsonOutput {
		if !l.o.jsonIndent {
			fmt.Fprint(l.o.out, "\n") //nolint:errcheck
		}

		fmt.Fprintln(l.o.out, "]") //nolint:errcheck
	}
}

func (l *jsonList) emit(v any) {
	fmt.Fprintf(l.o.out, "%s%s", l.separator, l.o.jsonBytes(v)) //nolint:errcheck

	if l.o.jsonIndent {
		l.separator = ","
	} else {
		l.separator = ",\n "
	}
}

// textOutput prints human-readable output to stdout.
type textOutput struct {
	svc appServices
}

func (o *textOutput) setup(svc appServices) {
	o.svc = svc
}

func (o *textOutput) stdout() io.Writer {
	return o.svc.stdout()
}

func (o *textOutput) printStdout(msg string, args ...any) {
	fmt.Fprintf(o.stdout(), msg, args...) //nolint:errcheck
}

func (o *textOutput) printStderr(msg string, args ...any) {
	o.svc.printStderr(msg, args...)
}
