// Command intake fills in the veterinary intake form from a terminal, against
// a running backend or the built-in demo scenarios.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jessevdk/go-flags"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "✗", err)
		os.Exit(1)
	}
}

// run parses args and executes the selected command.
func run(args []string, in io.Reader, out io.Writer) error {
	opts := &Options{}
	opts.Init(newConsole(in, out))

	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(out, flagsErr.Message)
			return nil
		}
		return err
	}
	return nil
}
