// Command flashmind is a terminal front end for the FlashMind API: log in,
// generate decks from notes and study them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/pflag"
)

const usage = `Usage: flashmind [flags] <command> [args]

Commands:
  register             create an account
  login                log in and remember the token
  logout               forget the token
  decks                list your decks
  create               generate a deck from text (--file or stdin)
  study <deck-id>      study a deck
  profile              show your totals
  delete <deck-id>     delete a deck
  import <file>        create a deck from a Q:/A: text file

Flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := newFlagSet()
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprint(stderr, usage)
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return 2
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(cfg, stdin, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	if err := a.dispatch(ctx, flags.Arg(0), flags.Args()[1:]); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		if errors.Is(err, errUnknownCommand) {
			flags.Usage()
			return 2
		}
		return 1
	}
	return 0
}
