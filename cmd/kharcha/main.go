// Command kharcha keeps a personal ledger of expenses, income, transfers and
// group splits, and reports bank balances derived from it.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"kharcha/internal/cli"
)

func main() {
	cli.LoadEnvFile()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// register adds the kharcha commands grouped by topic.
func register(c *subcommands.Commander) {
	c.Register(&serveCmd{}, "server")

	c.Register(&addCmd{}, "entries")
	c.Register(&editCmd{}, "entries")
	c.Register(&rmCmd{}, "entries")
	c.Register(&settleCmd{}, "entries")
	c.Register(&receivedCmd{}, "entries")

	c.Register(&listCmd{}, "reports")
	c.Register(&summaryCmd{}, "reports")
	c.Register(&dailyCmd{}, "reports")
	c.Register(&balancesCmd{}, "reports")
	c.Register(&drillCmd{}, "reports")

	c.Register(&settingsCmd{}, "settings")
	c.Register(&userCmd{}, "settings")

	c.Register(&importCmd{}, "files")
	c.Register(&exportCmd{}, "files")
	c.Register(&backupCmd{}, "files")
}
