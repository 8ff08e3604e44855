package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"kharcha/internal/core"
	"kharcha/internal/report"
)

type settingsCmd struct{}

func (*settingsCmd) Name() string     { return "settings" }
func (*settingsCmd) Synopsis() string { return "Show or change lists, mappings and balances." }
func (*settingsCmd) Usage() string {
	return `settings [<action> <args>...]:
  Without an action, print the current settings.

  Actions:
    add <list> <value>             Append to categories, upiApps, cards or banks.
    rm <list> <value>              Remove the first matching value.
    categories <a,b,c>             Replace the category list.
    instrument <method> <name>     Add a UPI app, card or bank for the method.
    map <method> <subType> [bank]  Map a payment instrument to a bank; no bank unmaps.
    balance <YYYY-MM> <bank> <n>   Set a bank's opening balance for the month.
    currency <symbol> [accent]     Change display customization.
    reset                          Restore default lists and customization.
`
}

func (*settingsCmd) SetFlags(*flag.FlagSet) {}

// settingsAction parses the positional arguments into a change to apply.
// A nil action with a nil error means show.
func settingsAction(args []string) (func(context.Context, *app) error, error) {
	if len(args) == 0 || args[0] == "show" {
		return nil, nil
	}
	action, rest := args[0], args[1:]
	need := func(n int) error {
		if len(rest) < n {
			return usageError("%s needs %d arguments", action, n)
		}
		return nil
	}

	switch action {
	case "add", "rm":
		if err := need(2); err != nil {
			return nil, err
		}
		list, value := core.ListName(rest[0]), strings.Join(rest[1:], " ")
		if !list.IsValid() {
			return nil, usageError("unknown list %q", rest[0])
		}
		if action == "add" {
			return func(ctx context.Context, a *app) error { return a.settings.Add(ctx, list, value) }, nil
		}
		return func(ctx context.Context, a *app) error { return a.settings.Remove(ctx, list, value) }, nil

	case "categories":
		if err := need(1); err != nil {
			return nil, err
		}
		categories := splitList(strings.Join(rest, ","))
		return func(ctx context.Context, a *app) error { return a.settings.SetCategories(ctx, categories) }, nil

	case "instrument":
		if err := need(2); err != nil {
			return nil, err
		}
		method, name := core.PayMethod(rest[0]), strings.Join(rest[1:], " ")
		if _, ok := core.InstrumentList(method); !ok {
			return nil, usageError("%s has no instruments", rest[0])
		}
		return func(ctx context.Context, a *app) error {
			_, err := a.repo.RegisterInstrument(ctx, method, name)
			return err
		}, nil

	case "map":
		if err := need(2); err != nil {
			return nil, err
		}
		method, subType := core.PayMethod(rest[0]), rest[1]
		var bank *string
		if len(rest) > 2 {
			b := strings.Join(rest[2:], " ")
			bank = &b
		}
		return func(ctx context.Context, a *app) error {
			return a.settings.SetMapping(ctx, method, subType, bank)
		}, nil

	case "balance":
		if err := need(3); err != nil {
			return nil, err
		}
		month, bank := rest[0], rest[1]
		amount, err := decimal.NewFromString(rest[2])
		if err != nil {
			return nil, usageError("balance amount %q: %v", rest[2], err)
		}
		return func(ctx context.Context, a *app) error {
			return a.settings.SetInitialBalance(ctx, month, bank, amount)
		}, nil

	case "currency":
		if err := need(1); err != nil {
			return nil, err
		}
		c := core.Customization{Currency: rest[0]}
		if len(rest) > 1 {
			c.Accent = rest[1]
		}
		return func(ctx context.Context, a *app) error { return a.settings.SetCustomization(ctx, c) }, nil

	case "reset":
		return func(ctx context.Context, a *app) error { return a.settings.Reset(ctx) }, nil
	}
	return nil, usageError("unknown settings action %q", action)
}

func (*settingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	change, err := settingsAction(f.Args())
	if err != nil {
		fmt.Fprintln(f.Output(), err)
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *app) error {
		if change != nil {
			if err := change(ctx, a); err != nil {
				return err
			}
		}
		view, err := a.settings.Get(ctx)
		if err != nil {
			return err
		}
		a.printMarkdown(report.Settings(view))
		return nil
	})
}
