package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/google/subcommands"

	"kharcha/internal/core"
	"kharcha/internal/ledger"
)

// draftFlags are the entry fields shared by add and edit.
type draftFlags struct {
	date         string
	typ          string
	description  string
	category     string
	note         string
	payMethod    string
	paySubType   string
	amount       string
	from         string
	to           string
	participants string
	splitMode    string
	splitAmounts string
}

func (d *draftFlags) register(f *flag.FlagSet) {
	f.StringVar(&d.date, "date", "", "Day of the entry (YYYY-MM-DD).")
	f.StringVar(&d.typ, "type", string(core.Expense), "Expense, Income or Transfer.")
	f.StringVar(&d.description, "desc", "", "Description (required).")
	f.StringVar(&d.category, "category", "", "Category.")
	f.StringVar(&d.note, "note", "", "Free text note.")
	f.StringVar(&d.payMethod, "pay", string(core.Cash), "Payment method: Cash, UPI, Card, Bank or \"Self transfer\".")
	f.StringVar(&d.paySubType, "sub", "", "UPI app, card or bank used.")
	f.StringVar(&d.amount, "amount", "", "Amount; the full bill for a split.")
	f.StringVar(&d.from, "from", "", "Source bank of a transfer.")
	f.StringVar(&d.to, "to", "", "Destination bank of a transfer.")
	f.StringVar(&d.participants, "split", "", "Comma separated participants other than you.")
	f.StringVar(&d.splitMode, "split-mode", string(core.SplitEqual), "equal or custom.")
	f.StringVar(&d.splitAmounts, "split-amounts", "", "Comma separated participant amounts for a custom split.")
}

// draft validates the flag values that need parsing. Business rules are
// left to the ledger.
func (d *draftFlags) draft() (ledger.Draft, error) {
	amount, err := core.ParsePositiveAmount(d.amount)
	if err != nil {
		return ledger.Draft{}, usageError("-amount: %v", err)
	}
	out := ledger.Draft{
		Type:        core.EntryType(d.typ),
		Description: d.description,
		Category:    d.category,
		Note:        d.note,
		PayMethod:   core.PayMethod(d.payMethod),
		PaySubType:  d.paySubType,
		Amount:      amount,
		Transfer:    core.TransferRoute{From: d.from, To: d.to},
	}

	names := splitList(d.participants)
	if len(names) == 0 {
		return out, nil
	}
	split := &ledger.SplitDraft{Mode: core.SplitMode(d.splitMode), Participants: names}
	if split.Mode == core.SplitCustom {
		for _, s := range splitList(d.splitAmounts) {
			a, err := core.ParseAmount(s)
			if err != nil {
				return ledger.Draft{}, usageError("-split-amounts: %v", err)
			}
			split.Amounts = append(split.Amounts, a)
		}
	}
	out.Split = split
	return out, nil
}

// entryRef reads the <day> <id> positional arguments.
func entryRef(f *flag.FlagSet) (core.Day, core.EntryID, error) {
	if f.NArg() < 2 {
		return "", "", usageError("expected <day> <id>")
	}
	day, err := core.ParseDay(f.Arg(0))
	if err != nil {
		return "", "", usageError("%s: %v", f.Arg(0), err)
	}
	return day, core.EntryID(f.Arg(1)), nil
}

type addCmd struct {
	draftFlags
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "Record an expense, income or transfer." }
func (*addCmd) Usage() string {
	return `add -desc <text> -amount <n> [flags]:
  Record a new entry. The date defaults to today.

  Examples:
    add -desc Groceries -amount 420 -category Food -pay UPI -sub GPay
    add -type Income -desc Salary -amount 50000 -pay Bank -sub HDFC
    add -type Transfer -desc Savings -amount 1000 -from HDFC -to SBI
    add -desc Dinner -amount 900 -split Ravi,Meera
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	d, err := c.draft()
	if err != nil {
		fmt.Fprintln(f.Output(), err)
		return subcommands.ExitUsageError
	}
	day := core.Today()
	if c.date != "" {
		if day, err = core.ParseDay(c.date); err != nil {
			fmt.Fprintln(f.Output(), "-date:", err)
			return subcommands.ExitUsageError
		}
	}
	return run(ctx, func(ctx context.Context, a *app) error {
		e, err := a.repo.Add(ctx, day, d)
		if err != nil {
			return err
		}
		fmt.Printf("Added %s %s on %s: %s\n", e.Type, e.ID, day, a.formatter(ctx).Format(e.Amount))
		return nil
	})
}

type editCmd struct {
	draftFlags
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "Replace an entry's fields." }
func (*editCmd) Usage() string {
	return `edit [flags] <day> <id>:
  Replace every field of the entry. -date moves it to another day; received
  flags of participants kept by name are carried over.
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	day, id, err := entryRef(f)
	if err != nil {
		fmt.Fprintln(f.Output(), err)
		return subcommands.ExitUsageError
	}
	d, err := c.draft()
	if err != nil {
		fmt.Fprintln(f.Output(), err)
		return subcommands.ExitUsageError
	}
	newDay := day
	if c.date != "" {
		if newDay, err = core.ParseDay(c.date); err != nil {
			fmt.Fprintln(f.Output(), "-date:", err)
			return subcommands.ExitUsageError
		}
	}
	return run(ctx, func(ctx context.Context, a *app) error {
		e, err := a.repo.Update(ctx, day, newDay, id, d)
		if err != nil {
			return err
		}
		fmt.Printf("Updated %s on %s\n", e.ID, newDay)
		return nil
	})
}

type rmCmd struct{}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "Delete an entry." }
func (*rmCmd) Usage() string {
	return `rm <day> <id>:
  Delete the entry. Deleting a missing entry is not an error.
`
}

func (*rmCmd) SetFlags(*flag.FlagSet) {}

func (*rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	day, id, err := entryRef(f)
	if err != nil {
		fmt.Fprintln(f.Output(), err)
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *app) error {
		return a.repo.Remove(ctx, day, id)
	})
}

type settleCmd struct {
	undo bool
}

func (*settleCmd) Name() string     { return "settle" }
func (*settleCmd) Synopsis() string { return "Mark every participant of a split as paid back." }
func (*settleCmd) Usage() string {
	return `settle [-undo] <day> <id>:
  Mark all participants of the split as received, or not received with -undo.
`
}

func (c *settleCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.undo, "undo", false, "Mark everyone as not received.")
}

func (c *settleCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	day, id, err := entryRef(f)
	if err != nil {
		fmt.Fprintln(f.Output(), err)
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *app) error {
		if err := a.repo.SetAllParticipantsReceived(ctx, id, day, !c.undo); err != nil {
			return err
		}
		return printSplit(ctx, a, day, id)
	})
}

type receivedCmd struct {
	undo bool
}

func (*receivedCmd) Name() string     { return "received" }
func (*receivedCmd) Synopsis() string { return "Mark one participant of a split as paid back." }
func (*receivedCmd) Usage() string {
	return `received [-undo] <day> <id> <participant>:
  Toggle the received flag of the participant at the given 0-based index.
`
}

func (c *receivedCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.undo, "undo", false, "Mark the participant as not received.")
}

func (c *receivedCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	day, id, err := entryRef(f)
	if err != nil {
		fmt.Fprintln(f.Output(), err)
		return subcommands.ExitUsageError
	}
	if f.NArg() != 3 {
		fmt.Fprintln(f.Output(), "expected <day> <id> <participant>")
		return subcommands.ExitUsageError
	}
	idx, err := strconv.Atoi(f.Arg(2))
	if err != nil {
		fmt.Fprintln(f.Output(), "participant must be an index:", err)
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *app) error {
		if err := a.repo.SetParticipantReceived(ctx, id, day, idx, !c.undo); err != nil {
			return err
		}
		return printSplit(ctx, a, day, id)
	})
}

// printSplit shows the settlement state of a split after a change.
func printSplit(ctx context.Context, a *app, day core.Day, id core.EntryID) error {
	e, ok, err := a.repo.Get(ctx, day, id)
	if err != nil || !ok || e.Split == nil {
		return err
	}
	fm := a.formatter(ctx)
	for i, p := range e.Split.Participants {
		mark := " "
		if p.Received {
			mark = "x"
		}
		fmt.Printf("[%s] %d %s %s\n", mark, i, p.Name, fm.Format(p.Amount))
	}
	fmt.Printf("Status: %s, outstanding %s\n", e.Split.Status, fm.Format(e.Split.Outstanding()))
	return nil
}
