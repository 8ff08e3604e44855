package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"kharcha/internal/accounts"
	"kharcha/internal/core"
	"kharcha/internal/report"
	"kharcha/internal/summary"
)

// filterFlags select the records a listing or summary covers.
type filterFlags struct {
	period    string
	typ       string
	payMethod string
	category  string
}

func (ff *filterFlags) register(f *flag.FlagSet, period string) {
	f.StringVar(&ff.period, "period", period, "all, YYYY, YYYY-MM or YYYY-MM-DD.")
	f.StringVar(&ff.typ, "type", string(summary.AnyType), "all, Expense, Income, Split or Transfer.")
	f.StringVar(&ff.payMethod, "pay", "all", "Payment method, or all.")
	f.StringVar(&ff.category, "category", "all", "Category, or all.")
}

func (ff *filterFlags) filter() (summary.Filter, error) {
	period, err := summary.ParsePeriod(ff.period)
	if err != nil {
		return summary.Filter{}, usageError("-period: %v", err)
	}
	typ, err := summary.ParseTypeFilter(ff.typ)
	if err != nil {
		return summary.Filter{}, usageError("-type: %v", err)
	}
	var method core.PayMethod
	if p := strings.TrimSpace(ff.payMethod); p != "" && p != "all" {
		method = core.PayMethod(p)
		if !method.IsValid() {
			return summary.Filter{}, usageError("-pay: %v", core.ErrInvalidPayMethod)
		}
	}
	category := strings.TrimSpace(ff.category)
	if category == "all" {
		category = ""
	}
	return summary.Filter{Period: period, Type: typ, PayMethod: method, Category: category}, nil
}

type listCmd struct {
	filterFlags
	page int
	size int
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "List entries, newest first." }
func (*listCmd) Usage() string {
	return `list [flags]:
  List the entries matching the filters, one page at a time.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	c.register(f, "all")
	f.IntVar(&c.page, "page", 1, "1-based page number.")
	f.IntVar(&c.size, "size", 0, "Page size; defaults to KHARCHA_PAGE_SIZE.")
}

func (c *listCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	filter, err := c.filter()
	if err != nil {
		fmt.Fprintln(f.Output(), err)
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *app) error {
		doc, err := a.repo.Snapshot(ctx)
		if err != nil {
			return err
		}
		size := c.size
		if size <= 0 {
			size = a.cfg.PageSize
		}
		s := summary.Summarize(summary.Flatten(doc), filter)
		page := c.page
		if page < 1 {
			page = 1
		}
		records, pages := summary.Page(s.Entries, page, size)
		if page > pages {
			page = pages
		}
		title := "Entries, " + filter.Period.String()
		a.printMarkdown(report.Entries(title, records, page, pages, report.NewFormatter(doc.Custom.Currency)))
		return nil
	})
}

type summaryCmd struct {
	filterFlags
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "Show totals and the category breakdown." }
func (*summaryCmd) Usage() string {
	return `summary [flags]:
  Show expense and income totals, the outstanding split amount and the
  category breakdown. The period defaults to the current month.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) { c.register(f, currentMonth()) }

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	filter, err := c.filter()
	if err != nil {
		fmt.Fprintln(f.Output(), err)
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *app) error {
		doc, err := a.repo.Snapshot(ctx)
		if err != nil {
			return err
		}
		s := summary.Summarize(summary.Flatten(doc), filter)
		s.Entries = summary.History(s.Entries, a.cfg.PageSize)
		a.printMarkdown(report.Summary("Summary, "+filter.Period.String(), s, report.NewFormatter(doc.Custom.Currency)))
		return nil
	})
}

type dailyCmd struct{}

func (*dailyCmd) Name() string     { return "daily" }
func (*dailyCmd) Synopsis() string { return "Show one day's totals." }
func (*dailyCmd) Usage() string {
	return `daily [<day>]:
  Show expense, income and net for the day, today by default.
`
}

func (*dailyCmd) SetFlags(*flag.FlagSet) {}

func (*dailyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	day := core.Today()
	if f.NArg() > 0 {
		var err error
		if day, err = core.ParseDay(f.Arg(0)); err != nil {
			fmt.Fprintln(f.Output(), err)
			return subcommands.ExitUsageError
		}
	}
	return run(ctx, func(ctx context.Context, a *app) error {
		doc, err := a.repo.Snapshot(ctx)
		if err != nil {
			return err
		}
		a.printMarkdown(report.Daily(summary.Daily(doc, day), report.NewFormatter(doc.Custom.Currency)))
		return nil
	})
}

// monthArg reads an optional YYYY-MM positional argument.
func monthArg(f *flag.FlagSet, i int) (string, error) {
	if f.NArg() <= i {
		return currentMonth(), nil
	}
	m, err := core.ParseMonth(f.Arg(i))
	if err != nil {
		return "", usageError("%s: %v", f.Arg(i), err)
	}
	return m, nil
}

type balancesCmd struct{}

func (*balancesCmd) Name() string     { return "balances" }
func (*balancesCmd) Synopsis() string { return "Show derived bank balances for a month." }
func (*balancesCmd) Usage() string {
	return `balances [<YYYY-MM>]:
  Show every bank's balance at the end of the month, the current month by
  default.
`
}

func (*balancesCmd) SetFlags(*flag.FlagSet) {}

func (*balancesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	month, err := monthArg(f, 0)
	if err != nil {
		fmt.Fprintln(f.Output(), err)
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *app) error {
		doc, err := a.repo.Snapshot(ctx)
		if err != nil {
			return err
		}
		a.printMarkdown(report.Balances(month, accounts.Overview(doc, month), report.NewFormatter(doc.Custom.Currency)))
		return nil
	})
}

type drillCmd struct {
	kind      string
	payMethod string
	category  string
	day       string
}

func (*drillCmd) Name() string     { return "drill" }
func (*drillCmd) Synopsis() string { return "List the transactions behind a bank balance." }
func (*drillCmd) Usage() string {
	return `drill [flags] <bank> [<YYYY-MM>]:
  List the month's transactions touching the bank, with the opening balance.
`
}

func (c *drillCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "kind", "all", "Row kind, or all.")
	f.StringVar(&c.payMethod, "pay", "all", "Payment method, or all.")
	f.StringVar(&c.category, "category", "all", "Category, or all.")
	f.StringVar(&c.day, "day", "", "Only rows of this day.")
}

func (c *drillCmd) drillFilter() (accounts.DrillFilter, error) {
	df := accounts.DrillFilter{Kind: strings.TrimSpace(c.kind)}
	if p := strings.TrimSpace(c.payMethod); p != "" && p != "all" {
		df.PayMethod = core.PayMethod(p)
		if !df.PayMethod.IsValid() {
			return df, usageError("-pay: %v", core.ErrInvalidPayMethod)
		}
	}
	if cat := strings.TrimSpace(c.category); cat != "all" {
		df.Category = cat
	}
	if c.day != "" {
		d, err := core.ParseDay(c.day)
		if err != nil {
			return df, usageError("-day: %v", err)
		}
		df.Day = d
	}
	return df, nil
}

func (c *drillCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 {
		fmt.Fprintln(f.Output(), "expected <bank>")
		return subcommands.ExitUsageError
	}
	bank := f.Arg(0)
	month, err := monthArg(f, 1)
	if err != nil {
		fmt.Fprintln(f.Output(), err)
		return subcommands.ExitUsageError
	}
	df, err := c.drillFilter()
	if err != nil {
		fmt.Fprintln(f.Output(), err)
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *app) error {
		doc, err := a.repo.Snapshot(ctx)
		if err != nil {
			return err
		}
		rows := accounts.DrillDown(doc, month, bank, df)
		a.printMarkdown(report.DrillDown(month, bank, rows, report.NewFormatter(doc.Custom.Currency)))
		return nil
	})
}
