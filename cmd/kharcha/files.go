package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"

	"kharcha/internal/core"
	"kharcha/internal/impexp"
)

// formatOf takes the format from the -format flag, or from the file
// extension when the flag is empty.
func formatOf(flagValue, path string) (impexp.Format, error) {
	s := strings.TrimSpace(flagValue)
	if s == "" {
		s = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	f, err := impexp.ParseFormat(s)
	if err != nil {
		return "", usageError("%v", err)
	}
	return f, nil
}

type importCmd struct {
	format string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "Import a CSV export or a JSON backup." }
func (*importCmd) Usage() string {
	return `import [-format csv|json] <file>:
  A CSV file is appended as new entries. A JSON backup replaces the whole
  ledger. Use - to read from stdin.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "", "csv or json; defaults to the file extension.")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(f.Output(), "expected <file>")
		return subcommands.ExitUsageError
	}
	path := f.Arg(0)
	format, err := formatOf(c.format, path)
	if err != nil {
		fmt.Fprintln(f.Output(), err)
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *app) error {
		var r io.Reader = os.Stdin
		if path != "-" {
			file, err := os.Open(path)
			if err != nil {
				return err
			}
			defer file.Close()
			r = file
		}

		switch format {
		case impexp.FormatCSV:
			n, skipped, err := a.impexp.ImportCSV(ctx, r)
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d entries, skipped %d rows\n", n, skipped)
		case impexp.FormatJSON:
			n, err := a.impexp.ImportJSON(ctx, r)
			if err != nil {
				return err
			}
			fmt.Printf("Restored ledger with %d entries\n", n)
		default:
			return usageError("%s files cannot be imported", format)
		}
		return nil
	})
}

type exportCmd struct {
	format string
	month  string
	out    string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "Export the ledger as CSV, JSON or XLSX." }
func (*exportCmd) Usage() string {
	return `export [-format csv|json|xlsx] [-month YYYY-MM] [-o file]:
  Write the ledger, or one month of it, to a file or stdout.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "", "csv, json or xlsx; defaults to the -o extension, then csv.")
	f.StringVar(&c.month, "month", "", "Only export this month.")
	f.StringVar(&c.out, "o", "", "Output file; stdout when empty.")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fv := c.format
	if fv == "" && c.out == "" {
		fv = string(impexp.FormatCSV)
	}
	format, err := formatOf(fv, c.out)
	if err != nil {
		fmt.Fprintln(f.Output(), err)
		return subcommands.ExitUsageError
	}
	month := c.month
	if month != "" {
		if month, err = core.ParseMonth(month); err != nil {
			fmt.Fprintln(f.Output(), "-month:", err)
			return subcommands.ExitUsageError
		}
	}
	return run(ctx, func(ctx context.Context, a *app) error {
		if c.out == "" {
			return a.impexp.Export(ctx, os.Stdout, format, month)
		}
		file, err := os.Create(c.out)
		if err != nil {
			return err
		}
		if err := a.impexp.Export(ctx, file, format, month); err != nil {
			file.Close()
			return err
		}
		return file.Close()
	})
}

type backupCmd struct {
	dir string
}

func (*backupCmd) Name() string     { return "backup" }
func (*backupCmd) Synopsis() string { return "Write one JSON backup per month." }
func (*backupCmd) Usage() string {
	return `backup [-dir path]:
  Write kharcha-YYYY-MM.json files for every month with entries.
`
}

func (c *backupCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "Target directory; defaults to KHARCHA_BACKUP_DIR.")
}

func (c *backupCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app) error {
		dir := c.dir
		if dir == "" {
			dir = a.cfg.BackupDir
		}
		if dir == "" {
			return usageError("no backup directory: pass -dir or set KHARCHA_BACKUP_DIR")
		}
		paths, err := a.impexp.Backup(ctx, dir)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Println(p)
		}
		return nil
	})
}
