package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"
	"golang.org/x/term"

	"kharcha/internal/gate"
)

// stdin is shared so piped input spanning several prompts is not lost to
// separate buffers.
var stdin = bufio.NewReader(os.Stdin)

// readSecret prompts on stderr and reads one line without echo when stdin
// is a terminal.
func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		return string(b), err
	}
	return readLine(stdin)
}

// readLine returns the next line of r without its line ending. A final line
// without a newline is accepted.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// newPassword asks for a password twice.
func newPassword(prompt string) (string, error) {
	first, err := readSecret(prompt)
	if err != nil {
		return "", err
	}
	second, err := readSecret("Repeat: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passwords do not match")
	}
	return first, nil
}

type userCmd struct {
	name       string
	hint       string
	biometrics bool
}

func (*userCmd) Name() string     { return "user" }
func (*userCmd) Synopsis() string { return "Create the user or manage its password." }
func (*userCmd) Usage() string {
	return `user <action> [flags]:
  Actions:
    init     Create the user. Flags: -name, -hint.
    check    Verify the password.
    passwd   Change the password. Flags: -name, -hint, -biometrics.
    hint     Print the security hint.
    reset    Set a new password after confirming the user name with -name.

  Passwords are read from the terminal, or one per line from stdin.
`
}

func (c *userCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "User name.")
	f.StringVar(&c.hint, "hint", "", "Security hint shown before a reset.")
	f.BoolVar(&c.biometrics, "biometrics", false, "Store the biometric unlock preference.")
}

func (c *userCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(f.Output(), "expected one of init, check, passwd, hint, reset")
		return subcommands.ExitUsageError
	}
	var action func(context.Context, *gate.Gate) error
	switch f.Arg(0) {
	case "init":
		action = c.init
	case "check":
		action = c.check
	case "passwd":
		action = c.passwd
	case "hint":
		action = c.showHint
	case "reset":
		action = c.reset
	default:
		fmt.Fprintf(f.Output(), "unknown user action %q\n", f.Arg(0))
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *app) error {
		return action(ctx, a.gate)
	})
}

func (c *userCmd) init(ctx context.Context, g *gate.Gate) error {
	pw, err := newPassword("Password: ")
	if err != nil {
		return err
	}
	u, err := g.Create(ctx, c.name, pw, c.hint)
	if err != nil {
		return err
	}
	fmt.Printf("Created user %s\n", u.Name)
	return nil
}

func (c *userCmd) check(ctx context.Context, g *gate.Gate) error {
	pw, err := readSecret("Password: ")
	if err != nil {
		return err
	}
	u, err := g.Unlock(ctx, pw)
	if err != nil {
		return err
	}
	fmt.Printf("Welcome back, %s\n", u.Name)
	return nil
}

func (c *userCmd) passwd(ctx context.Context, g *gate.Gate) error {
	current, err := readSecret("Current password: ")
	if err != nil {
		return err
	}
	next, err := newPassword("New password: ")
	if err != nil {
		return err
	}
	upd := gate.UserUpdate{Name: c.name, SecurityHint: c.hint, BiometricPreferred: c.biometrics}
	if err := g.ChangePassword(ctx, current, next, upd); err != nil {
		return err
	}
	fmt.Println("Password changed")
	return nil
}

func (c *userCmd) showHint(ctx context.Context, g *gate.Gate) error {
	hint, err := g.Hint(ctx)
	if err != nil {
		return err
	}
	if hint == "" {
		fmt.Println("No hint set")
		return nil
	}
	fmt.Println(hint)
	return nil
}

func (c *userCmd) reset(ctx context.Context, g *gate.Gate) error {
	if strings.TrimSpace(c.name) == "" {
		return usageError("reset needs -name")
	}
	pw, err := newPassword("New password: ")
	if err != nil {
		return err
	}
	if strings.TrimSpace(pw) == "" {
		return usageError("password must not be empty")
	}
	if err := g.Reset(ctx, c.name, pw); err != nil {
		return err
	}
	fmt.Println("Password reset")
	return nil
}
