// Command adduser registers a ledger account from the command line.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/atinyakov/kakeibo/internal/credential"
	"github.com/atinyakov/kakeibo/internal/db"
	"github.com/atinyakov/kakeibo/internal/repository"
	"github.com/atinyakov/kakeibo/internal/service"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	email := fs.String("email", "", "Account email")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	driver := fs.String("driver", "sqlite", "Database driver: postgres or sqlite")
	dsn := fs.String("d", "kakeibo.db", "Database DSN or SQLite file path")
	cost := fs.Int("bcrypt-cost", credential.DefaultCost, "bcrypt work factor")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		fmt.Fprintln(stdout, "Usage: adduser -email <email> [-password <password>] [-driver <driver>] [-d <dsn>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email")
	}

	// Environment applies only where the flag kept its default.
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if v := getenv("DATABASE_DRIVER"); v != "" && !set["driver"] {
		*driver = v
	}
	if v := getenv("DATABASE_DSN"); v != "" && !set["d"] {
		*dsn = v
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	dialect := db.Dialect(*driver)
	conn, err := db.Init(dialect, *dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer conn.Close()

	// Register never touches sessions; an in-memory store satisfies the dependency.
	sessions := service.NewSessionManager(repository.NewMemorySessionRepository(), time.Hour)
	auth := service.NewAuthService(
		repository.NewAuthRepository(conn, dialect),
		credential.NewBcryptHasher(*cost),
		sessions,
	)

	u, err := auth.Register(context.Background(), *email, password)
	switch {
	case errors.Is(err, service.ErrDuplicateAccount):
		return fmt.Errorf("account %s already exists", service.NormalizeAccount(*email))
	case errors.Is(err, service.ErrValidation):
		return fmt.Errorf("email and password cannot be empty")
	case err != nil:
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %s\n", u.Account, u.ID)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Pipes and tests.
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
