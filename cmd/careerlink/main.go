// Command careerlink signs in to Career Link from a terminal and keeps the
// resulting token record in the data folder, the way a browser tab keeps it
// in local storage.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/careerlink/session-gate/authapi"
	"github.com/careerlink/session-gate/credentials"
	"github.com/careerlink/session-gate/internal/config"
	"github.com/careerlink/session-gate/session"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const usage = `usage: careerlink <command> [flags]

commands:
  login   -email <email> [-password <password>]   sign in and store the token
  logout                                          remove the stored token
  status                                          print the current session
  watch                                           count down until the session ends
`

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
	}

	c := config.New()
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, c, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c config.Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errors.New("no command given")
	}

	store, err := credentials.NewFileStore(c.GetDataFolder())
	if err != nil {
		return err
	}
	manager := session.New(store, session.WithLogger(log.Logger))
	// logout must work even when the stored record cannot be restored
	if err := manager.Initialize(); err != nil && args[0] != "logout" {
		return fmt.Errorf("restore session: %w", err)
	}

	switch args[0] {
	case "login":
		return login(ctx, c, manager, args[1:], out)
	case "logout":
		if err := manager.SignOut(); err != nil {
			return fmt.Errorf("sign out: %w", err)
		}
		fmt.Fprintln(out, "signed out")
		return nil
	case "status":
		return printStatus(out, manager, c.GetExpiryThreshold())
	case "watch":
		return watch(ctx, c, manager, out)
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func login(ctx context.Context, c config.Config, manager *session.Manager, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(out)
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("CAREERLINK_PASSWORD"), "account password (defaults to $CAREERLINK_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return errors.New("login needs -email and -password")
	}

	client, err := authapi.New(ctx, c)
	if err != nil {
		return err
	}
	grant, err := client.SignIn(ctx, *email, *password)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	if err := manager.SignIn(grant.AccessToken, grant.TTL); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return printStatus(out, manager, c.GetExpiryThreshold())
}

type statusView struct {
	session.Session
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	ExpiringSoon bool       `json:"expiringSoon"`
}

func printStatus(out io.Writer, manager *session.Manager, threshold time.Duration) error {
	view := statusView{
		Session:      manager.Session(),
		ExpiringSoon: manager.IsExpiringSoon(threshold),
	}
	if expiresAt, ok := manager.ExpiresAt(); ok && view.Authenticated {
		view.ExpiresAt = &expiresAt
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}

func watch(ctx context.Context, c config.Config, manager *session.Manager, out io.Writer) error {
	if !manager.Session().Authenticated {
		fmt.Fprintln(out, "not signed in")
		return nil
	}
	fmt.Fprintf(out, "session ends in %s\n", time.Duration(manager.RemainingSeconds())*time.Second)

	countdown := session.NewCountdown(manager,
		session.WithInterval(c.GetCountdownInterval()),
		session.WithOnExpire(func() {
			fmt.Fprintln(out, "session expired, signed out")
		}),
	)
	if err := countdown.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
