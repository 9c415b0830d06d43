// Command authctl входит в шлюз аутентификации и хранит сессию в файле.
//
//	authctl login -email a@example.com -password secret
//	authctl whoami
//	authctl refresh
//	authctl watch -lead 1m
//	authctl logout
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/magabrotheeeer/admin-sessions/internal/lib/sl"
	"github.com/magabrotheeeer/admin-sessions/pkg/authclient"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, os.Args[1], os.Args[2:]); err != nil {
		logger.Error("authctl failed", slog.String("command", os.Args[1]), sl.Err(err))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: authctl <login|whoami|refresh|status|watch|logout> [flags]")
}

func run(ctx context.Context, logger *slog.Logger, command string, args []string) error {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	statePath := fs.String("state", defaultStatePath(), "файл с сохранённой сессией")
	email := fs.String("email", "", "email для входа")
	password := fs.String("password", os.Getenv("AUTHCTL_PASSWORD"), "пароль, по умолчанию AUTHCTL_PASSWORD")
	lead := fs.Duration("lead", time.Minute, "за сколько до истечения обновлять токен")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := authclient.LoadConfig()
	if err != nil {
		return err
	}
	client := authclient.NewFromConfig(cfg, authclient.WithLogger(logger))

	state, err := loadState(*statePath)
	if err != nil {
		return err
	}
	client.Restore(state)

	switch command {
	case "login":
		if *email == "" {
			return errors.New("-email is required")
		}
		if err := client.Login(ctx, *email, *password); err != nil {
			return err
		}
		fmt.Printf("logged in as %s, access token valid for %ds\n", client.CurrentUser().Email, client.RemainingSeconds())
	case "whoami":
		user, err := client.FetchCurrentUser(ctx)
		if err != nil {
			return err
		}
		if user == nil {
			fmt.Println("not logged in")
			break
		}
		fmt.Printf("%s (%s) uid=%s session=%s\n", user.Email, user.Role, user.UserUID, user.SessionID)
	case "refresh":
		if err := client.RefreshTokens(ctx); err != nil {
			_ = saveState(*statePath, client.Snapshot())
			return err
		}
		fmt.Printf("access token valid for %ds\n", client.RemainingSeconds())
	case "status":
		if !client.Snapshot().LoggedIn() {
			fmt.Println("not logged in")
			return nil
		}
		fmt.Printf("%ds remaining\n", client.RemainingSeconds())
		return nil
	case "watch":
		err := client.RunAutoRefresh(ctx, *lead)
		if saveErr := saveState(*statePath, client.Snapshot()); saveErr != nil {
			return saveErr
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	case "logout":
		err := client.Logout(ctx)
		if saveErr := saveState(*statePath, client.Snapshot()); saveErr != nil {
			return saveErr
		}
		return err
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}

	return saveState(*statePath, client.Snapshot())
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".authctl.json"
	}
	return filepath.Join(dir, "authctl", "session.json")
}

func loadState(path string) (authclient.State, error) {
	const op = "authctl.loadState"
	var state authclient.State
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		return state, fmt.Errorf("%s: %w", op, err)
	}
	return state, nil
}

func saveState(path string, state authclient.State) error {
	const op = "authctl.saveState"
	if !state.LoggedIn() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
