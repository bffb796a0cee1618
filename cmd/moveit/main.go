package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/khaled-muhammad/moveit-cli/internal/beamws"
	"github.com/khaled-muhammad/moveit-cli/internal/clipboard"
	"github.com/khaled-muhammad/moveit-cli/internal/config"
	"github.com/khaled-muhammad/moveit-cli/internal/logging"
	"github.com/khaled-muhammad/moveit-cli/internal/session"
	"github.com/khaled-muhammad/moveit-cli/internal/tui"
	"github.com/khaled-muhammad/moveit-cli/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	cfg, err := config.Load(filepath.Join(dir, "config.yaml"))
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		// The no-op fallback logger still works; note the reason once.
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	defer logger.Sync() //nolint:errcheck // file sink flush

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "version", "-v":
			fmt.Println("moveit " + version)
			return nil
		case "help", "--help", "-h":
			printHelp()
			return nil
		case "login":
			return launch(cfg, dir, logger, launchOpts{login: true})
		case "logout":
			return runLogout(dir)
		case "join":
			if len(os.Args) < 3 {
				return fmt.Errorf("usage: moveit join <beam-id|url>")
			}
			return launch(cfg, dir, logger, launchOpts{joinPayload: os.Args[2]})
		default:
			return fmt.Errorf("unknown command %q — try 'moveit help'", os.Args[1])
		}
	}

	return launch(cfg, dir, logger, launchOpts{})
}

type launchOpts struct {
	joinPayload string
	login       bool
}

// launch wires every component explicitly and runs the TUI:
// config -> logger -> REST client -> session store -> clipboard store ->
// connection manager -> app.
func launch(cfg *config.Config, dir string, logger *zap.Logger, opts launchOpts) error {
	c := client.New(cfg.APIURL)

	if opts.login {
		if err := promptLogin(c); err != nil {
			return err
		}
	}

	sessions := session.NewStore(c, filepath.Join(dir, "session.json"), logger)
	if opts.joinPayload != "" {
		sess, err := session.ParseJoinPayload(opts.joinPayload)
		if err != nil {
			return fmt.Errorf("join: %w", err)
		}
		if err := sessions.Set(sess); err != nil {
			return fmt.Errorf("join: %w", err)
		}
	}

	store := clipboard.NewStore(c, logger)
	manager := beamws.NewManager(cfg.WSURL, sessions, store, logger)
	store.SetSender(manager)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	manager.Start(ctx)
	defer manager.Stop()

	app := tui.NewApp(tui.Deps{
		Client:   c,
		Sessions: sessions,
		Store:    store,
		Manager:  manager,
		Origin:   webOrigin(cfg.APIURL),
	})

	p := tea.NewProgram(app, tea.WithAltScreen())

	// A failed token refresh logs the whole app out, wherever it happens.
	c.OnAuthExpired(func() {
		p.Send(tui.AuthExpiredMsg{})
	})

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

// promptLogin reads credentials from the terminal and signs the client in.
// Tokens live in HttpOnly cookies on the in-memory jar, so each run that
// needs an account signs in fresh.
func promptLogin(c *client.Client) error {
	r := bufio.NewReader(os.Stdin)

	fmt.Print("username: ")
	username, err := r.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read username: %w", err)
	}
	fmt.Print("password: ")
	password, err := r.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	me, err := c.Login(context.Background(), client.LoginRequest{
		Username: strings.TrimSpace(username),
		Password: strings.TrimSpace(password),
	})
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	fmt.Printf("Signed in as %s\n\n", me.Username)
	return nil
}

// runLogout removes the saved beam session. Auth cookies are never
// persisted, so the session file is the only local state to clear.
func runLogout(dir string) error {
	path := filepath.Join(dir, "session.json")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("Already logged out.")
		return nil
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	fmt.Println("Logged out.")
	return nil
}

// webOrigin derives the browser-facing origin from the API base URL, which
// by convention is the origin plus an /api suffix.
func webOrigin(apiURL string) string {
	return strings.TrimSuffix(strings.TrimRight(apiURL, "/"), "/api")
}
