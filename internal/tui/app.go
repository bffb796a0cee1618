package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/khaled-muhammad/moveit-cli/internal/beamws"
	"github.com/khaled-muhammad/moveit-cli/internal/browser"
	"github.com/khaled-muhammad/moveit-cli/internal/clipboard"
	"github.com/khaled-muhammad/moveit-cli/internal/session"
	"github.com/khaled-muhammad/moveit-cli/pkg/client"
	"github.com/khaled-muhammad/moveit-cli/pkg/domain"
)

type view int

const (
	viewSpace view = iota
	viewDevices
	viewBeams
	viewAccount
)

// Deps carries everything the TUI needs, wired explicitly in cmd/moveit.
type Deps struct {
	Client   *client.Client
	Sessions *session.Store
	Store    *clipboard.Store
	Manager  *beamws.Manager
	Origin   string // web origin used for share links
}

// meLoadedMsg carries the result of a profile fetch.
type meLoadedMsg struct {
	me  *domain.User
	err error
}

// beamEventMsg wraps one event from the connection manager.
type beamEventMsg struct {
	ev beamws.Event
}

// AuthExpiredMsg is sent from outside the program when a token refresh
// fails; the account tab falls back to the login form.
type AuthExpiredMsg struct{}

// App is the root Bubbletea model.
type App struct {
	deps       Deps
	view       view
	space      spaceModel
	devices    devicesModel
	beams      beamsModel
	account    accountModel
	helpOpen   bool
	helpCursor int
	me         *domain.User
	width      int
	height     int
	frame      int // logo shimmer animation frame
}

// NewApp creates a new TUI application.
func NewApp(deps Deps) App {
	return App{
		deps:    deps,
		space:   newSpaceModel(deps),
		devices: newDevicesModel(deps.Manager),
		beams:   newBeamsModel(deps),
		account: newAccountModel(deps.Client),
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.space.Init(), shimmerTickCmd(), a.loadMe(), a.waitForEvent())
}

func (a App) loadMe() tea.Cmd {
	c := a.deps.Client
	return func() tea.Msg {
		me, err := c.Me(context.Background())
		return meLoadedMsg{me: me, err: err}
	}
}

// waitForEvent blocks on the manager's event channel and resubscribes
// after each delivery.
func (a App) waitForEvent() tea.Cmd {
	ch := a.deps.Manager.Events()
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return beamEventMsg{ev: ev}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + tabs(1) + help(1) = 4 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 4}
		a.space, _ = a.space.Update(bodyMsg)
		a.devices, _ = a.devices.Update(bodyMsg)
		a.beams, _ = a.beams.Update(bodyMsg)
		a.account, _ = a.account.Update(bodyMsg)

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case beamEventMsg:
		var cmd tea.Cmd
		a.space, cmd = a.space.Update(msg)
		a.devices, _ = a.devices.Update(msg)
		return a, tea.Batch(cmd, a.waitForEvent())

	case meLoadedMsg:
		if msg.err == nil && msg.me != nil {
			a.me = msg.me
		}
		a.account, _ = a.account.Update(msg)
		return a, nil

	case AuthExpiredMsg:
		a.me = nil
		a.account, _ = a.account.Update(msg)
		return a, nil

	case tea.KeyMsg:
		// Help overlay captures all keys when open
		if a.helpOpen {
			switch msg.String() {
			case "h", "esc":
				a.helpOpen = false
			case "q", "ctrl+c":
				return a, tea.Quit
			case "j", "down":
				if a.helpCursor < len(helpItems)-1 {
					a.helpCursor++
				}
			case "k", "up":
				if a.helpCursor > 0 {
					a.helpCursor--
				}
			case "enter":
				item := helpItems[a.helpCursor]
				if item.url != "" {
					browser.Open(item.url) //nolint:errcheck // best-effort browser open
				}
			}
			return a, nil
		}

		// Global keys (only when not editing)
		if !a.isEditing() {
			switch msg.String() {
			case "h":
				a.helpOpen = true
				a.helpCursor = 0
				return a, nil
			case "q", "ctrl+c":
				return a, tea.Quit
			case "1":
				if a.view != viewSpace {
					a.view = viewSpace
					return a, a.space.Init()
				}
				return a, nil
			case "2":
				if a.view != viewDevices {
					a.view = viewDevices
					return a, a.devices.Init()
				}
				return a, nil
			case "3":
				if a.view != viewBeams {
					a.view = viewBeams
					return a, a.beams.Init()
				}
				return a, nil
			case "4":
				if a.view != viewAccount {
					a.view = viewAccount
					return a, a.account.Init()
				}
				return a, nil
			}
		}
	}

	var cmd tea.Cmd
	switch a.view {
	case viewSpace:
		a.space, cmd = a.space.Update(msg)
	case viewDevices:
		a.devices, cmd = a.devices.Update(msg)
	case viewBeams:
		a.beams, cmd = a.beams.Update(msg)
	case viewAccount:
		a.account, cmd = a.account.Update(msg)
	}

	return a, cmd
}

func (a App) isEditing() bool {
	switch a.view {
	case viewSpace:
		return a.space.joining
	case viewBeams:
		return a.beams.editing()
	case viewAccount:
		return a.account.editing()
	}
	return false
}

// stateLine renders the connection indicator under the logo: colored dot,
// state name, current beam and its expiry.
func (a App) stateLine() string {
	st := a.deps.Manager.State()
	var dot, label string
	switch st {
	case beamws.StateAuthenticated:
		dot = okStyle.Render("●")
		label = okStyle.Render("connected")
	case beamws.StateConnecting, beamws.StateConnected, beamws.StateAuthenticating:
		dot = warnStyle.Render("●")
		label = warnStyle.Render(strings.ToLower(st.String()))
	default:
		dot = errStyle.Render("○")
		label = errStyle.Render("disconnected")
	}

	parts := []string{dot + " " + label}
	if sess := a.deps.Sessions.Current(); sess.Valid() {
		parts = append(parts, metaStyle.Render("beam "+truncStr(sess.BeamID, 9)))
		if exp := formatExpiry(sess.ExpiresAt); exp != "" {
			parts = append(parts, metaStyle.Render(exp))
		}
	}
	return strings.Join(parts, metaStyle.Render(" · "))
}

func (a App) View() string {
	// Header: centered shimmer logo + connection state line
	logo := renderShimmerLogo(a.frame)
	logoWidth := lipgloss.Width(logo)
	logoPad := (a.width - logoWidth) / 2
	if logoPad < 0 {
		logoPad = 0
	}
	header := strings.Repeat(" ", logoPad) + logo

	stateLine := a.stateLine()
	stateWidth := lipgloss.Width(stateLine)
	statePad := (a.width - stateWidth) / 2
	if statePad < 0 {
		statePad = 0
	}
	header += "\n" + strings.Repeat(" ", statePad) + stateLine

	// Tab bar: 1 Space  2 Devices  3 Beams  4 Account
	type tabEntry struct {
		key  string
		name string
		v    view
	}
	tabs := []tabEntry{
		{"1", "Space", viewSpace},
		{"2", "Devices", viewDevices},
		{"3", "Beams", viewBeams},
		{"4", "Account", viewAccount},
	}

	colWidth := a.width / len(tabs)
	var tabBar strings.Builder
	for _, t := range tabs {
		var label string
		if t.v == a.view {
			label = accentStyle.Render(t.key) + " " + selectedStyle.Underline(true).Render(t.name)
		} else {
			label = metaStyle.Render(t.key) + " " + dimStyle.Render(t.name)
		}
		// Devices tab: presence badge
		if t.v == viewDevices {
			if n := len(a.deps.Manager.Devices()); n > 0 {
				label += " " + presenceDotStyle.Render("●") + dimStyle.Render(fmt.Sprintf("%d", n))
			}
		}
		// Center label within its column
		labelWidth := lipgloss.Width(label)
		leftPad := (colWidth - labelWidth) / 2
		if leftPad < 0 {
			leftPad = 0
		}
		rightPad := colWidth - labelWidth - leftPad
		if rightPad < 0 {
			rightPad = 0
		}
		tabBar.WriteString(strings.Repeat(" ", leftPad) + label + strings.Repeat(" ", rightPad))
	}
	centeredTabs := tabBar.String()

	// Body
	var body string
	var help string
	switch a.view {
	case viewSpace:
		body = a.space.View()
		if a.space.joining {
			help = " " + helpEntry("enter", "join") + "  " + helpEntry("esc", "cancel")
		} else {
			help = " " + helpEntry("1-4", "tabs") + "  " + helpEntry("p", "paste") + "  " + helpEntry("c", "copy") + "  " + helpEntry("d", "delete") + "  " + helpEntry("o", "open") + "  " + helpEntry("N", "new beam") + "  " + helpEntry("J", "join") + "  " + helpEntry("S", "share link") + "  " + helpEntry("h", "help") + "  " + helpEntry("q", "quit")
		}
	case viewDevices:
		body = a.devices.View()
		help = " " + helpEntry("1-4", "tabs") + "  " + helpEntry("h", "help") + "  " + helpEntry("q", "quit")
	case viewBeams:
		body = a.beams.View()
		help = " " + helpEntry("1-4", "tabs") + "  " + a.beams.helpKeys()
	case viewAccount:
		body = a.account.View()
		help = " " + helpEntry("1-4", "tabs") + "  " + a.account.helpKeys()
	}

	// Help overlay
	if a.helpOpen {
		body = helpView(a.helpCursor)
		help = " " + helpEntry("j/k", "nav") + "  " + helpEntry("enter", "open") + "  " + helpEntry("esc", "close")
	}

	// Chrome budget: header(2) + tabs(1) + help(1) = 4 lines + body
	body = strings.TrimRight(truncateToHeight(body, a.height-4), "\n")

	return fmt.Sprintf("%s\n%s\n%s\n%s", header, centeredTabs, body, help)
}
