package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/khaled-muhammad/moveit-cli/pkg/client"
	"github.com/khaled-muhammad/moveit-cli/pkg/domain"
)

// sharesLoadedMsg carries both share directions in one message.
type sharesLoadedMsg struct {
	received []domain.BeamShare
	given    []domain.BeamShare
	err      error
}

// shareDoneMsg is the result of a share/unshare/update call.
type shareDoneMsg struct {
	status string
	err    error
}

type beamsModel struct {
	deps      Deps
	received  []domain.BeamShare
	given     []domain.BeamShare
	cursor    int // over the my-shares list; only own grants are actionable
	loading   bool
	err       string
	status    string
	sharing   bool
	shareUser string
	sharePerm string
	width     int
	height    int
}

func newBeamsModel(deps Deps) beamsModel {
	return beamsModel{deps: deps, sharePerm: domain.PermissionView}
}

func (m beamsModel) Init() tea.Cmd {
	return m.load()
}

func (m beamsModel) editing() bool { return m.sharing }

func (m beamsModel) helpKeys() string {
	if m.sharing {
		return helpEntry("tab", "permission") + "  " + helpEntry("enter", "share") + "  " + helpEntry("esc", "cancel")
	}
	return helpEntry("j/k", "nav") + "  " + helpEntry("s", "share") + "  " + helpEntry("e", "permission") + "  " + helpEntry("u", "unshare") + "  " + helpEntry("r", "refresh") + "  " + helpEntry("q", "quit")
}

func (m beamsModel) load() tea.Cmd {
	c := m.deps.Client
	return func() tea.Msg {
		received, err := c.SharedWithMe(context.Background())
		if err != nil {
			return sharesLoadedMsg{err: err}
		}
		given, err := c.MyShares(context.Background())
		if err != nil {
			return sharesLoadedMsg{err: err}
		}
		return sharesLoadedMsg{received: received, given: given}
	}
}

func (m beamsModel) Update(msg tea.Msg) (beamsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case sharesLoadedMsg:
		m.loading = false
		if msg.err != nil {
			if client.IsStatus(msg.err, 401) || client.IsStatus(msg.err, 403) {
				m.err = "sign in on the Account tab to manage shared beams"
			} else {
				m.err = msg.err.Error()
			}
			return m, nil
		}
		m.err = ""
		m.received = msg.received
		m.given = msg.given
		if m.cursor >= len(m.given) {
			m.cursor = len(m.given) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, nil

	case shareDoneMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.status = msg.status
		return m, m.load()

	case tea.KeyMsg:
		if m.sharing {
			return m.updateShareKeys(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m beamsModel) updateKeys(msg tea.KeyMsg) (beamsModel, tea.Cmd) {
	m.status = ""

	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.given)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "r":
		m.loading = true
		return m, m.load()

	case "s":
		if !m.deps.Sessions.Current().Valid() {
			m.status = "no active beam to share"
			return m, nil
		}
		m.sharing = true
		m.shareUser = ""
		m.sharePerm = domain.PermissionView

	case "u":
		if m.cursor < len(m.given) {
			share := m.given[m.cursor]
			c := m.deps.Client
			return m, func() tea.Msg {
				if err := c.Unshare(context.Background(), share.ID); err != nil {
					return shareDoneMsg{err: err}
				}
				return shareDoneMsg{status: "unshared " + share.SharedWith}
			}
		}

	case "e":
		if m.cursor < len(m.given) {
			share := m.given[m.cursor]
			next := domain.NextPermission(share.Permission)
			c := m.deps.Client
			return m, func() tea.Msg {
				if err := c.UpdateShare(context.Background(), share.ID, next); err != nil {
					return shareDoneMsg{err: err}
				}
				return shareDoneMsg{status: share.SharedWith + " can now " + next}
			}
		}
	}
	return m, nil
}

func (m beamsModel) updateShareKeys(msg tea.KeyMsg) (beamsModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.sharing = false
	case "tab":
		m.sharePerm = domain.NextPermission(m.sharePerm)
	case "enter":
		user := strings.TrimSpace(m.shareUser)
		if user == "" {
			m.status = "username is required"
			return m, nil
		}
		m.sharing = false
		req := client.ShareBeamRequest{
			BeamID:     m.deps.Sessions.Current().BeamID,
			Username:   user,
			Permission: m.sharePerm,
		}
		c := m.deps.Client
		return m, func() tea.Msg {
			if _, err := c.ShareBeam(context.Background(), req); err != nil {
				return shareDoneMsg{err: err}
			}
			return shareDoneMsg{status: "shared with " + user}
		}
	default:
		m.shareUser = editRune(m.shareUser, msg.String())
	}
	return m, nil
}

func (m beamsModel) View() string {
	var b strings.Builder

	if m.sharing {
		b.WriteString(" " + sectionHeaderStyle.Render("Share current beam") + "\n\n")
		b.WriteString(" " + inputPromptStyle.Render("> "))
		if m.shareUser == "" {
			b.WriteString(inputPlaceholderStyle.Render("username"))
		} else {
			b.WriteString(normalStyle.Render(m.shareUser))
		}
		b.WriteString(accentStyle.Render("█") + "\n\n")
		fmt.Fprintf(&b, " %s %s  %s\n",
			metaStyle.Render("permission:"),
			accentStyle.Render(m.sharePerm),
			dimStyle.Render("(tab to cycle)"))
		return b.String()
	}

	if m.loading && len(m.received) == 0 && len(m.given) == 0 {
		return " " + dimStyle.Render("loading shares...")
	}
	if m.err != "" {
		return " " + dimStyle.Render(m.err)
	}

	b.WriteString(" " + sectionHeaderStyle.Render("Shared with me") + "\n")
	if len(m.received) == 0 {
		b.WriteString(" " + dimStyle.Render("nothing yet") + "\n")
	}
	for _, s := range m.received {
		name := s.BeamName
		if name == "" {
			name = truncStr(s.BeamID, 9)
		}
		fmt.Fprintf(&b, "   %s %s %s %s\n",
			normalStyle.Render(name),
			metaStyle.Render("from"),
			accentStyle.Render(s.Owner),
			dimStyle.Render("("+s.Permission+", "+formatTime(s.CreatedAt)+")"))
	}

	b.WriteString("\n " + sectionHeaderStyle.Render("My shares") + "\n")
	if len(m.given) == 0 {
		b.WriteString(" " + dimStyle.Render("press s to share the current beam") + "\n")
	}
	for i, s := range m.given {
		name := s.BeamName
		if name == "" {
			name = truncStr(s.BeamID, 9)
		}
		cursor := " "
		style := normalStyle
		if i == m.cursor {
			cursor = accentStyle.Render(">")
			style = selectedStyle
		}
		fmt.Fprintf(&b, " %s %s %s %s %s\n",
			cursor,
			style.Render(name),
			metaStyle.Render("to"),
			style.Render(s.SharedWith),
			dimStyle.Render("("+s.Permission+")"))
	}

	if m.status != "" {
		b.WriteString("\n " + okStyle.Render(m.status) + "\n")
	}
	return b.String()
}
