package tui

import (
	"context"
	"fmt"
	"strings"

	sysclip "github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mdp/qrterminal/v3"

	"github.com/khaled-muhammad/moveit-cli/internal/beamws"
	"github.com/khaled-muhammad/moveit-cli/internal/browser"
	"github.com/khaled-muhammad/moveit-cli/internal/clipboard"
	"github.com/khaled-muhammad/moveit-cli/internal/session"
	"github.com/khaled-muhammad/moveit-cli/pkg/domain"
)

// beamReadyMsg carries the result of the initial get-or-create, an explicit
// rotate, or a join.
type beamReadyMsg struct {
	sess    *domain.Session
	rotated bool
	err     error
}

// pasteDoneMsg carries the result of a system-clipboard paste-and-share.
type pasteDoneMsg struct {
	status string
	err    error
}

type spaceModel struct {
	deps    Deps
	items   []domain.ClipboardItem
	cursor  int
	peers   int
	qr      string // cached render, keyed by qrBeam
	qrBeam  string
	joining bool
	joinBuf string
	status  string
	width   int
	height  int
}

func newSpaceModel(deps Deps) spaceModel {
	return spaceModel{deps: deps}
}

func (m spaceModel) Init() tea.Cmd {
	return tea.Batch(m.ensureBeam(), m.refreshItems())
}

// ensureBeam reuses the active or saved session, creating a fresh beam
// only when neither exists. A session joined before launch (moveit join)
// is already active and must not be rotated by the freshness check.
func (m spaceModel) ensureBeam() tea.Cmd {
	sessions := m.deps.Sessions
	return func() tea.Msg {
		if sess := sessions.Current(); sess.Valid() {
			return beamReadyMsg{sess: sess}
		}
		sess, err := sessions.GetOrCreate(context.Background())
		return beamReadyMsg{sess: sess, err: err}
	}
}

func (m spaceModel) refreshItems() tea.Cmd {
	store := m.deps.Store
	return func() tea.Msg {
		return itemsMsg(store.Items())
	}
}

type itemsMsg []domain.ClipboardItem

func (m spaceModel) Update(msg tea.Msg) (spaceModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case beamReadyMsg:
		if msg.err != nil {
			m.status = "beam unavailable: " + msg.err.Error()
			return m, nil
		}
		if msg.sess.Valid() {
			m.deps.Store.SetBeam(msg.sess.BeamID)
			m.cacheQR(msg.sess)
			if msg.rotated {
				m.deps.Manager.Kick()
				m.status = "new beam ready"
			}
		}
		return m, m.refreshItems()

	case itemsMsg:
		m.items = msg
		if m.cursor >= len(m.items) {
			m.cursor = len(m.items) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}

	case beamEventMsg:
		switch msg.ev.Kind {
		case beamws.EventClipboard:
			return m, m.refreshItems()
		case beamws.EventDevices:
			m.peers = len(m.deps.Manager.Devices())
		}

	case pasteDoneMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		} else {
			m.status = msg.status
		}
		return m, m.refreshItems()

	case tea.KeyMsg:
		if m.joining {
			return m.updateJoinKeys(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m spaceModel) updateKeys(msg tea.KeyMsg) (spaceModel, tea.Cmd) {
	m.status = ""

	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}

	case "p":
		return m, m.paste()

	case "c":
		if item, ok := m.selected(); ok {
			if err := sysclip.WriteAll(item.Content); err != nil {
				m.status = "copy failed: " + err.Error()
			} else {
				m.status = "copied to clipboard"
			}
		}

	case "d":
		if item, ok := m.selected(); ok {
			if err := m.deps.Store.Remove(item); err != nil {
				m.status = "delete failed: " + err.Error()
			}
			return m, m.refreshItems()
		}

	case "o":
		if item, ok := m.selected(); ok {
			if isLink(item.Content) {
				browser.Open(strings.TrimSpace(item.Content)) //nolint:errcheck // best-effort browser open
				m.status = "opening link"
			} else {
				m.status = "not a link"
			}
		}

	case "N":
		sessions := m.deps.Sessions
		return m, func() tea.Msg {
			sess, err := sessions.Rotate(context.Background())
			return beamReadyMsg{sess: sess, rotated: true, err: err}
		}

	case "J":
		m.joining = true
		m.joinBuf = ""

	case "S":
		if sess := m.deps.Sessions.Current(); sess.Valid() {
			browser.Open(session.JoinURL(m.deps.Origin, sess)) //nolint:errcheck // best-effort browser open
			m.status = "share link opened"
		}
	}
	return m, nil
}

func (m spaceModel) updateJoinKeys(msg tea.KeyMsg) (spaceModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.joining = false
		m.joinBuf = ""
	case "enter":
		m.joining = false
		sess, err := session.ParseJoinPayload(m.joinBuf)
		m.joinBuf = ""
		if err != nil {
			m.status = "invalid beam: " + err.Error()
			return m, nil
		}
		if err := m.deps.Sessions.Set(sess); err != nil {
			m.status = "join failed: " + err.Error()
			return m, nil
		}
		m.deps.Store.SetBeam(sess.BeamID)
		m.cacheQR(sess)
		m.deps.Manager.Kick()
		m.status = "joined beam " + truncStr(sess.BeamID, 9)
		return m, m.refreshItems()
	default:
		m.joinBuf = editRune(m.joinBuf, msg.String())
	}
	return m, nil
}

// paste reads the system clipboard and shares it into the beam. Local state
// is untouched here: the item appears when the server echoes it back.
func (m spaceModel) paste() tea.Cmd {
	store := m.deps.Store
	return func() tea.Msg {
		text, err := sysclip.ReadAll()
		if err != nil {
			return pasteDoneMsg{err: fmt.Errorf("clipboard read: %w", err)}
		}
		if strings.TrimSpace(text) == "" {
			return pasteDoneMsg{status: "Clipboard is empty!"}
		}
		if err := store.Share(text, domain.KindText); err != nil {
			if err == clipboard.ErrEmptyContent {
				return pasteDoneMsg{status: "Clipboard is empty!"}
			}
			return pasteDoneMsg{err: err}
		}
		return pasteDoneMsg{status: "shared"}
	}
}

func (m spaceModel) selected() (domain.ClipboardItem, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return domain.ClipboardItem{}, false
	}
	return m.items[m.cursor], true
}

// cacheQR renders the QR block for the beam's join link once per beam.
// The shimmer tick redraws the view every frame, so the render is cached
// rather than regenerated.
func (m *spaceModel) cacheQR(sess *domain.Session) {
	if sess.BeamID == m.qrBeam {
		return
	}
	var buf strings.Builder
	qrterminal.GenerateHalfBlock(session.JoinURL(m.deps.Origin, sess), qrterminal.L, &buf)
	m.qr = buf.String()
	m.qrBeam = sess.BeamID
}

func (m spaceModel) View() string {
	var b strings.Builder

	sess := m.deps.Sessions.Current()
	if !sess.Valid() {
		if m.joining {
			b.WriteString(m.joinView())
		} else {
			b.WriteString(" " + dimStyle.Render("no beam yet — creating one..."))
			if m.status != "" {
				b.WriteString("\n " + errStyle.Render(m.status))
			}
		}
		return b.String()
	}

	if m.joining {
		return m.joinView()
	}

	// Pairing block while alone in the beam
	if m.peers <= 1 && m.qr != "" {
		for _, line := range strings.Split(strings.TrimRight(m.qr, "\n"), "\n") {
			b.WriteString("   " + line + "\n")
		}
		b.WriteString("   " + dimStyle.Render("scan to pair · beam "+sess.BeamID) + "\n\n")
	}

	if len(m.items) == 0 {
		b.WriteString(" " + dimStyle.Render("nothing shared yet — press p to beam your clipboard") + "\n")
	}

	for i, item := range m.items {
		kind := KindStyle(item.Kind).Render(fmt.Sprintf("%-9s", string(item.Kind)))
		marker := " "
		if item.Persisted {
			marker = metaStyle.Render("◆")
		}

		bodyWidth := m.width - 16
		if bodyWidth < 20 {
			bodyWidth = 20
		}
		content := truncStr(previewLine(item.Content), bodyWidth)

		cursor := " "
		style := normalStyle
		if i == m.cursor {
			cursor = accentStyle.Render(">")
			style = selectedStyle
		}
		fmt.Fprintf(&b, "%s%s %s  %s\n", cursor, marker, kind, style.Render(content))
	}

	if m.status != "" {
		b.WriteString("\n " + okStyle.Render(m.status) + "\n")
	}

	return b.String()
}

func (m spaceModel) joinView() string {
	var b strings.Builder
	b.WriteString(" " + sectionHeaderStyle.Render("Join a beam") + "\n\n")
	b.WriteString(" " + inputPromptStyle.Render("> "))
	if m.joinBuf == "" {
		b.WriteString(inputPlaceholderStyle.Render("beam id or share link"))
	} else {
		b.WriteString(normalStyle.Render(m.joinBuf))
	}
	b.WriteString(accentStyle.Render("█") + "\n")
	return b.String()
}
