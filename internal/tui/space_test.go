package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/khaled-muhammad/moveit-cli/internal/beamws"
	"github.com/khaled-muhammad/moveit-cli/internal/clipboard"
	"github.com/khaled-muhammad/moveit-cli/internal/session"
	"github.com/khaled-muhammad/moveit-cli/pkg/client"
	"github.com/khaled-muhammad/moveit-cli/pkg/domain"
)

const testBeamID = "3fa85f64-5717-4562-b3fc-2c963f66afa6"

// fakeBeamAPI satisfies both session.BeamAPI and clipboard.NotesAPI.
type fakeBeamAPI struct {
	notes []domain.Note
}

func (f *fakeBeamAPI) CreateBeam(context.Context) (*client.CreateBeamResponse, error) {
	return &client.CreateBeamResponse{BeamID: testBeamID, BeamKey: "key"}, nil
}

func (f *fakeBeamAPI) BeamNotes(context.Context, string) ([]domain.Note, error) {
	return f.notes, nil
}

// fakeSender records shares and deletes pushed by the clipboard store.
type fakeSender struct {
	shares  []string
	deletes []string
}

func (f *fakeSender) ShareClipboard(content string, _ domain.ContentKind) error {
	f.shares = append(f.shares, content)
	return nil
}

func (f *fakeSender) DeleteNote(content string) error {
	f.deletes = append(f.deletes, content)
	return nil
}

// newTestDeps wires real stores around fakes; the manager is never started,
// so no network traffic happens.
func newTestDeps(t *testing.T) (Deps, *fakeSender) {
	t.Helper()
	api := &fakeBeamAPI{}
	sender := &fakeSender{}

	sessions := session.NewStore(api, filepath.Join(t.TempDir(), "session.json"), nil)
	store := clipboard.NewStore(api, nil)
	store.SetSender(sender)
	manager := beamws.NewManager("ws://127.0.0.1:1", sessions, store, nil)

	return Deps{
		Client:   client.New("http://127.0.0.1:1"),
		Sessions: sessions,
		Store:    store,
		Manager:  manager,
		Origin:   "https://moveit.example",
	}, sender
}

func pressKey(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func newTestSpace(t *testing.T) (spaceModel, *fakeSender) {
	deps, sender := newTestDeps(t)
	m := newSpaceModel(deps)
	m.width = 80
	m.height = 24
	return m, sender
}

func TestSpaceEmptyShowsHint(t *testing.T) {
	m, _ := newTestSpace(t)
	if err := m.deps.Sessions.Set(&domain.Session{BeamID: testBeamID}); err != nil {
		t.Fatal(err)
	}
	m, _ = m.Update(beamReadyMsg{sess: m.deps.Sessions.Current()})

	view := m.View()
	if !strings.Contains(view, "nothing shared yet") {
		t.Errorf("expected empty hint, got:\n%s", view)
	}
}

func TestSpaceItemsRendered(t *testing.T) {
	m, _ := newTestSpace(t)
	if err := m.deps.Sessions.Set(&domain.Session{BeamID: testBeamID}); err != nil {
		t.Fatal(err)
	}
	m.deps.Store.SetBeam(testBeamID)
	m.deps.Store.ApplyLive("hello from my phone", domain.KindText)
	m.deps.Store.ApplyLive("https://example.com/file.png", domain.KindImage)
	m, _ = m.Update(itemsMsg(m.deps.Store.Items()))

	view := m.View()
	if !strings.Contains(view, "hello from my phone") {
		t.Errorf("expected first item, got:\n%s", view)
	}
	if !strings.Contains(view, "file.png") {
		t.Errorf("expected second item, got:\n%s", view)
	}
	if !strings.Contains(view, "image") {
		t.Errorf("expected kind label, got:\n%s", view)
	}
}

func TestSpaceCursorNavigation(t *testing.T) {
	m, _ := newTestSpace(t)
	m.items = []domain.ClipboardItem{
		{ID: "1", Content: "one", Kind: domain.KindText},
		{ID: "2", Content: "two", Kind: domain.KindText},
	}

	m, _ = m.Update(pressKey("j"))
	if m.cursor != 1 {
		t.Errorf("cursor after j = %d, want 1", m.cursor)
	}
	m, _ = m.Update(pressKey("j"))
	if m.cursor != 1 {
		t.Errorf("cursor must stop at last item, got %d", m.cursor)
	}
	m, _ = m.Update(pressKey("k"))
	if m.cursor != 0 {
		t.Errorf("cursor after k = %d, want 0", m.cursor)
	}
}

func TestSpaceDeletePushesToSender(t *testing.T) {
	m, sender := newTestSpace(t)
	m.deps.Store.SetBeam(testBeamID)
	item := m.deps.Store.ApplyLive("doomed", domain.KindText)
	m, _ = m.Update(itemsMsg(m.deps.Store.Items()))

	m, _ = m.Update(pressKey("d"))

	if len(sender.deletes) != 1 || sender.deletes[0] != "doomed" {
		t.Errorf("expected one delete push for %q, got %v", item.Content, sender.deletes)
	}
	if len(m.deps.Store.Items()) != 0 {
		t.Error("expected optimistic local removal")
	}
}

func TestSpaceJoinWithBeamID(t *testing.T) {
	m, _ := newTestSpace(t)

	m, _ = m.Update(pressKey("J"))
	if !m.joining {
		t.Fatal("expected join input to open")
	}
	m.joinBuf = testBeamID
	m, _ = m.Update(pressKey("enter"))

	if m.joining {
		t.Error("expected join input to close")
	}
	sess := m.deps.Sessions.Current()
	if !sess.Valid() || sess.BeamID != testBeamID {
		t.Errorf("expected joined session, got %+v", sess)
	}
	if !strings.Contains(m.status, "joined") {
		t.Errorf("expected joined status, got %q", m.status)
	}
}

func TestSpaceJoinRejectsInvalidPayload(t *testing.T) {
	m, _ := newTestSpace(t)

	m, _ = m.Update(pressKey("J"))
	m.joinBuf = "not-a-beam"
	m, _ = m.Update(pressKey("enter"))

	if m.deps.Sessions.Current() != nil {
		t.Error("invalid payload must not set a session")
	}
	if !strings.Contains(m.status, "invalid beam") {
		t.Errorf("expected invalid status, got %q", m.status)
	}
}

func TestSpaceJoinEscCancels(t *testing.T) {
	m, _ := newTestSpace(t)

	m, _ = m.Update(pressKey("J"))
	m.joinBuf = "half-typed"
	m, _ = m.Update(pressKey("esc"))

	if m.joining || m.joinBuf != "" {
		t.Error("esc must close and clear the join input")
	}
}

func TestSpaceBeamReadyCachesQR(t *testing.T) {
	m, _ := newTestSpace(t)
	sess := &domain.Session{BeamID: testBeamID, BeamKey: "key"}
	if err := m.deps.Sessions.Set(sess); err != nil {
		t.Fatal(err)
	}

	m, _ = m.Update(beamReadyMsg{sess: sess})
	if m.qr == "" {
		t.Fatal("expected QR render to be cached")
	}
	if m.qrBeam != testBeamID {
		t.Errorf("qrBeam = %q, want %q", m.qrBeam, testBeamID)
	}

	view := m.View()
	if !strings.Contains(view, "scan to pair") {
		t.Errorf("expected pairing hint while alone, got:\n%s", view)
	}
}

func TestSpaceQRHiddenWhenPaired(t *testing.T) {
	m, _ := newTestSpace(t)
	sess := &domain.Session{BeamID: testBeamID}
	if err := m.deps.Sessions.Set(sess); err != nil {
		t.Fatal(err)
	}
	m, _ = m.Update(beamReadyMsg{sess: sess})
	m.peers = 2

	view := m.View()
	if strings.Contains(view, "scan to pair") {
		t.Error("pairing block must disappear once a second device connects")
	}
}

func TestSpacePasteDoneMsgSetsStatus(t *testing.T) {
	m, _ := newTestSpace(t)
	m, _ = m.Update(pasteDoneMsg{status: "Clipboard is empty!"})
	if m.status != "Clipboard is empty!" {
		t.Errorf("status = %q", m.status)
	}
}

func TestSpaceOpenNonLinkSetsStatus(t *testing.T) {
	m, _ := newTestSpace(t)
	m.items = []domain.ClipboardItem{{ID: "1", Content: "plain text", Kind: domain.KindText}}

	m, _ = m.Update(pressKey("o"))
	if m.status != "not a link" {
		t.Errorf("status = %q, want 'not a link'", m.status)
	}
}
