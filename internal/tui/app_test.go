package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/khaled-muhammad/moveit-cli/pkg/domain"
)

func newTestApp(t *testing.T) App {
	deps, _ := newTestDeps(t)
	a := NewApp(deps)
	model, _ := a.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return model.(App)
}

func TestAppTabSwitching(t *testing.T) {
	a := newTestApp(t)
	if a.view != viewSpace {
		t.Fatalf("initial view = %d, want space", a.view)
	}

	model, _ := a.Update(pressKey("2"))
	a = model.(App)
	if a.view != viewDevices {
		t.Errorf("view after 2 = %d, want devices", a.view)
	}

	model, _ = a.Update(pressKey("3"))
	a = model.(App)
	if a.view != viewBeams {
		t.Errorf("view after 3 = %d, want beams", a.view)
	}

	model, _ = a.Update(pressKey("4"))
	a = model.(App)
	if a.view != viewAccount {
		t.Errorf("view after 4 = %d, want account", a.view)
	}

	model, _ = a.Update(pressKey("1"))
	a = model.(App)
	if a.view != viewSpace {
		t.Errorf("view after 1 = %d, want space", a.view)
	}
}

func TestAppGlobalKeysIgnoredWhileEditing(t *testing.T) {
	a := newTestApp(t)
	a.space.joining = true

	model, _ := a.Update(pressKey("2"))
	a = model.(App)
	if a.view != viewSpace {
		t.Error("tab keys must feed the join input while editing")
	}
}

func TestAppHelpOverlay(t *testing.T) {
	a := newTestApp(t)

	model, _ := a.Update(pressKey("h"))
	a = model.(App)
	if !a.helpOpen {
		t.Fatal("expected help overlay to open")
	}

	view := a.View()
	if !strings.Contains(view, "moveit join") {
		t.Errorf("expected command list in help, got:\n%s", view)
	}

	model, _ = a.Update(pressKey("esc"))
	a = model.(App)
	if a.helpOpen {
		t.Error("esc must close the help overlay")
	}
}

func TestAppQuitKey(t *testing.T) {
	a := newTestApp(t)
	_, cmd := a.Update(pressKey("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if msg := cmd(); msg != (tea.QuitMsg{}) {
		t.Errorf("expected tea.Quit, got %T", msg)
	}
}

func TestAppStateLineShowsDisconnected(t *testing.T) {
	a := newTestApp(t)
	view := a.View()
	if !strings.Contains(view, "disconnected") {
		t.Errorf("expected disconnected indicator, got:\n%s", view)
	}
}

func TestAppStateLineShowsBeam(t *testing.T) {
	a := newTestApp(t)
	if err := a.deps.Sessions.Set(&domain.Session{BeamID: testBeamID}); err != nil {
		t.Fatal(err)
	}

	view := a.View()
	if !strings.Contains(view, "beam") {
		t.Errorf("expected beam id in state line, got:\n%s", view)
	}
}

func TestAppTabsRendered(t *testing.T) {
	a := newTestApp(t)
	view := a.View()
	for _, tab := range []string{"Space", "Devices", "Beams", "Account"} {
		if !strings.Contains(view, tab) {
			t.Errorf("expected tab %q, got:\n%s", tab, view)
		}
	}
}

func TestAppAuthExpiredClearsProfile(t *testing.T) {
	a := newTestApp(t)
	model, _ := a.Update(meLoadedMsg{me: &domain.User{Username: "alice"}})
	a = model.(App)
	if a.me == nil {
		t.Fatal("expected profile to be set")
	}

	model, _ = a.Update(AuthExpiredMsg{})
	a = model.(App)
	if a.me != nil {
		t.Error("expected profile cleared on auth expiry")
	}
}
