package tui

import (
	"strings"
	"testing"

	"github.com/khaled-muhammad/moveit-cli/pkg/domain"
)

func TestDevicesEmptyShowsHint(t *testing.T) {
	deps, _ := newTestDeps(t)
	m := newDevicesModel(deps.Manager)

	view := m.View()
	if !strings.Contains(view, "no devices connected") {
		t.Errorf("expected empty hint, got:\n%s", view)
	}
}

func TestDevicesListRendered(t *testing.T) {
	deps, _ := newTestDeps(t)
	m := newDevicesModel(deps.Manager)
	m.devices = []domain.Device{
		{ID: "1", Label: "Pixel 8"},
		{ID: "2", Label: "MacBook"},
	}

	view := m.View()
	if !strings.Contains(view, "Pixel 8") || !strings.Contains(view, "MacBook") {
		t.Errorf("expected device labels, got:\n%s", view)
	}
	if !strings.Contains(view, "2 connected") {
		t.Errorf("expected count line, got:\n%s", view)
	}
}

func TestDevicesLabelFallsBackToID(t *testing.T) {
	deps, _ := newTestDeps(t)
	m := newDevicesModel(deps.Manager)
	m.devices = []domain.Device{{ID: "device-7"}}

	if !strings.Contains(m.View(), "device-7") {
		t.Error("expected id fallback for unlabeled device")
	}
}
