package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/khaled-muhammad/moveit-cli/internal/beamws"
	"github.com/khaled-muhammad/moveit-cli/pkg/domain"
)

type devicesModel struct {
	manager *beamws.Manager
	devices []domain.Device
	width   int
	height  int
}

func newDevicesModel(manager *beamws.Manager) devicesModel {
	return devicesModel{manager: manager}
}

func (m devicesModel) Init() tea.Cmd {
	return nil
}

func (m devicesModel) Update(msg tea.Msg) (devicesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case beamEventMsg:
		// The server replaces the list wholesale on every join and leave.
		if msg.ev.Kind == beamws.EventDevices || msg.ev.Kind == beamws.EventState {
			m.devices = m.manager.Devices()
		}
	}
	return m, nil
}

func (m devicesModel) View() string {
	var b strings.Builder

	b.WriteString(" " + sectionHeaderStyle.Render("Connected devices") + "\n\n")

	if len(m.devices) == 0 {
		b.WriteString(" " + dimStyle.Render("no devices connected — scan the pairing code from another device") + "\n")
		return b.String()
	}

	for _, d := range m.devices {
		label := d.Label
		if label == "" {
			label = d.ID
		}
		fmt.Fprintf(&b, " %s %s\n", presenceDotStyle.Render("●"), normalStyle.Render(label))
	}
	fmt.Fprintf(&b, "\n %s\n", dimStyle.Render(fmt.Sprintf("%d connected", len(m.devices))))

	return b.String()
}
