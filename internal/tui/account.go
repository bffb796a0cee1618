package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/khaled-muhammad/moveit-cli/pkg/client"
	"github.com/khaled-muhammad/moveit-cli/pkg/domain"
)

type accountMode int

const (
	modeSignedOut accountMode = iota
	modeLogin
	modeRegister
	modeProfile
	modeEdit
	modeConfirmDelete
)

type authField int

const (
	fieldUsername authField = iota
	fieldEmail
	fieldPassword
	fieldFirstName
	fieldLastName
	fieldPhone
	numAuthFields
)

// authDoneMsg carries the result of a login, register or profile save.
type authDoneMsg struct {
	me  *domain.User
	err error
}

// signedOutMsg carries the result of logout or account deletion.
type signedOutMsg struct {
	status string
	err    error
}

type accountModel struct {
	client    *client.Client
	mode      accountMode
	fields    [numAuthFields]string
	focus     authField
	order     []authField // visible fields for the active form
	me        *domain.User
	submitted bool
	status    string
	width     int
	height    int
}

var (
	loginFields    = []authField{fieldUsername, fieldPassword}
	registerFields = []authField{fieldUsername, fieldEmail, fieldPassword, fieldFirstName, fieldLastName}
	editFields     = []authField{fieldFirstName, fieldLastName, fieldEmail, fieldPhone}
)

var authFieldLabels = [numAuthFields]string{
	"username", "email", "password", "first name", "last name", "phone",
}

func newAccountModel(c *client.Client) accountModel {
	return accountModel{client: c, mode: modeSignedOut}
}

func (m accountModel) Init() tea.Cmd {
	return nil
}

func (m accountModel) editing() bool {
	switch m.mode {
	case modeLogin, modeRegister, modeEdit, modeConfirmDelete:
		return true
	}
	return false
}

func (m accountModel) helpKeys() string {
	switch m.mode {
	case modeSignedOut:
		return helpEntry("l", "login") + "  " + helpEntry("n", "register") + "  " + helpEntry("q", "quit")
	case modeLogin, modeRegister, modeEdit:
		return helpEntry("tab", "next") + "  " + helpEntry("enter", "submit") + "  " + helpEntry("esc", "cancel")
	case modeConfirmDelete:
		return helpEntry("y", "delete forever") + "  " + helpEntry("esc", "cancel")
	default:
		return helpEntry("e", "edit") + "  " + helpEntry("x", "logout") + "  " + helpEntry("D", "delete account") + "  " + helpEntry("q", "quit")
	}
}

func (m accountModel) Update(msg tea.Msg) (accountModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case meLoadedMsg:
		if msg.err == nil && msg.me != nil {
			m.me = msg.me
			if m.mode == modeSignedOut {
				m.mode = modeProfile
			}
		}

	case AuthExpiredMsg:
		m.me = nil
		m.mode = modeSignedOut
		m.status = "session expired — sign in again"

	case authDoneMsg:
		m.submitted = false
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		if msg.me == nil {
			m.status = "server returned no profile"
			return m, nil
		}
		m.me = msg.me
		m.mode = modeProfile
		m.status = "signed in as " + msg.me.Username
		m.fields = [numAuthFields]string{}
		return m, nil

	case signedOutMsg:
		m.submitted = false
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.me = nil
		m.mode = modeSignedOut
		m.status = msg.status
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m accountModel) updateKeys(msg tea.KeyMsg) (accountModel, tea.Cmd) {
	switch m.mode {
	case modeSignedOut:
		m.status = ""
		switch msg.String() {
		case "l":
			m.mode = modeLogin
			m.order = loginFields
			m.focus = fieldUsername
			m.fields = [numAuthFields]string{}
		case "n":
			m.mode = modeRegister
			m.order = registerFields
			m.focus = fieldUsername
			m.fields = [numAuthFields]string{}
		}
		return m, nil

	case modeProfile:
		m.status = ""
		switch msg.String() {
		case "e":
			m.mode = modeEdit
			m.order = editFields
			m.focus = fieldFirstName
			m.fields = [numAuthFields]string{}
			if m.me != nil {
				m.fields[fieldFirstName] = m.me.FirstName
				m.fields[fieldLastName] = m.me.LastName
				m.fields[fieldEmail] = m.me.Email
				m.fields[fieldPhone] = m.me.PhoneNumber
			}
		case "x":
			c := m.client
			return m, func() tea.Msg {
				if err := c.Logout(context.Background()); err != nil {
					return signedOutMsg{err: err}
				}
				return signedOutMsg{status: "signed out"}
			}
		case "D":
			m.mode = modeConfirmDelete
		}
		return m, nil

	case modeConfirmDelete:
		switch msg.String() {
		case "y":
			m.mode = modeProfile
			c := m.client
			return m, func() tea.Msg {
				if err := c.DeleteAccount(context.Background()); err != nil {
					return signedOutMsg{err: err}
				}
				return signedOutMsg{status: "account deleted"}
			}
		case "esc", "n":
			m.mode = modeProfile
		}
		return m, nil
	}

	// Form modes: login, register, edit
	switch msg.String() {
	case "esc":
		if m.me != nil {
			m.mode = modeProfile
		} else {
			m.mode = modeSignedOut
		}
		m.status = ""
	case "tab", "down":
		m.focus = m.nextField(1)
	case "shift+tab", "up":
		m.focus = m.nextField(-1)
	case "enter":
		return m.submit()
	default:
		f := &m.fields[m.focus]
		*f = editRune(*f, msg.String())
	}
	return m, nil
}

// nextField moves focus through the active form's visible fields.
func (m accountModel) nextField(dir int) authField {
	idx := 0
	for i, f := range m.order {
		if f == m.focus {
			idx = i
			break
		}
	}
	idx = (idx + dir + len(m.order)) % len(m.order)
	return m.order[idx]
}

func (m accountModel) submit() (accountModel, tea.Cmd) {
	username := strings.TrimSpace(m.fields[fieldUsername])
	password := m.fields[fieldPassword]

	switch m.mode {
	case modeLogin:
		if username == "" || password == "" {
			m.status = "username and password are required"
			return m, nil
		}
		m.submitted = true
		req := client.LoginRequest{Username: username, Password: password}
		c := m.client
		return m, func() tea.Msg {
			me, err := c.Login(context.Background(), req)
			return authDoneMsg{me: me, err: err}
		}

	case modeRegister:
		email := strings.TrimSpace(m.fields[fieldEmail])
		if username == "" || password == "" || email == "" {
			m.status = "username, email and password are required"
			return m, nil
		}
		m.submitted = true
		req := client.RegisterRequest{
			Username:  username,
			Email:     email,
			Password:  password,
			FirstName: strings.TrimSpace(m.fields[fieldFirstName]),
			LastName:  strings.TrimSpace(m.fields[fieldLastName]),
		}
		c := m.client
		return m, func() tea.Msg {
			me, err := c.Register(context.Background(), req)
			return authDoneMsg{me: me, err: err}
		}

	default: // modeEdit
		if m.me == nil {
			return m, nil
		}
		m.submitted = true
		u := *m.me
		u.FirstName = strings.TrimSpace(m.fields[fieldFirstName])
		u.LastName = strings.TrimSpace(m.fields[fieldLastName])
		u.Email = strings.TrimSpace(m.fields[fieldEmail])
		u.PhoneNumber = strings.TrimSpace(m.fields[fieldPhone])
		c := m.client
		return m, func() tea.Msg {
			me, err := c.UpdateProfile(context.Background(), u)
			return authDoneMsg{me: me, err: err}
		}
	}
}

func (m accountModel) View() string {
	var b strings.Builder

	switch m.mode {
	case modeSignedOut:
		b.WriteString(" " + dimStyle.Render("not signed in — beams work without an account,") + "\n")
		b.WriteString(" " + dimStyle.Render("sign in to save and share them") + "\n\n")
		b.WriteString(" " + helpEntry("l", "login") + "   " + helpEntry("n", "register") + "\n")

	case modeLogin, modeRegister, modeEdit:
		titles := map[accountMode]string{
			modeLogin:    "Sign in",
			modeRegister: "Create account",
			modeEdit:     "Edit profile",
		}
		b.WriteString(" " + sectionHeaderStyle.Render(titles[m.mode]) + "\n\n")
		for _, f := range m.order {
			label := authFieldLabels[f]
			value := m.fields[f]
			if f == fieldPassword {
				value = strings.Repeat("•", len([]rune(value)))
			}
			cursor := " "
			style := metaStyle
			if f == m.focus {
				cursor = ">"
				style = selectedStyle
				value += "█"
			}
			fmt.Fprintf(&b, " %s %s: %s\n", cursor, style.Render(fmt.Sprintf("%-10s", label)), value)
		}
		b.WriteString("\n")
		if m.submitted {
			b.WriteString(" " + dimStyle.Render("working...") + "\n")
		}

	case modeConfirmDelete:
		b.WriteString(" " + errStyle.Render("Delete this account and everything it saved?") + "\n\n")
		b.WriteString(" " + helpEntry("y", "yes, delete forever") + "   " + helpEntry("esc", "cancel") + "\n")

	case modeProfile:
		if m.me == nil {
			b.WriteString(" " + dimStyle.Render("loading profile...") + "\n")
			break
		}
		b.WriteString(" " + sectionHeaderStyle.Render("Account") + "\n\n")
		fmt.Fprintf(&b, "   %s %s\n", metaStyle.Render("name:    "), selectedStyle.Render(m.me.DisplayName()))
		fmt.Fprintf(&b, "   %s %s\n", metaStyle.Render("username:"), normalStyle.Render(m.me.Username))
		fmt.Fprintf(&b, "   %s %s\n", metaStyle.Render("email:   "), normalStyle.Render(m.me.Email))
		if m.me.PhoneNumber != "" {
			fmt.Fprintf(&b, "   %s %s\n", metaStyle.Render("phone:   "), normalStyle.Render(m.me.PhoneNumber))
		}
	}

	if m.status != "" {
		b.WriteString("\n " + warnStyle.Render(m.status) + "\n")
	}
	return b.String()
}
