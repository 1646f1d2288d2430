// Package form is the keyboard front end: a terminal form with one input
// per complaint field, a review screen and a result screen.
//
// Screens:
//   - edit: Tab/Shift-Tab move between fields, Enter on the last field
//     opens the review
//   - review: shows the collected values and any missing field; "e" goes
//     back to editing, "s" saves
//   - done: the ticket ID and department, or why saving failed
//
// The model never touches storage itself; saving calls the injected
// SubmitFunc on a command goroutine.
package form

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"complaintdesk/internal/complaint"
	"complaintdesk/internal/desk"
)

// SubmitFunc records a completed form.
type SubmitFunc func(ctx context.Context, form complaint.Form) (desk.Receipt, error)

type screen int

const (
	screenEdit screen = iota
	screenReview
	screenSaving
	screenDone
)

// submittedMsg carries the result of a SubmitFunc call.
type submittedMsg struct {
	receipt desk.Receipt
	err     error
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle   = lipgloss.NewStyle().Width(24)
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	helpStyle    = lipgloss.NewStyle().Faint(true)
)

// Model is the bubbletea model of the complaint form.
type Model struct {
	ctx    context.Context
	submit SubmitFunc
	keys   KeyMap

	inputs []textinput.Model
	focus  int
	screen screen

	// invalid is the validation result shown on the review screen.
	invalid error

	receipt desk.Receipt
	err     error
}

// New creates a form model. ctx is passed to submit.
func New(ctx context.Context, submit SubmitFunc) Model {
	inputs := make([]textinput.Model, len(complaint.Questions))
	for i, q := range complaint.Questions {
		in := textinput.New()
		in.Placeholder = q.Field
		in.Prompt = "› "
		switch q.Field {
		case complaint.ColMobile:
			in.CharLimit = 16
		case complaint.ColDescription:
			in.CharLimit = 500
		default:
			in.CharLimit = 120
		}
		inputs[i] = in
	}
	inputs[0].Focus()
	inputs[0].PromptStyle = focusedStyle

	return Model{
		ctx:    ctx,
		submit: submit,
		keys:   DefaultKeyMap,
		inputs: inputs,
	}
}

// Init starts the cursor blinking.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Form returns the values entered so far.
func (m Model) Form() complaint.Form {
	var f complaint.Form
	for i, q := range complaint.Questions {
		f.Set(q.Field, m.inputs[i].Value())
	}
	return f
}

// Done reports whether saving has finished.
func (m Model) Done() bool {
	return m.screen == screenDone
}

// Result returns the saved receipt or the reason saving failed.
func (m Model) Result() (desk.Receipt, error) {
	return m.receipt, m.err
}

// Update handles key presses and the save result.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case submittedMsg:
		m.screen = screenDone
		m.receipt = msg.receipt
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		switch m.screen {
		case screenEdit:
			return m.updateEdit(msg)
		case screenReview:
			return m.updateReview(msg)
		case screenDone:
			if msg.Type == tea.KeyEnter || msg.String() == "q" {
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Next):
		cmd := m.setFocus(m.focus + 1)
		return m, cmd
	case key.Matches(msg, m.keys.Previous):
		cmd := m.setFocus(m.focus - 1)
		return m, cmd
	case key.Matches(msg, m.keys.Enter):
		if m.focus == len(m.inputs)-1 {
			m.inputs[m.focus].Blur()
			m.screen = screenReview
			m.invalid = complaint.Validate(m.Form())
			return m, nil
		}
		cmd := m.setFocus(m.focus + 1)
		return m, cmd
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) updateReview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Edit):
		m.screen = screenEdit
		cmd := m.setFocus(m.firstInvalid())
		return m, cmd
	case key.Matches(msg, m.keys.Save):
		if m.invalid != nil {
			return m, nil
		}
		m.screen = screenSaving
		return m, m.save(m.Form())
	}
	return m, nil
}

// setFocus moves the cursor to input i, wrapping around the ends.
func (m *Model) setFocus(i int) tea.Cmd {
	n := len(m.inputs)
	i = ((i % n) + n) % n
	m.inputs[m.focus].Blur()
	m.inputs[m.focus].PromptStyle = lipgloss.NewStyle()
	m.focus = i
	m.inputs[i].PromptStyle = focusedStyle
	return m.inputs[i].Focus()
}

func (m Model) firstInvalid() int {
	for i, q := range complaint.Questions {
		if complaint.ValidateField(q.Field, m.inputs[i].Value()) != nil {
			return i
		}
	}
	return 0
}

func (m Model) save(f complaint.Form) tea.Cmd {
	ctx, submit := m.ctx, m.submit
	return func() tea.Msg {
		receipt, err := submit(ctx, f)
		return submittedMsg{receipt: receipt, err: err}
	}
}

// View renders the current screen.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("📝 Register a complaint"))
	b.WriteString("\n\n")

	switch m.screen {
	case screenEdit:
		for i, q := range complaint.Questions {
			label := q.Field
			if i == m.focus {
				label = focusedStyle.Render(label)
			}
			b.WriteString(labelStyle.Render(label))
			b.WriteString(m.inputs[i].View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next • shift+tab previous • enter on last field to review • esc quit"))

	case screenReview:
		form := m.Form().Normalized()
		for _, q := range complaint.Questions {
			b.WriteString(labelStyle.Render(q.Field))
			b.WriteString(form.Get(q.Field))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if m.invalid != nil {
			b.WriteString(errorStyle.Render("⚠️  " + m.invalid.Error()))
			b.WriteString("\n")
			b.WriteString(helpStyle.Render("e edit • esc quit"))
		} else {
			b.WriteString(helpStyle.Render("s save • e edit • esc quit"))
		}

	case screenSaving:
		b.WriteString("💾 Saving...")

	case screenDone:
		if m.err != nil {
			b.WriteString(errorStyle.Render("❌ " + m.err.Error()))
		} else {
			rec := m.receipt.Record
			b.WriteString(okStyle.Render(fmt.Sprintf("✅ Complaint registered. Ticket ID: %s", rec.TicketID)))
			b.WriteString("\n")
			b.WriteString(fmt.Sprintf("Assigned to %s (urgency %s)", rec.Department, rec.UrgencyLevel))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter quit"))
	}

	b.WriteString("\n")
	return b.String()
}
