package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCanceled is returned by Ask when the user quits without submitting.
var ErrCanceled = errors.New("prompt canceled")

var hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

// PromptModel is the bubbletea model behind Ask.
type PromptModel struct {
	field    *InputField
	task     string
	canceled bool
}

// NewPromptModel creates a prompt with a focused input field.
func NewPromptModel() PromptModel {
	return PromptModel{field: NewInputField()}
}

// Init implements tea.Model.
func (m PromptModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m PromptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.canceled = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.field.SetWidth(msg.Width)
		return m, nil
	case TaskSubmittedMsg:
		m.task = msg.Task
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.field, cmd = m.field.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m PromptModel) View() string {
	if m.task != "" || m.canceled {
		return ""
	}
	return m.field.View() + "\n" + hintStyle.Render("enter submit • esc quit") + "\n"
}

// Task returns the submitted task, empty until one is submitted.
func (m PromptModel) Task() string {
	return m.task
}

// Canceled reports whether the user quit without submitting.
func (m PromptModel) Canceled() bool {
	return m.canceled
}

// Ask runs the prompt on in/out and returns the submitted task.
func Ask(ctx context.Context, in io.Reader, out io.Writer) (string, error) {
	p := tea.NewProgram(NewPromptModel(),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("run prompt: %w", err)
	}

	m, ok := final.(PromptModel)
	if !ok {
		return "", fmt.Errorf("unexpected prompt model %T", final)
	}
	if m.canceled || m.task == "" {
		return "", ErrCanceled
	}
	return m.task, nil
}
