package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"topogen/internal/compiler"
	"topogen/internal/source"
	"topogen/internal/topology"
)

// question is one init prompt. An empty answer takes Default.
type question struct {
	Key     string
	Prompt  string
	Default string
}

var initQuestions = []question{
	{Key: "name", Prompt: "Topology name", Default: "fsi"},
	{Key: "first", Prompt: "First participant", Default: "Fluid"},
	{Key: "second", Prompt: "Second participant", Default: "Solid"},
	{Key: "data", Prompt: "Data field sent from first to second", Default: "Force"},
}

// ---------------------------------------------------------------------------
// init
// ---------------------------------------------------------------------------

func runInit(a *app, args []string) error {
	fs := a.newFlagSet("init")
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("usage: topogen init [--force] [path]")
	}
	path := "topology.yaml"
	if fs.NArg() == 1 {
		path = fs.Arg(0)
	}
	f, err := source.FormatOf(path)
	if err != nil {
		return err
	}
	if f != source.FormatYAML {
		return fmt.Errorf("init writes YAML; use a .yaml or .yml path, got %s", path)
	}
	abs := a.abs(path)
	if _, err := os.Stat(abs); err == nil && !*force {
		return fmt.Errorf("%s already exists (use --force to replace it)", path)
	}

	answers, err := a.prompt(initQuestions)
	if err != nil {
		return fmt.Errorf("prompt: %w", err)
	}
	m := scaffold(answers)
	if m.Coupling.Participants[0] == m.Coupling.Participants[1] {
		return fmt.Errorf("participants must have different names, got %q twice", m.Coupling.Participants[0])
	}
	data, err := topology.Marshal(m)
	if err != nil {
		return err
	}
	// Refuse to write a scaffold that would not compile, e.g. when a name
	// collides with a generated mesh name.
	if _, err := compiler.Compile(path, data, source.FormatYAML, compiler.Options{ValidateOnly: true}); err != nil {
		return fmt.Errorf("scaffold is not valid: %w", err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(a.stdout, "created topology %q at %s\n", m.Name, path)
	return nil
}

// scaffold builds a two-participant topology: the first participant
// provides a mesh and writes the data field, the second receives the mesh
// and reads it.
func scaffold(answers map[string]string) *topology.Model {
	get := func(key string) string {
		if v := strings.TrimSpace(answers[key]); v != "" {
			return v
		}
		for _, q := range initQuestions {
			if q.Key == key {
				return q.Default
			}
		}
		return ""
	}
	first, second, field := get("first"), get("second"), get("data")
	mesh := first + "Mesh"

	return &topology.Model{
		Name: get("name"),
		Data: []topology.DataDecl{{Name: field, Kind: topology.DataVector}},
		Meshes: []topology.MeshDecl{
			{Name: mesh, Dimensions: topology.DefaultDimensions, Data: []string{field}},
		},
		Participants: []topology.ParticipantDecl{
			{
				Name:              first,
				ProvidesMesh:      mesh,
				WriteData:         []string{field},
				MappingKind:       topology.MappingRBF,
				MappingConstraint: topology.DefaultMappingConstraint,
			},
			{
				Name:              second,
				ReceivesMeshes:    []string{mesh},
				ReadData:          []string{field},
				MappingKind:       topology.MappingRBF,
				MappingConstraint: topology.DefaultMappingConstraint,
			},
		},
		Coupling: topology.CouplingScheme{
			Kind:           topology.SerialExplicit,
			TimeWindowSize: topology.DefaultTimeWindowSize,
			MaxTime:        topology.DefaultMaxTime,
			Participants:   []string{first, second},
			Exchanges: []topology.Exchange{
				{Data: field, Mesh: mesh, From: first, To: second},
			},
		},
	}
}

// ---------------------------------------------------------------------------
// Prompt helpers
// ---------------------------------------------------------------------------

// promptLines asks each question on w and reads one answer per line from r.
// End of input leaves the remaining answers empty.
func promptLines(r io.Reader, w io.Writer, questions []question) (map[string]string, error) {
	sc := bufio.NewScanner(r)
	answers := make(map[string]string, len(questions))
	for _, q := range questions {
		fmt.Fprintf(w, "%s [%s]: ", q.Prompt, q.Default)
		if !sc.Scan() {
			break
		}
		answers[q.Key] = strings.TrimSpace(sc.Text())
	}
	fmt.Fprintln(w)
	return answers, sc.Err()
}

// promptModel walks the init questions with a single text input. Enter
// records the answer (or the default when left blank) and moves on; Up
// returns to the previous question with its answer restored.
type promptModel struct {
	questions []question
	given     []string
	input     textinput.Model
	done      bool
}

func newPromptModel(questions []question) promptModel {
	ti := textinput.New()
	ti.CharLimit = 128
	ti.Prompt = ""
	m := promptModel{questions: questions, input: ti}
	m.input.Focus()
	m.reset()
	return m
}

// reset prepares the input for the current question.
func (m *promptModel) reset() {
	m.input.SetValue("")
	if len(m.given) < len(m.questions) {
		m.input.Placeholder = m.questions[len(m.given)].Default
	}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || m.done {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyUp:
		if n := len(m.given); n > 0 {
			prev := m.given[n-1]
			m.given = m.given[:n-1]
			m.reset()
			m.input.SetValue(prev)
		}
		return m, nil
	case tea.KeyEnter:
		q := m.questions[len(m.given)]
		answer := strings.TrimSpace(m.input.Value())
		if answer == "" {
			answer = q.Default
		}
		m.given = append(m.given, answer)
		if len(m.given) == len(m.questions) {
			m.done = true
			return m, tea.Quit
		}
		m.reset()
		return m, textinput.Blink
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.done || len(m.questions) == 0 {
		return ""
	}
	var b strings.Builder
	for i, a := range m.given {
		fmt.Fprintf(&b, "  %s: %s\n", m.questions[i].Prompt, a)
	}
	q := m.questions[len(m.given)]
	fmt.Fprintf(&b, "[%d/%d] %s [%s]: %s\n", len(m.given)+1, len(m.questions), q.Prompt, q.Default, m.input.View())
	if len(m.given) > 0 {
		b.WriteString("(up: previous question, esc: cancel)\n")
	}
	return b.String()
}

func (m promptModel) answers() map[string]string {
	out := make(map[string]string, len(m.given))
	for i, a := range m.given {
		out[m.questions[i].Key] = a
	}
	return out
}

// errPromptCancelled is returned when the user leaves the prompt early.
var errPromptCancelled = errors.New("prompt cancelled")

// promptTUI runs the interactive prompt on the terminal.
func promptTUI(questions []question) (map[string]string, error) {
	if len(questions) == 0 {
		return map[string]string{}, nil
	}
	result, err := tea.NewProgram(newPromptModel(questions)).Run()
	if err != nil {
		return nil, err
	}
	final, ok := result.(promptModel)
	if !ok || !final.done {
		return nil, errPromptCancelled
	}
	return final.answers(), nil
}
