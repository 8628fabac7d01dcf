package main

// cli_test.go — Command dispatch and end-to-end command tests.
//
// Every test runs against an app bound to buffers and a temp working
// directory, with an empty environment and a scripted prompt.

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"topogen/internal/bundle"
	"topogen/internal/compiler"
	"topogen/internal/source"
)

const fluidSolid = `name: fluid-solid
data:
  - name: Temperature
    type: vector
meshes:
  - name: FluidMesh
    dimensions: 3
    data: [Temperature]
participants:
  - name: Fluid
    provides_mesh: FluidMesh
    write_data: [Temperature]
  - name: Solid
    receives_meshes: [FluidMesh]
    read_data: [Temperature]
coupling:
  type: serial-explicit
  time_window_size: 0.01
  max_time: 1.0
  participants: [Fluid, Solid]
  exchanges:
    - {data: Temperature, mesh: FluidMesh, from: Fluid, to: Solid}
`

const danglingData = `name: broken
meshes:
  - name: M
    data: [Heat]
participants:
  - name: A
    provides_mesh: M
  - name: B
coupling:
  participants: [A, B]
`

type testApp struct {
	*app
	out *bytes.Buffer
	err *bytes.Buffer
}

func newTestApp(t *testing.T, answers ...string) testApp {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	a := &app{
		stdout:    out,
		stderr:    errOut,
		stdin:     strings.NewReader(""),
		dir:       t.TempDir(),
		lookupEnv: func(string) (string, bool) { return "", false },
	}
	a.prompt = func(qs []question) (map[string]string, error) {
		got := make(map[string]string)
		for i, q := range qs {
			if i < len(answers) {
				got[q.Key] = answers[i]
			}
		}
		return got, nil
	}
	return testApp{app: a, out: out, err: errOut}
}

func (ta testApp) write(t *testing.T, rel, content string) string {
	t.Helper()
	p := filepath.Join(ta.dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// ---------------------------------------------------------------------------
// Dispatch and help
// ---------------------------------------------------------------------------

func helpText() string {
	var sb strings.Builder
	printUsage(&sb)
	return sb.String()
}

func longHelpText(name string) string {
	var sb strings.Builder
	printCommandHelp(&sb, name)
	return sb.String()
}

func TestHelpContainsAllCommands(t *testing.T) {
	help := helpText()
	require.Contains(t, help, "Usage:")
	for _, cmd := range commands {
		require.Contains(t, help, cmd.name)
		require.Contains(t, help, cmd.short)
	}
}

func TestLongHelpForKnownCommands(t *testing.T) {
	for _, cmd := range commands {
		t.Run(cmd.name, func(t *testing.T) {
			require.Contains(t, longHelpText(cmd.name), cmd.usage)
		})
	}
	require.Contains(t, longHelpText("no-such-command"), "unknown command")
}

func TestDispatchHelp(t *testing.T) {
	for _, args := range [][]string{nil, {"--help"}, {"-h"}, {"help"}, {"help", "generate"}} {
		ta := newTestApp(t)
		require.NoError(t, dispatch(ta.app, args), "args %v", args)
		require.NotEmpty(t, ta.out.String())
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	err := dispatch(newTestApp(t).app, []string{"no-such-command-xyz"})
	require.ErrorContains(t, err, "unknown command")
}

func TestSubcommandBadArgsGivesUsage(t *testing.T) {
	for _, name := range []string{"validate", "generate", "read", "roundtrip", "batch"} {
		t.Run(name, func(t *testing.T) {
			err := dispatch(newTestApp(t).app, []string{name})
			require.Error(t, err)
			require.Contains(t, err.Error(), "usage: topogen "+name)
		})
	}
}

func TestCommandsHaveRequiredFields(t *testing.T) {
	require.NotEmpty(t, commands)
	for _, cmd := range commands {
		require.NotEmpty(t, cmd.name)
		require.NotEmpty(t, cmd.short, cmd.name)
		require.NotEmpty(t, cmd.usage, cmd.name)
		require.NotNil(t, cmd.run, cmd.name)
	}
}

// ---------------------------------------------------------------------------
// validate
// ---------------------------------------------------------------------------

func TestValidate(t *testing.T) {
	ta := newTestApp(t)
	good := ta.write(t, "good.yaml", fluidSolid)
	bad := ta.write(t, "bad.yaml", danglingData)

	require.NoError(t, dispatch(ta.app, []string{"validate", good}))
	require.Contains(t, ta.out.String(), "✅ "+good+": valid")

	ta.out.Reset()
	err := dispatch(ta.app, []string{"validate", good, bad})
	require.ErrorIs(t, err, errReported)
	out := ta.out.String()
	require.Contains(t, out, "[DanglingMeshReference]")
	require.Contains(t, out, "2 topologies, 1 failed")
}

// ---------------------------------------------------------------------------
// generate
// ---------------------------------------------------------------------------

func TestGenerateWritesBundle(t *testing.T) {
	ta := newTestApp(t)
	in := ta.write(t, "fsi.yaml", fluidSolid)

	require.NoError(t, dispatch(ta.app, []string{"generate", "-o", "out", in}))
	dir := filepath.Join(ta.dir, "out")
	doc, err := os.ReadFile(filepath.Join(dir, "fluid-solid-config.xml"))
	require.NoError(t, err)
	require.Contains(t, string(doc), `<participants first="Fluid" second="Solid" />`)
	for _, f := range []string{bundle.ReadmeFile, bundle.RunFile, bundle.CleanFile} {
		require.FileExists(t, filepath.Join(dir, f))
	}
	require.Contains(t, ta.out.String(), "wrote "+filepath.Join(dir, "fluid-solid-config.xml"))

	// An unchanged topology leaves the bundle alone.
	ta.out.Reset()
	require.NoError(t, dispatch(ta.app, []string{"generate", "-o", "out", in}))
	require.Contains(t, ta.out.String(), "up to date")
	require.NoFileExists(t, filepath.Join(dir, "fluid-solid-config.xml.bak"))

	// A changed one refuses to replace files unless asked.
	ta.write(t, "fsi.yaml", strings.Replace(fluidSolid, "max_time: 1.0", "max_time: 2.0", 1))
	err = dispatch(ta.app, []string{"generate", "-o", "out", in})
	require.ErrorIs(t, err, bundle.ErrExists)

	require.NoError(t, dispatch(ta.app, []string{"generate", "-o", "out", "--overwrite", in}))
	require.FileExists(t, filepath.Join(dir, "fluid-solid-config.xml.bak"))
	doc, err = os.ReadFile(filepath.Join(dir, "fluid-solid-config.xml"))
	require.NoError(t, err)
	require.Contains(t, string(doc), `<max-time value="2" />`)
}

func TestGenerateDryRun(t *testing.T) {
	ta := newTestApp(t)
	in := ta.write(t, "fsi.yaml", fluidSolid)

	require.NoError(t, dispatch(ta.app, []string{"generate", "--dry-run", "-o", "out", in}))
	require.True(t, strings.HasPrefix(ta.out.String(), `<?xml version="1.0" encoding="UTF-8"?>`))
	require.NoDirExists(t, filepath.Join(ta.dir, "out"))
}

func TestGenerateNoArtifacts(t *testing.T) {
	ta := newTestApp(t)
	in := ta.write(t, "fsi.yaml", fluidSolid)

	require.NoError(t, dispatch(ta.app, []string{"generate", "--no-artifacts", "--output", "out", in}))
	entries, err := os.ReadDir(filepath.Join(ta.dir, "out"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "fluid-solid-config.xml", entries[0].Name())
}

func TestGenerateSettingsFile(t *testing.T) {
	ta := newTestApp(t)
	in := ta.write(t, "fsi.yaml", fluidSolid)
	ta.write(t, ".topogen/settings.yaml", "output_dir: configured\nartifacts: false\n")

	require.NoError(t, dispatch(ta.app, []string{"generate", in}))
	require.FileExists(t, filepath.Join(ta.dir, "configured", "fluid-solid-config.xml"))
	require.NoFileExists(t, filepath.Join(ta.dir, "configured", bundle.RunFile))
}

func TestGenerateInvalid(t *testing.T) {
	ta := newTestApp(t)
	in := ta.write(t, "bad.yaml", danglingData)

	err := dispatch(ta.app, []string{"generate", "-o", "out", in})
	require.ErrorIs(t, err, errReported)
	require.Contains(t, ta.err.String(), "[DanglingMeshReference]")
	require.NoDirExists(t, filepath.Join(ta.dir, "out"))
}

func TestGeneratePublishNeedsBucket(t *testing.T) {
	ta := newTestApp(t)
	in := ta.write(t, "fsi.yaml", fluidSolid)

	err := dispatch(ta.app, []string{"generate", "-o", "out", "--publish", in})
	require.ErrorContains(t, err, "publish: s3 endpoint is required")
	// The local bundle is written before publishing.
	require.FileExists(t, filepath.Join(ta.dir, "out", "fluid-solid-config.xml"))
}

// ---------------------------------------------------------------------------
// read / roundtrip
// ---------------------------------------------------------------------------

func TestReadGeneratedDocument(t *testing.T) {
	ta := newTestApp(t)
	in := ta.write(t, "fsi.yaml", fluidSolid)
	require.NoError(t, dispatch(ta.app, []string{"generate", "--no-artifacts", "-o", "out", in}))

	ta.out.Reset()
	require.NoError(t, dispatch(ta.app, []string{"read", filepath.Join("out", "fluid-solid-config.xml")}))
	yamlOut := ta.out.String()
	require.Contains(t, yamlOut, "name: fluid-solid\n")
	require.Contains(t, yamlOut, "provides_mesh: FluidMesh")

	// The recovered topology compiles to the same document.
	res, err := compiler.Compile("read.yaml", []byte(yamlOut), source.FormatYAML, compiler.Options{})
	require.NoError(t, err)
	doc, err := os.ReadFile(filepath.Join(ta.dir, "out", "fluid-solid-config.xml"))
	require.NoError(t, err)
	require.Equal(t, string(doc), string(res.Document))

	require.NoError(t, dispatch(ta.app, []string{"read", "--name", "renamed", "-o", "back.yaml", filepath.Join("out", "fluid-solid-config.xml")}))
	back, err := os.ReadFile(filepath.Join(ta.dir, "back.yaml"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(back), "name: renamed\n"))
}

func TestReadBadDocument(t *testing.T) {
	ta := newTestApp(t)
	ta.write(t, "bad.xml", "<not-a-config/>")
	err := dispatch(ta.app, []string{"read", "bad.xml"})
	require.ErrorContains(t, err, "root element")
}

func TestRoundTrip(t *testing.T) {
	ta := newTestApp(t)
	in := ta.write(t, "fsi.yaml", fluidSolid)
	require.NoError(t, dispatch(ta.app, []string{"roundtrip", in}))
	require.Contains(t, ta.out.String(), "round trip ok: fluid-solid")

	bad := ta.write(t, "bad.yaml", danglingData)
	require.ErrorIs(t, dispatch(ta.app, []string{"roundtrip", bad}), errReported)
}

// ---------------------------------------------------------------------------
// batch
// ---------------------------------------------------------------------------

func TestBatch(t *testing.T) {
	ta := newTestApp(t)
	ta.write(t, "cases/a/fsi.yaml", fluidSolid)
	ta.write(t, "cases/b/broken.yaml", danglingData)
	ta.write(t, "cases/drafts/wip.yaml", "name: [")
	ta.write(t, ".topogen/settings.yaml", "ignore:\n  - \"Read(./drafts/**)\"\n")

	err := dispatch(ta.app, []string{"batch", "--workers", "2", "-o", "out", "cases"})
	require.ErrorIs(t, err, errReported)
	out := ta.out.String()
	require.Contains(t, out, "✅ a/fsi.yaml: valid")
	require.Contains(t, out, "❌ b/broken.yaml: 1 error")
	require.Contains(t, out, "2 topologies, 1 failed")
	require.NotContains(t, out, "wip.yaml")
	require.FileExists(t, filepath.Join(ta.dir, "out", "fluid-solid", "fluid-solid-config.xml"))
}

func TestBatchEmpty(t *testing.T) {
	ta := newTestApp(t)
	require.NoError(t, os.MkdirAll(filepath.Join(ta.dir, "empty"), 0o755))
	require.NoError(t, dispatch(ta.app, []string{"batch", "empty"}))
	require.Contains(t, ta.out.String(), "no topologies")
}

// ---------------------------------------------------------------------------
// init
// ---------------------------------------------------------------------------

func TestInit(t *testing.T) {
	ta := newTestApp(t, "cht", "Heater", "Plate", "HeatFlux")
	require.NoError(t, dispatch(ta.app, []string{"init", "cht.yaml"}))
	require.Contains(t, ta.out.String(), `created topology "cht"`)

	path := filepath.Join(ta.dir, "cht.yaml")
	res, err := compiler.CompileFile(path, compiler.Options{})
	require.NoError(t, err)
	require.Equal(t, "cht", res.Model.Name)
	require.Equal(t, []string{"Heater", "Plate"}, res.Model.Coupling.Participants)
	require.Equal(t, "HeaterMesh", res.Model.Participants[0].ProvidesMesh)

	err = dispatch(ta.app, []string{"init", "cht.yaml"})
	require.ErrorContains(t, err, "already exists")
	require.NoError(t, dispatch(ta.app, []string{"init", "--force", "cht.yaml"}))
}

func TestInitDefaults(t *testing.T) {
	ta := newTestApp(t)
	require.NoError(t, dispatch(ta.app, []string{"init"}))
	res, err := compiler.CompileFile(filepath.Join(ta.dir, "topology.yaml"), compiler.Options{})
	require.NoError(t, err)
	require.Equal(t, "fsi", res.Model.Name)
	require.Equal(t, []string{"Fluid", "Solid"}, res.Model.Coupling.Participants)
}

func TestInitRejectsSameParticipants(t *testing.T) {
	ta := newTestApp(t, "x", "A", "A")
	err := dispatch(ta.app, []string{"init"})
	require.ErrorContains(t, err, "different names")
	require.NoFileExists(t, filepath.Join(ta.dir, "topology.yaml"))
}

func TestInitRejectsUnknownExtension(t *testing.T) {
	err := dispatch(newTestApp(t).app, []string{"init", "topology.toml"})
	require.Error(t, err)

	err = dispatch(newTestApp(t).app, []string{"init", "topology.json"})
	require.ErrorContains(t, err, "init writes YAML")
}

func TestPromptLines(t *testing.T) {
	var w bytes.Buffer
	answers, err := promptLines(strings.NewReader("cht\n\n  Plate  \n"), &w, initQuestions)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"name": "cht", "first": "", "second": "Plate"}, answers)
	require.Contains(t, w.String(), "Topology name [fsi]: ")
}

func TestPromptModel(t *testing.T) {
	qs := []question{{Key: "a", Prompt: "A", Default: "x"}, {Key: "b", Prompt: "B", Default: "y"}}
	var m tea.Model = newPromptModel(qs)
	require.Contains(t, m.View(), "[1/2] A [x]: ")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("abc")})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Contains(t, m.View(), "  A: abc\n")
	require.Contains(t, m.View(), "[2/2] B [y]: ")

	// Up goes back with the previous answer in the input.
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	require.Contains(t, m.View(), "[1/2] A [x]: ")
	require.Equal(t, "abc", m.(promptModel).input.Value())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	// A blank answer takes the default.
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	final := m.(promptModel)
	require.True(t, final.done)
	require.Empty(t, final.View())
	require.Equal(t, map[string]string{"a": "abc", "b": "y"}, final.answers())

	cancelled, _ := newPromptModel(qs).Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.False(t, cancelled.(promptModel).done)
}
