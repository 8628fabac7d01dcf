package bundle

// bundle.go — output bundle for one compiled topology.
//
// Layout, relative to the output location:
//   <name>-config.xml   the coupling-runtime configuration
//   README.md           manifest frontmatter, participants, meshes, usage
//   run.sh              starts every participant (0755)
//   clean.sh            removes runtime leftovers (0755)
//
// Generate is pure; Write pushes a bundle through a Sink in sorted path
// order so repeated writes are identical. The README manifest carries the
// document hash, which Current uses to detect an unchanged bundle on disk.

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"topogen/internal/frontmatter"
	"topogen/internal/topology"
)

const (
	ReadmeFile = "README.md"
	RunFile    = "run.sh"
	CleanFile  = "clean.sh"
)

// File is one generated file.
type File struct {
	Data []byte
	Mode fs.FileMode
}

// Options selects what Generate includes.
type Options struct {
	// Artifacts adds README.md, run.sh and clean.sh next to the document.
	Artifacts bool
}

// Manifest is the YAML frontmatter of the generated README.md.
type Manifest struct {
	Topology     string   `yaml:"topology"`
	Config       string   `yaml:"config"`
	Scheme       string   `yaml:"scheme"`
	Participants []string `yaml:"participants"`
	Hash         string   `yaml:"hash"`
}

// Bundle holds generated files keyed by slash-separated relative path.
type Bundle struct {
	Name     string
	Manifest Manifest
	files    map[string]File
}

// Generate builds the bundle for m and its emitted document. No files are
// written.
func Generate(m *topology.Model, doc []byte, opts Options) (*Bundle, error) {
	name := sanitizeFilename(m.Name)
	if name == "" {
		name = topology.DefaultName
	}
	b := &Bundle{
		Name: name,
		Manifest: Manifest{
			Topology:     m.Name,
			Config:       ConfigFile(name),
			Scheme:       string(m.Coupling.Kind),
			Participants: m.ParticipantNames(),
			Hash:         hashOf(doc),
		},
		files: make(map[string]File),
	}
	b.files[ConfigFile(name)] = File{Data: doc, Mode: 0o644}

	if opts.Artifacts {
		readme, err := frontmatter.Write(b.Manifest, buildReadme(m, name))
		if err != nil {
			return nil, fmt.Errorf("readme for %s: %w", m.Name, err)
		}
		b.files[ReadmeFile] = File{Data: readme, Mode: 0o644}
		b.files[RunFile] = File{Data: []byte(buildRun(m, name)), Mode: 0o755}
		b.files[CleanFile] = File{Data: []byte(buildClean()), Mode: 0o755}
	}
	return b, nil
}

// ReadManifest decodes the manifest of a generated README.md.
func ReadManifest(readme []byte) (Manifest, error) {
	var m Manifest
	if _, err := frontmatter.Decode(readme, &m); err != nil {
		return m, err
	}
	return m, nil
}

// Current reports whether dir already holds b: its README manifest names
// the same configuration file with the same document hash, and the
// configuration file on disk hashes to that value. Bundles without a README
// are never current.
func Current(dir string, b *Bundle) bool {
	if _, ok := b.files[ReadmeFile]; !ok {
		return false
	}
	data, err := os.ReadFile(filepath.Join(dir, ReadmeFile))
	if err != nil {
		return false
	}
	have, err := ReadManifest(data)
	if err != nil || have.Hash != b.Manifest.Hash || have.Config != b.Manifest.Config {
		return false
	}
	doc, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(b.Manifest.Config)))
	if err != nil {
		return false
	}
	return hashOf(doc) == b.Manifest.Hash
}

func hashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ConfigFile returns the document file name for a topology name.
func ConfigFile(name string) string { return name + "-config.xml" }

// Paths returns the bundle's paths in sorted order.
func (b *Bundle) Paths() []string {
	paths := make([]string, 0, len(b.files))
	for p := range b.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// File returns the file stored at path.
func (b *Bundle) File(path string) (File, bool) {
	f, ok := b.files[path]
	return f, ok
}

// Sink persists bundle files.
type Sink interface {
	Put(ctx context.Context, path string, f File) error
}

// Write stores every file of b in sink, in sorted path order. It stops at
// the first failure.
func Write(ctx context.Context, b *Bundle, sink Sink) error {
	for _, p := range b.Paths() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sink.Put(ctx, p, b.files[p]); err != nil {
			return fmt.Errorf("write %s: %w", p, err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Artifact builders
// ---------------------------------------------------------------------------

func buildReadme(m *topology.Model, name string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# %s\n\n", m.Name))
	b.WriteString(fmt.Sprintf("Coupling configuration: `%s`\n\n", ConfigFile(name)))

	b.WriteString("## Participants\n\n")
	b.WriteString("| Participant | Provides | Receives | Reads | Writes |\n")
	b.WriteString("|-------------|----------|----------|-------|--------|\n")
	for _, p := range m.Participants {
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			p.Name, orDash(p.ProvidesMesh), list(p.ReceivesMeshes), list(p.ReadData), list(p.WriteData)))
	}

	b.WriteString("\n## Meshes\n\n")
	for _, mesh := range m.Meshes {
		b.WriteString(fmt.Sprintf("- %s (%dD): %s\n", mesh.Name, mesh.Dimensions, list(mesh.Data)))
	}

	c := m.Coupling
	b.WriteString("\n## Coupling\n\n")
	b.WriteString(fmt.Sprintf("- **Scheme**: %s\n", c.Kind))
	b.WriteString(fmt.Sprintf("- **Time window size**: %g\n", c.TimeWindowSize))
	b.WriteString(fmt.Sprintf("- **Max time**: %g\n", c.MaxTime))
	if len(c.Participants) == 2 {
		b.WriteString(fmt.Sprintf("- **First / second**: %s / %s\n", c.Participants[0], c.Participants[1]))
	}
	if len(c.Exchanges) > 0 {
		b.WriteString("\n| Data | Mesh | From | To |\n")
		b.WriteString("|------|------|------|----|\n")
		for _, ex := range c.Exchanges {
			b.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", ex.Data, ex.Mesh, ex.From, ex.To))
		}
	}

	b.WriteString("\n## Running\n\n")
	b.WriteString("```sh\n./run.sh     # start all participants\n./clean.sh   # remove run leftovers\n```\n")
	return b.String()
}

func buildRun(m *topology.Model, name string) string {
	var b strings.Builder
	b.WriteString("#!/usr/bin/env sh\n")
	b.WriteString("set -e -u\n\n")
	b.WriteString(fmt.Sprintf("CONFIG=\"$(dirname \"$0\")/%s\"\n\n", ConfigFile(name)))
	b.WriteString("# Each participant is started from its own directory with a run.sh of\n")
	b.WriteString("# its own that launches the solver against $CONFIG.\n")
	for _, p := range m.Participants {
		dir := sanitizeFilename(strings.ToLower(p.Name))
		b.WriteString(fmt.Sprintf("(cd \"$(dirname \"$0\")/%s\" && ./run.sh \"$CONFIG\") &\n", dir))
	}
	b.WriteString("wait\n")
	return b.String()
}

func buildClean() string {
	var b strings.Builder
	b.WriteString("#!/usr/bin/env sh\n")
	b.WriteString("set -e -u\n\n")
	b.WriteString("cd \"$(dirname \"$0\")\"\n")
	b.WriteString("rm -rf precice-run precice-profiling\n")
	b.WriteString("rm -f ./*.log ./*/*.log precice-*-events.json precice-*-iterations.log precice-*-convergence.log\n")
	return b.String()
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func list(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// sanitizeFilename replaces path separators, dots and spaces with -,
// collapses runs of - and trims them from both ends.
func sanitizeFilename(s string) string {
	s = strings.NewReplacer("/", "-", "\\", "-", ".", "-", " ", "-").Replace(s)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "-")
}
