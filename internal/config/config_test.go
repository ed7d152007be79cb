package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"strings"
	"testing"
)

// MemFS is an in-memory file system for testing.
type MemFS struct {
	files map[string][]byte
}

func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string][]byte)}
}

func (m *MemFS) AddFile(path string, content string) {
	m.files[path] = []byte(content)
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

const tomlTree = `
[history]
root = "editor"
policy = "focus-priority"
max_entries = 200

[log]
level = "debug"

[[nodes]]
id = "scene"
kind = "group"
policy = "operation-log"

[[nodes]]
id = "mesh"
kind = "stack"
parent = "scene"
max_pending = 16

[[nodes]]
id = "camera"
kind = "stack"
max_entries = 50
`

const yamlTree = `
history:
  root: editor
  policy: focus-priority
  max_entries: 200
log:
  level: debug
nodes:
  - id: scene
    kind: group
    policy: operation-log
  - id: mesh
    kind: stack
    parent: scene
    max_pending: 16
  - id: camera
    kind: stack
    max_entries: 50
`

func TestLoadFormats(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/tree.toml", tomlTree)
	memfs.AddFile("/tree.yaml", yamlTree)
	memfs.AddFile("/tree.yml", yamlTree)

	for _, path := range []string{"/tree.toml", "/tree.yaml", "/tree.yml"} {
		t.Run(path, func(t *testing.T) {
			cfg, err := NewLoaderWithFS(memfs).Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}

			if cfg.History.Root != "editor" || cfg.History.Policy != "focus-priority" {
				t.Errorf("History = %+v", cfg.History)
			}
			if cfg.History.MaxEntries != 200 {
				t.Errorf("MaxEntries = %d, want 200", cfg.History.MaxEntries)
			}
			if cfg.Log.Level != "debug" {
				t.Errorf("Level = %q, want debug", cfg.Log.Level)
			}
			if len(cfg.Nodes) != 3 {
				t.Fatalf("len(Nodes) = %d, want 3", len(cfg.Nodes))
			}
			mesh := cfg.Nodes[1]
			if mesh.ID != "mesh" || mesh.Kind != KindStack || mesh.Parent != "scene" || mesh.MaxPending != 16 {
				t.Errorf("mesh = %+v", mesh)
			}
			if cfg.Nodes[2].ParentID(cfg.History.Root) != "editor" {
				t.Errorf("camera parent = %q, want editor", cfg.Nodes[2].ParentID(cfg.History.Root))
			}
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoaderWithFS(NewMemFS()).Load("/missing.toml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.History.Root != DefaultRoot || cfg.History.MaxEntries != 1000 {
		t.Errorf("cfg = %+v, want defaults", cfg.History)
	}

	cfg, err = NewLoaderWithFS(NewMemFS()).Load("")
	if err != nil || cfg.History.Root != DefaultRoot {
		t.Errorf("Load(\"\") = %+v, %v", cfg, err)
	}
}

func TestLoadKeepsDefaultsForUnsetKeys(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/small.toml", "[log]\nlevel = \"warn\"\n")

	cfg, err := NewLoaderWithFS(memfs).Load("/small.toml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.History.Root != DefaultRoot || cfg.History.Policy != "operation-log" {
		t.Errorf("History = %+v, want defaults", cfg.History)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Level = %q, want warn", cfg.Log.Level)
	}
}

func TestLoadEmptyYAML(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/empty.yaml", "")
	cfg, err := NewLoaderWithFS(memfs).Load("/empty.yaml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.History.Root != DefaultRoot {
		t.Errorf("Root = %q, want %q", cfg.History.Root, DefaultRoot)
	}
}

func TestLoadParseErrors(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/bad.toml", "[history\nroot = 1\n")
	memfs.AddFile("/bad.yaml", "history: [unclosed\n")
	memfs.AddFile("/unknown.toml", "[history]\nroots = \"x\"\n")
	memfs.AddFile("/unknown.yaml", "history:\n  roots: x\n")

	for _, path := range []string{"/bad.toml", "/bad.yaml", "/unknown.toml", "/unknown.yaml"} {
		_, err := NewLoaderWithFS(memfs).Load(path)
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("Load(%s) error = %v, want *ParseError", path, err)
			continue
		}
		if pe.Path != path {
			t.Errorf("ParseError.Path = %q, want %q", pe.Path, path)
		}
	}
}

func TestLoadTOMLErrorPosition(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/bad.toml", "[history]\nroot = \n")

	_, err := NewLoaderWithFS(memfs).Load("/bad.toml")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if pe.Line != 2 {
		t.Errorf("Line = %d, want 2", pe.Line)
	}
	if !strings.Contains(pe.Error(), "line 2") {
		t.Errorf("Error() = %q", pe.Error())
	}
}

func TestLoadUnknownFormat(t *testing.T) {
	_, err := NewLoaderWithFS(NewMemFS()).Load("/tree.json")
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("error = %v, want %v", err, ErrUnknownFormat)
	}
}

func TestLoadFromReader(t *testing.T) {
	cfg, err := NewLoader().LoadFromReader(strings.NewReader(yamlTree), FormatYAML)
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}
	if len(cfg.Nodes) != 3 {
		t.Errorf("len(Nodes) = %d, want 3", len(cfg.Nodes))
	}
}

func TestLoadFromReaderRejectsSelfParent(t *testing.T) {
	src := "[[nodes]]\nid = \"g\"\nkind = \"group\"\nparent = \"g\"\n"
	_, err := NewLoader().LoadFromReader(strings.NewReader(src), FormatTOML)
	if !errors.Is(err, ErrUnknownParent) {
		t.Errorf("LoadFromReader() error = %v, want %v", err, ErrUnknownParent)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		nodes []NodeConfig
		want  error
	}{
		{"missing id", []NodeConfig{{Kind: KindStack}}, ErrInvalidNode},
		{"bad kind", []NodeConfig{{ID: "a", Kind: "tree"}}, ErrInvalidNode},
		{"duplicate", []NodeConfig{{ID: "a", Kind: KindStack}, {ID: "a", Kind: KindStack}}, ErrDuplicateNode},
		{"root id reused", []NodeConfig{{ID: DefaultRoot, Kind: KindStack}}, ErrDuplicateNode},
		{"unknown parent", []NodeConfig{{ID: "a", Kind: KindStack, Parent: "nope"}}, ErrUnknownParent},
		{"parent is stack", []NodeConfig{{ID: "a", Kind: KindStack}, {ID: "b", Kind: KindStack, Parent: "a"}}, ErrUnknownParent},
		{"group is own parent", []NodeConfig{{ID: "g", Kind: KindGroup, Parent: "g"}}, ErrUnknownParent},
		{"parent declared later", []NodeConfig{{ID: "b", Kind: KindStack, Parent: "g"}, {ID: "g", Kind: KindGroup}}, ErrUnknownParent},
		{"stack policy", []NodeConfig{{ID: "a", Kind: KindStack, Policy: "focus"}}, ErrInvalidNode},
		{"bad group policy", []NodeConfig{{ID: "g", Kind: KindGroup, Policy: "timestamp"}}, ErrInvalidPolicy},
		{"valid", []NodeConfig{{ID: "g", Kind: KindGroup}, {ID: "a", Kind: KindStack, Parent: "g"}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Nodes = tt.nodes
			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidateHistory(t *testing.T) {
	cfg := Default()
	cfg.History.Policy = "timestamp"
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("Validate() error = %v, want %v", err, ErrInvalidPolicy)
	}

	cfg = Default()
	cfg.Log.Level = "loud"
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("Validate() error = %v, want %v", err, ErrInvalidLevel)
	}

	cfg = Default()
	cfg.History.Root = ""
	if err := cfg.Validate(); err != nil || cfg.History.Root != DefaultRoot {
		t.Errorf("Validate() = %v, root = %q", err, cfg.History.Root)
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := LogConfig{Level: tt.in}.SlogLevel()
		if err != nil || got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"a.toml", FormatTOML, false},
		{"a.TOML", FormatTOML, false},
		{"dir/a.yaml", FormatYAML, false},
		{"a.yml", FormatYAML, false},
		{"a.ini", "", true},
	}
	for _, tt := range tests {
		got, err := FormatFor(tt.path)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("FormatFor(%q) = %q, %v", tt.path, got, err)
		}
	}
}
