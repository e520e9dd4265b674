package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Garsondee/Swarm-Sense/internal/swarm"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, "gate.yaml", `
width: 20
height: 50
population: 8
seed: 42
obstacles:
  - {x: 0, y: 25, w: 8, h: 2}
  - {x: 12, y: 25, w: 8, h: 2}
target: {x: 10, y: 44, radius: 4}
config:
  nominal_speed: 0.25
  arbitration: distress
`)
	s, err := NewLoader().LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if s.Name != "gate" {
		t.Fatalf("expected name from file, got %q", s.Name)
	}
	if s.Population != 8 || s.Seed != 42 || len(s.Obstacles) != 2 {
		t.Fatalf("unexpected scenario: %+v", s)
	}
	if s.Target == nil || s.Target.Radius != 4 {
		t.Fatalf("expected target radius 4, got %+v", s.Target)
	}
	cfg, err := s.SwarmConfig()
	if err != nil {
		t.Fatalf("SwarmConfig: %v", err)
	}
	if cfg.NominalSpeed != 0.25 || cfg.Arbitration != swarm.ArbitrationDistress {
		t.Fatalf("overrides not applied: speed=%v arbitration=%s", cfg.NominalSpeed, cfg.Arbitration)
	}
	if cfg.AgentRadius != swarm.DefaultConfig().AgentRadius {
		t.Fatal("unset overrides must keep defaults")
	}
}

func TestLoadFile_JSONAndTOMLAgree(t *testing.T) {
	jsonPath := writeFile(t, "s.json", `{"name":"x","population":3,"obstacles":[{"x":3,"y":25,"w":14,"h":4}]}`)
	tomlPath := writeFile(t, "s.toml", `
name = "x"
population = 3

[[obstacles]]
x = 3.0
y = 25.0
w = 14.0
h = 4.0
`)
	l := NewLoader()
	fromJSON, err := l.LoadFile(jsonPath)
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	fromTOML, err := l.LoadFile(tomlPath)
	if err != nil {
		t.Fatalf("toml: %v", err)
	}
	if fromJSON.Width != DefaultWidth || fromTOML.Height != DefaultHeight {
		t.Fatal("missing field size should default to 20x50")
	}
	if fromJSON.Obstacles[0] != fromTOML.Obstacles[0] || fromJSON.Population != fromTOML.Population {
		t.Fatalf("formats disagree: %+v vs %+v", fromJSON, fromTOML)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	l := NewLoader()
	if _, err := l.LoadFile(filepath.Join(t.TempDir(), "none.yaml")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := l.LoadFile("scenario.ini"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	bad := writeFile(t, "bad.yaml", "width: [oops")
	if _, err := l.LoadFile(bad); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	empty := writeFile(t, "empty.yaml", "obstacles:\n  - {x: 1, y: 1, w: 0, h: 2}\n")
	if _, err := l.LoadFile(empty); !errors.Is(err, ErrInvalidScenario) {
		t.Fatalf("expected ErrInvalidScenario, got %v", err)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("SWARM_POP", "12")
	l := NewLoader()
	s, err := l.LoadString("population: ${SWARM_POP}\nseed: ${SWARM_SEED:-7}\n", FormatYAML)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	if s.Population != 12 || s.Seed != 7 {
		t.Fatalf("expected population 12 seed 7, got %d %d", s.Population, s.Seed)
	}

	l.StrictEnv = true
	if _, err := l.LoadString("population: ${SWARM_UNSET_FOR_TEST}\n", FormatYAML); !errors.Is(err, ErrMissingEnvVar) {
		t.Fatalf("expected ErrMissingEnvVar, got %v", err)
	}
}

func TestBuiltins(t *testing.T) {
	names := Names()
	want := []string{"a", "a2", "b", "c", "d", "e", "f"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("expected %v, got %v", want, names)
		}
		s, err := Builtin(n)
		if err != nil {
			t.Fatalf("Builtin(%s): %v", n, err)
		}
		if err := s.Validate(); err != nil {
			t.Fatalf("builtin %s invalid: %v", n, err)
		}
	}
	if _, err := Builtin("z"); !errors.Is(err, ErrUnknownScenario) {
		t.Fatalf("expected ErrUnknownScenario, got %v", err)
	}
}

func TestBuiltin_IsACopy(t *testing.T) {
	s, _ := Builtin("a")
	s.Obstacles[0].X = 99
	again, _ := Builtin("a")
	if again.Obstacles[0].X == 99 {
		t.Fatal("builtin obstacles must not be shared")
	}
}

func TestScenario_NewSim(t *testing.T) {
	s, _ := Builtin("e")
	sim, err := s.WithPopulation(4).NewSim(swarm.WithSeed(9))
	if err != nil {
		t.Fatalf("NewSim: %v", err)
	}
	if got := len(sim.World.Agents()); got != 4 {
		t.Fatalf("expected 4 agents, got %d", got)
	}
	if got := len(sim.World.Obstacles()); got != 1 {
		t.Fatalf("expected 1 obstacle, got %d", got)
	}
}

func TestScenario_BadOverride(t *testing.T) {
	s, _ := Builtin("f")
	s.Config.Arbitration = "vote"
	if _, err := s.Options(); !errors.Is(err, swarm.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	if s, err := Resolve("c", nil); err != nil || s.Name != "c" {
		t.Fatalf("expected builtin c, got %+v %v", s, err)
	}
	path := writeFile(t, "custom.yaml", "population: 2\n")
	s, err := Resolve(path, nil)
	if err != nil || s.Name != "custom" {
		t.Fatalf("expected custom file, got %+v %v", s, err)
	}
}
