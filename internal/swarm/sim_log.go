package swarm

import (
	"fmt"
	"strings"

	"github.com/Garsondee/Swarm-Sense/internal/geom"
)

// SimLogEntry is one event of a headless run. Agent is a label such as "A3",
// or "--" for run-wide events.
type SimLogEntry struct {
	Tick     int
	Agent    string
	Category string // mode, flag, collision, proximity, obstacle, move, run
	Key      string
	Value    string
	NumVal   float64
}

// String renders the entry on one fixed-width line:
//
//	[T=042] A3   mode      change           forward-translating → dodging-obstacle
func (e SimLogEntry) String() string {
	return fmt.Sprintf("[T=%03d] %-4s %-9s %-16s %s", e.Tick, e.Agent, e.Category, e.Key, e.Value)
}

func (e SimLogEntry) matches(category, key, contains string) bool {
	return (category == "" || e.Category == category) &&
		(key == "" || e.Key == key) &&
		(contains == "" || strings.Contains(e.Value, contains))
}

// SimLog is the append-only event record of a run. Position samples are
// kept only in verbose mode.
type SimLog struct {
	entries []SimLogEntry
	verbose bool
}

// NewSimLog returns an empty log.
func NewSimLog(verbose bool) *SimLog {
	return &SimLog{verbose: verbose}
}

// Add appends an entry.
func (sl *SimLog) Add(tick int, agent, category, key, value string, numVal float64) {
	sl.entries = append(sl.entries, SimLogEntry{tick, agent, category, key, value, numVal})
}

// AddVerbose appends an entry in verbose mode and drops it otherwise.
func (sl *SimLog) AddVerbose(tick int, agent, category, key, value string, numVal float64) {
	if sl.verbose {
		sl.Add(tick, agent, category, key, value, numVal)
	}
}

// Entries returns the log in insertion order.
func (sl *SimLog) Entries() []SimLogEntry { return sl.entries }

// Find returns the entries whose category and key equal the given ones and
// whose value contains the substring. Empty arguments match anything.
func (sl *SimLog) Find(category, key, contains string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.matches(category, key, contains) {
			out = append(out, e)
		}
	}
	return out
}

// Has reports whether Find would return anything.
func (sl *SimLog) Has(category, key, contains string) bool {
	for _, e := range sl.entries {
		if e.matches(category, key, contains) {
			return true
		}
	}
	return false
}

// First returns the earliest matching entry.
func (sl *SimLog) First(category, key, contains string) (SimLogEntry, bool) {
	for _, e := range sl.entries {
		if e.matches(category, key, contains) {
			return e, true
		}
	}
	return SimLogEntry{}, false
}

// Last returns the latest matching entry.
func (sl *SimLog) Last(category, key string) (SimLogEntry, bool) {
	for i := len(sl.entries) - 1; i >= 0; i-- {
		if e := sl.entries[i]; e.matches(category, key, "") {
			return e, true
		}
	}
	return SimLogEntry{}, false
}

// Count returns the number of entries with this category and key.
func (sl *SimLog) Count(category, key string) int {
	n := 0
	for _, e := range sl.entries {
		if e.matches(category, key, "") {
			n++
		}
	}
	return n
}

// ForAgent returns the entries of one agent label.
func (sl *SimLog) ForAgent(label string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Agent == label {
			out = append(out, e)
		}
	}
	return out
}

// Format joins every entry, one per line.
func (sl *SimLog) Format() string {
	var sb strings.Builder
	for _, e := range sl.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Summary describes snap together with the run's counters.
func (sl *SimLog) Summary(snap Snapshot) string {
	modes := map[Mode]int{}
	arrived, frozen := 0, 0
	for _, a := range snap.Agents {
		modes[a.Mode]++
		if a.Flags&FlagApproached != 0 {
			arrived++
		}
		if a.Frozen {
			frozen++
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "T=%03d  %s=%d %s=%d %s=%d\n", snap.Tick,
		ModeForward, modes[ModeForward], ModeDodging, modes[ModeDodging], ModeHalting, modes[ModeHalting])
	fmt.Fprintf(&sb, "arrived %d/%d  frozen %d\n", arrived, len(snap.Agents), frozen)
	fmt.Fprintf(&sb, "courses %d  near misses %d  collisions %d  strikes %d\n",
		sl.Count("collision", "course"), sl.Count("proximity", "near_miss"),
		sl.Count("collision", "contact"), sl.Count("obstacle", "strike"))
	return sb.String()
}

// logRecorder mirrors counter hooks into a SimLog.
type logRecorder struct {
	log *SimLog
}

func (r logRecorder) CollisionCourse(tick, a, b int, at geom.Point) {
	r.log.Add(tick, labelOf(a), "collision", "course",
		fmt.Sprintf("with %s at (%.2f,%.2f)", labelOf(b), at.X(), at.Y()), at.Y())
}

func (r logRecorder) NearMiss(tick, a, b int, separation float64) {
	r.log.Add(tick, labelOf(a), "proximity", "near_miss",
		fmt.Sprintf("dodged %s at %.2f", labelOf(b), separation), separation)
}

func (r logRecorder) Collision(tick, a, b int, separation float64) {
	r.log.Add(tick, labelOf(a), "collision", "contact",
		fmt.Sprintf("touched %s at %.2f", labelOf(b), separation), separation)
}

func (r logRecorder) ObstacleStrike(tick, agent, obstacle int) {
	r.log.Add(tick, labelOf(agent), "obstacle", "strike",
		fmt.Sprintf("entered obstacle %d", obstacle), float64(obstacle))
}
