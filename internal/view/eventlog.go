package view

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/Swarm-Sense/internal/geom"
)

const (
	logPanelWidth = 300
	logMaxEntries = 60
	logLineHeight = 14
)

// EventKind colours an entry in the log panel.
type EventKind int

const (
	EventMode EventKind = iota
	EventCourse
	EventNearMiss
	EventContact
	EventStrike
)

var eventColors = map[EventKind]color.RGBA{
	EventMode:     {R: 150, G: 170, B: 150, A: 255},
	EventCourse:   {R: 230, G: 180, B: 40, A: 255},
	EventNearMiss: {R: 240, G: 120, B: 30, A: 255},
	EventContact:  {R: 230, G: 50, B: 50, A: 255},
	EventStrike:   {R: 200, G: 60, B: 200, A: 255},
}

// EventEntry is a single line in the event log.
type EventEntry struct {
	Tick    int
	Label   string // e.g. "A3"
	Kind    EventKind
	Message string
}

func (e EventEntry) String() string {
	return fmt.Sprintf("%4d [%s] %s", e.Tick, e.Label, e.Message)
}

// EventLog is a ring buffer of run events rendered on-screen. It doubles as
// a swarm.Recorder.
type EventLog struct {
	entries []EventEntry
	head    int
	count   int
}

// NewEventLog creates an event log with a fixed capacity.
func NewEventLog() *EventLog {
	return &EventLog{entries: make([]EventEntry, logMaxEntries)}
}

// Add appends an entry to the log, dropping the oldest when full.
func (l *EventLog) Add(tick int, label string, kind EventKind, msg string) {
	l.entries[l.head] = EventEntry{Tick: tick, Label: label, Kind: kind, Message: msg}
	l.head = (l.head + 1) % logMaxEntries
	if l.count < logMaxEntries {
		l.count++
	}
}

// Recent returns entries in chronological order (oldest first).
func (l *EventLog) Recent() []EventEntry {
	out := make([]EventEntry, l.count)
	for i := 0; i < l.count; i++ {
		idx := (l.head - l.count + i + logMaxEntries) % logMaxEntries
		out[i] = l.entries[idx]
	}
	return out
}

func (l *EventLog) CollisionCourse(tick, a, b int, at geom.Point) {
	l.Add(tick, label(a), EventCourse, fmt.Sprintf("course with %s at (%.1f,%.1f)", label(b), at.X(), at.Y()))
}

func (l *EventLog) NearMiss(tick, a, b int, separation float64) {
	l.Add(tick, label(a), EventNearMiss, fmt.Sprintf("dodged %s at %.2f", label(b), separation))
}

func (l *EventLog) Collision(tick, a, b int, separation float64) {
	l.Add(tick, label(a), EventContact, fmt.Sprintf("touched %s at %.2f", label(b), separation))
}

func (l *EventLog) ObstacleStrike(tick, agent, obstacle int) {
	l.Add(tick, label(agent), EventStrike, fmt.Sprintf("entered obstacle %d", obstacle))
}

func label(id int) string { return fmt.Sprintf("A%d", id) }

// Draw renders the panel at panelX.
func (l *EventLog) Draw(screen *ebiten.Image, face text.Face, panelX, panelH int) {
	vector.FillRect(screen, float32(panelX), 0, logPanelWidth, float32(panelH), color.RGBA{R: 10, G: 12, B: 14, A: 248}, false)
	vector.StrokeLine(screen, float32(panelX), 0, float32(panelX), float32(panelH), 1, color.RGBA{R: 50, G: 60, B: 70, A: 255}, false)
	vector.FillRect(screen, float32(panelX), 0, logPanelWidth, 18, color.RGBA{R: 20, G: 26, B: 32, A: 255}, false)
	drawText(screen, face, "EVENTS", panelX+8, 3, color.White)

	entries := l.Recent()
	maxVisible := (panelH - 24) / logLineHeight
	if len(entries) > maxVisible {
		entries = entries[len(entries)-maxVisible:]
	}
	y := 22
	for _, e := range entries {
		vector.FillRect(screen, float32(panelX+5), float32(y+4), 3, 6, eventColors[e.Kind], false)
		drawText(screen, face, e.String(), panelX+12, y, color.RGBA{R: 210, G: 215, B: 210, A: 255})
		y += logLineHeight
	}
}

func drawText(dst *ebiten.Image, face text.Face, s string, x, y int, c color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(c)
	text.Draw(dst, s, face, op)
}
