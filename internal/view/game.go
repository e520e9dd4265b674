// Package view renders a swarm run with ebiten: the field, obstacles, the
// target formation and every agent coloured by mode, plus an event log and
// a HUD.
package view

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/Garsondee/Swarm-Sense/internal/geom"
	"github.com/Garsondee/Swarm-Sense/internal/swarm"
)

// borderWidth is the pixel gap between the window edge and the field.
const borderWidth = 24

var (
	colFieldBg   = color.RGBA{R: 22, G: 30, B: 24, A: 255}
	colGrid      = color.RGBA{R: 34, G: 44, B: 36, A: 255}
	colObstacle  = color.RGBA{R: 120, G: 92, B: 60, A: 255}
	colTarget    = color.RGBA{R: 60, G: 120, B: 200, A: 90}
	colSlot      = color.RGBA{R: 120, G: 170, B: 230, A: 200}
	colSafety    = color.RGBA{R: 240, G: 200, B: 60, A: 220}
	colForward   = color.RGBA{R: 90, G: 200, B: 110, A: 255}
	colDodging   = color.RGBA{R: 240, G: 170, B: 40, A: 255}
	colHalting   = color.RGBA{R: 140, G: 140, B: 140, A: 255}
	colApproach  = color.RGBA{R: 90, G: 160, B: 240, A: 255}
	colAvoiding  = color.RGBA{R: 230, G: 60, B: 60, A: 255}
	colFrozenRim = color.RGBA{R: 180, G: 220, B: 255, A: 255}
)

// speeds are the selectable simulation multipliers.
var speeds = []float64{0, 0.5, 1, 2, 4, 8}

// Game drives a Sim one frame at a time.
type Game struct {
	sim    *swarm.Sim
	events *EventLog
	face   text.Face
	copyFn func(string) error

	scale      float64 // pixels per world unit
	fieldW     int
	fieldH     int
	width      int
	height     int
	budget     int
	prevModes  []swarm.Mode
	prevFlags  []swarm.Flag
	simSpeed   float64
	tickAccum  float64
	showHUD    bool
	showSlots  bool
	prevKeys   map[ebiten.Key]bool
	status     string
	statusTick int
}

// Option customises a Game.
type Option func(*Game)

// WithScale sets the pixels drawn per world unit.
func WithScale(s float64) Option {
	return func(g *Game) {
		if s > 0 {
			g.scale = s
		}
	}
}

// WithBudget stops stepping after n ticks.
func WithBudget(n int) Option {
	return func(g *Game) { g.budget = n }
}

// WithEventLog routes events into an existing log. The log must also be
// registered as a recorder on the Sim to receive counter events.
func WithEventLog(l *EventLog) Option {
	return func(g *Game) {
		if l != nil {
			g.events = l
		}
	}
}

// New wraps sim in a renderer.
func New(sim *swarm.Sim, opts ...Option) *Game {
	g := &Game{
		sim:       sim,
		events:    NewEventLog(),
		face:      text.NewGoXFace(basicfont.Face7x13),
		copyFn:    clipboard.WriteAll,
		scale:     14,
		budget:    5000,
		simSpeed:  1,
		showHUD:   true,
		showSlots: true,
		prevKeys:  make(map[ebiten.Key]bool),
	}
	for _, o := range opts {
		o(g)
	}
	g.fieldW = int(math.Ceil(sim.World.Width() * g.scale))
	g.fieldH = int(math.Ceil(sim.World.Height() * g.scale))
	g.width = borderWidth + g.fieldW + borderWidth + logPanelWidth
	g.height = borderWidth + g.fieldH + borderWidth
	g.snapshotModes()
	return g
}

// EventLog returns the on-screen log.
func (g *Game) EventLog() *EventLog { return g.events }

// Size returns the window size in pixels.
func (g *Game) Size() (int, int) { return g.width, g.height }

func (g *Game) snapshotModes() {
	agents := g.sim.World.Agents()
	g.prevModes = make([]swarm.Mode, len(agents))
	g.prevFlags = make([]swarm.Flag, len(agents))
	for i, a := range agents {
		g.prevModes[i] = a.Mode()
		g.prevFlags[i] = a.Flags()
	}
}

// Update handles input and advances the simulation at the selected speed.
func (g *Game) Update() error {
	g.handleInput()
	if g.done() || g.simSpeed <= 0 {
		return nil
	}
	g.tickAccum += g.simSpeed
	for g.tickAccum >= 1 && !g.done() {
		g.tickAccum--
		g.step()
	}
	return nil
}

func (g *Game) done() bool {
	return g.sim.World.Settled() || (g.budget > 0 && g.sim.CurrentTick() >= g.budget)
}

// step advances one tick and logs mode and flag changes.
func (g *Game) step() {
	g.sim.Step()
	tick := g.sim.CurrentTick()
	for i, a := range g.sim.World.Agents() {
		if m := a.Mode(); m != g.prevModes[i] {
			g.events.Add(tick, a.Label(), EventMode, fmt.Sprintf("%s -> %s", g.prevModes[i], m))
			g.prevModes[i] = m
		}
		if f := a.Flags(); f != g.prevFlags[i] {
			g.events.Add(tick, a.Label(), EventMode, fmt.Sprintf("flags %s", f))
			g.prevFlags[i] = f
		}
	}
}

func (g *Game) pressed(cur map[ebiten.Key]bool, k ebiten.Key) bool {
	cur[k] = ebiten.IsKeyPressed(k)
	return cur[k] && !g.prevKeys[k]
}

// handleInput processes edge-triggered key presses.
func (g *Game) handleInput() {
	cur := map[ebiten.Key]bool{}

	if g.pressed(cur, ebiten.KeyP) || g.pressed(cur, ebiten.KeySpace) {
		if g.simSpeed > 0 {
			g.simSpeed = 0
		} else {
			g.simSpeed = 1
		}
	}
	if g.pressed(cur, ebiten.KeyComma) {
		g.simSpeed = slower(g.simSpeed)
	}
	if g.pressed(cur, ebiten.KeyPeriod) {
		g.simSpeed = faster(g.simSpeed)
	}
	if g.pressed(cur, ebiten.KeyN) && g.simSpeed == 0 && !g.done() {
		g.step()
	}
	if g.pressed(cur, ebiten.KeyH) {
		g.showHUD = !g.showHUD
	}
	if g.pressed(cur, ebiten.KeyF) {
		g.showSlots = !g.showSlots
	}
	if g.pressed(cur, ebiten.KeyC) {
		if err := g.copyFn(g.Report()); err != nil {
			g.setStatus("copy failed: " + err.Error())
		} else {
			g.setStatus("report copied")
		}
	}
	g.prevKeys = cur
}

func (g *Game) setStatus(s string) {
	g.status = s
	g.statusTick = g.sim.CurrentTick()
}

func slower(cur float64) float64 {
	for i := len(speeds) - 1; i > 0; i-- {
		if speeds[i] <= cur {
			if speeds[i] < cur {
				return speeds[i]
			}
			return speeds[i-1]
		}
	}
	return speeds[0]
}

func faster(cur float64) float64 {
	for _, s := range speeds {
		if s > cur {
			return s
		}
	}
	return speeds[len(speeds)-1]
}

// Report is the text copied to the clipboard: the run summary plus the
// latest events.
func (g *Game) Report() string {
	var sb strings.Builder
	sb.WriteString(g.sim.SimLog.Summary(g.sim.Snapshot()))
	fmt.Fprintf(&sb, "Tally: detected=%d imminent=%d collisions=%d strikes=%d\n",
		g.sim.Tally.Detected, g.sim.Tally.Imminent, g.sim.Tally.Collisions, g.sim.Tally.Strikes)
	sb.WriteString("--- Recent events ---\n")
	for _, e := range g.events.Recent() {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// toScreen maps world coordinates to screen pixels. World y grows towards
// the target, screen y grows downwards.
func (g *Game) toScreen(p geom.Point) (float32, float32) {
	x := float64(borderWidth) + p.X()*g.scale
	y := float64(borderWidth) + (g.sim.World.Height()-p.Y())*g.scale
	return float32(x), float32(y)
}

// Draw renders the frame.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 12, G: 14, B: 12, A: 255})
	g.drawField(screen)
	g.drawTarget(screen)
	g.drawAgents(screen)
	vector.StrokeRect(screen, borderWidth-1, borderWidth-1, float32(g.fieldW+2), float32(g.fieldH+2), 2, color.RGBA{R: 65, G: 90, B: 65, A: 255}, false)

	g.events.Draw(screen, g.face, borderWidth+g.fieldW+borderWidth, g.height)
	if g.showHUD {
		g.drawHUD(screen)
	}
}

func (g *Game) drawField(screen *ebiten.Image) {
	w := g.sim.World
	vector.FillRect(screen, borderWidth, borderWidth, float32(g.fieldW), float32(g.fieldH), colFieldBg, false)
	for y := 0.0; y <= w.Height(); y += 5 {
		x0, sy := g.toScreen(geom.Pt(0, y))
		x1, _ := g.toScreen(geom.Pt(w.Width(), y))
		vector.StrokeLine(screen, x0, sy, x1, sy, 1, colGrid, false)
	}
	for _, ob := range w.Obstacles() {
		// The far edge maps to the smaller screen y.
		x, y := g.toScreen(geom.Pt(ob.X, ob.Top()))
		vector.FillRect(screen, x, y, float32(ob.W*g.scale), float32(ob.H*g.scale), colObstacle, false)
	}
}

func (g *Game) drawTarget(screen *ebiten.Image) {
	w := g.sim.World
	t := w.Target()
	cx, cy := g.toScreen(t.Center)
	vector.StrokeCircle(screen, cx, cy, float32(t.Radius*g.scale), 2, colTarget, true)
	if !g.showSlots {
		return
	}
	slots := w.Slots()
	for k := 0; k < slots.Len(); k++ {
		sx, sy := g.toScreen(slots.SlotPosition(k))
		if slots.Claimed(k) {
			vector.FillCircle(screen, sx, sy, 3, colSlot, true)
		} else {
			vector.StrokeCircle(screen, sx, sy, 3, 1, colSlot, true)
		}
	}
}

func modeColor(a swarm.AgentSnapshot) color.RGBA {
	switch {
	case a.Flags&(swarm.FlagApproaching|swarm.FlagApproached) != 0:
		return colApproach
	case a.Mode == swarm.ModeDodging:
		return colDodging
	case a.Mode == swarm.ModeHalting:
		return colHalting
	default:
		return colForward
	}
}

func (g *Game) drawAgents(screen *ebiten.Image) {
	cfg := g.sim.World.Config()
	r := float32(cfg.AgentRadius * g.scale)
	for _, a := range g.sim.Snapshot().Agents {
		x, y := g.toScreen(geom.Pt(a.X, a.Y))
		if a.HasSafety {
			sx, sy := g.toScreen(geom.Pt(a.SafetyX, a.SafetyY))
			vector.StrokeLine(screen, x, y, sx, sy, 1, colSafety, true)
			vector.FillCircle(screen, sx, sy, 2, colSafety, true)
		}
		vector.StrokeCircle(screen, x, y, r+float32(cfg.SafetyRadius*g.scale), 1, color.RGBA{R: 255, G: 255, B: 255, A: 30}, true)
		vector.FillCircle(screen, x, y, r, modeColor(a), true)
		if a.Flags&swarm.FlagAvoiding != 0 {
			vector.StrokeCircle(screen, x, y, r, 2, colAvoiding, true)
		}
		if a.Frozen {
			vector.StrokeCircle(screen, x, y, r+3, 1.5, colFrozenRim, true)
		}
		// Heading tick; screen y is flipped.
		hx := x + float32(math.Cos(geom.Radians(a.Heading)))*r*1.6
		hy := y - float32(math.Sin(geom.Radians(a.Heading)))*r*1.6
		vector.StrokeLine(screen, x, y, hx, hy, 2, color.White, true)
		drawText(screen, g.face, a.Label, int(x)+int(r)+2, int(y)-6, color.RGBA{R: 220, G: 220, B: 220, A: 200})
	}
}

func (g *Game) speedLabel() string {
	switch {
	case g.done():
		return "DONE"
	case g.simSpeed == 0:
		return "PAUSED"
	default:
		return fmt.Sprintf("%gx", g.simSpeed)
	}
}

func (g *Game) hudLines() []string {
	t := g.sim.Tally
	lines := []string{
		fmt.Sprintf("T=%d  %s  P=pause N=step ,/.=speed", g.sim.CurrentTick(), g.speedLabel()),
		fmt.Sprintf("courses %d  near %d  contacts %d  strikes %d", t.Detected, t.Imminent, t.Collisions, t.Strikes),
		"[F] slots  [H] HUD  [C] copy report",
	}
	if g.status != "" && g.sim.CurrentTick()-g.statusTick < 120 {
		lines = append(lines, g.status)
	}
	return lines
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	const lineH, charW, pad = 14, 7, 5
	lines := g.hudLines()
	maxLen := 0
	for _, l := range lines {
		maxLen = max(maxLen, len(l))
	}
	boxW := float32(maxLen*charW + 2*pad)
	boxH := float32(len(lines)*lineH + 2*pad)
	bx := float32(borderWidth + 4)
	by := float32(g.height) - boxH - 4

	vector.FillRect(screen, bx, by, boxW, boxH, color.RGBA{R: 6, G: 10, B: 6, A: 210}, false)
	vector.StrokeRect(screen, bx, by, boxW, boxH, 1, color.RGBA{R: 60, G: 100, B: 60, A: 180}, false)
	for i, l := range lines {
		drawText(screen, g.face, l, int(bx)+pad, int(by)+pad+i*lineH, color.White)
	}
}

// Layout reports a fixed logical screen.
func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}
