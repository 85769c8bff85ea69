package main

import (
	"context"
	"errors"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/lixenwraith/boltfx/render/window"
)

// WindowCmd runs the sandbox in an ebiten window
type WindowCmd struct {
	Width  int     `help:"Window width in pixels." default:"1280"`
	Height int     `help:"Window height in pixels." default:"720"`
	Scale  float64 `help:"Pixels per world unit." default:"12"`
	TPS    int     `help:"Ticks per second." default:"60"`
}

var background = color.RGBA{R: 6, G: 8, B: 18, A: 255}

// game adapts the session to ebiten.Game, ebiten's update goroutine is the owner context
type game struct {
	cmd   *WindowCmd
	s     *session
	scene *window.Scene

	dt, now float64
}

// Run blocks in ebiten.RunGame while the metrics server runs beside it
func (c *WindowCmd) Run(g *Globals) error {
	s, err := g.openSession()
	if err != nil {
		return err
	}
	defer s.close()

	scene := window.NewScene(window.Viewport{Scale: c.Scale}, s.rng.Int63())
	origin := scene.NewEmitter(sparkColor)
	destination := scene.NewEmitter(emberColor)
	destination.HasBurst, destination.Burst = true, [2]int{16, 32}
	s.bind(scene, origin, destination, true)

	ctx, cancel := context.WithCancel(context.Background())
	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		return s.serveMetrics(ctx, g.MetricsAddr)
	})

	ebiten.SetWindowSize(c.Width, c.Height)
	ebiten.SetWindowTitle("bolt-sandbox")
	ebiten.SetTPS(c.TPS)
	err = ebiten.RunGame(&game{cmd: c, s: s, scene: scene})
	if errors.Is(err, ebiten.Termination) {
		err = nil
	}

	cancel()
	return errors.Join(err, grp.Wait())
}

func (g *game) world() (float64, float64) {
	return float64(g.cmd.Width) / g.cmd.Scale, float64(g.cmd.Height) / g.cmd.Scale
}

func (g *game) Update() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ):
		return ebiten.Termination
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.s.togglePause()
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		g.s.toggleSlowMotion()
	case inpututil.IsKeyJustPressed(ebiten.KeyEnter):
		g.s.strikeRandom(g.world())
	case inpututil.IsKeyJustPressed(ebiten.KeyM) && g.s.sound != nil:
		g.s.sound.ToggleMute()
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		x, y := ebiten.CursorPosition()
		w, _ := g.world()
		g.s.strike(r3.Vec{X: w / 2}, r3.Vec{X: float64(x) / g.cmd.Scale, Y: float64(y) / g.cmd.Scale})
	}

	g.dt, g.now = g.s.tick(g.world())
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	g.scene.Draw(screen, g.now, g.dt)
	ebitenutil.DebugPrint(screen, g.s.hud())
}

func (g *game) Layout(int, int) (int, int) {
	return g.cmd.Width, g.cmd.Height
}
