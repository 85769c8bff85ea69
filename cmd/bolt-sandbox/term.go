package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/lixenwraith/boltfx/core"
	"github.com/lixenwraith/boltfx/render/term"
)

const frameInterval = 16 * time.Millisecond // ~60 FPS

// TermCmd runs the sandbox on a tcell screen
type TermCmd struct {
	Scale float64 `help:"Cells per world unit." default:"1"`
}

// Run owns the screen; the owner loop, input pump and metrics server share one errgroup
func (c *TermCmd) Run(g *Globals) error {
	s, err := g.openSession()
	if err != nil {
		return err
	}
	defer s.close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.HideCursor()

	core.SetCrashHandler(func(r any) {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "\n\x1b[31mCRASH DETECTED: %v\x1b[0m\n", r)
		os.Exit(1)
	})
	defer core.SetCrashHandler(nil)

	scene := term.NewScene(term.Viewport{Scale: c.Scale}, s.rng.Int63(), s.reg)
	origin := scene.NewEmitter(sparkColor)
	destination := scene.NewEmitter(emberColor)
	destination.HasBurst, destination.Burst = true, [2]int{12, 24}
	s.bind(scene, origin, destination, true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, quit := context.WithCancel(ctx)
	defer quit()
	grp, ctx := errgroup.WithContext(ctx)

	events := make(chan tcell.Event, 100)
	grp.Go(func() error {
		screen.ChannelEvents(events, ctx.Done())
		return nil
	})
	grp.Go(func() error {
		return s.serveMetrics(ctx, g.MetricsAddr)
	})
	grp.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				core.HandleCrash(r)
			}
		}()
		defer quit()
		return c.loop(ctx, s, scene, screen, events)
	})
	return grp.Wait()
}

// loop is the owner context: input, clock, manager and drawing all run here
func (c *TermCmd) loop(ctx context.Context, s *session, scene *term.Scene, screen tcell.Screen, events <-chan tcell.Event) error {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	scale := c.Scale
	if scale <= 0 {
		scale = 1
	}
	world := func() (float64, float64) {
		w, h := screen.Size()
		return float64(w) / scale, float64(h-1) / scale
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				switch {
				case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q':
					return nil
				case ev.Key() == tcell.KeyEnter:
					s.strikeRandom(world())
				case ev.Rune() == ' ':
					s.togglePause()
				case ev.Rune() == 's':
					s.toggleSlowMotion()
				case ev.Rune() == 'm' && s.sound != nil:
					s.sound.ToggleMute()
				}
			case *tcell.EventMouse:
				if ev.Buttons()&tcell.Button1 != 0 {
					x, y := ev.Position()
					w, _ := world()
					s.strike(r3.Vec{X: w / 2}, r3.Vec{X: float64(x) / scale, Y: float64(y) / scale})
				}
			case *tcell.EventResize:
				screen.Sync()
			}

		case <-ticker.C:
			w, h := world()
			dt, now := s.tick(w, h)

			screen.Clear()
			scene.Draw(screen, now, dt)
			drawText(screen, 0, int(h*scale), s.hud())
			screen.Show()
		}
	}
}

func drawText(screen tcell.Screen, x, y int, text string) {
	style := tcell.StyleDefault.Foreground(tcell.ColorGray)
	for i, r := range []rune(text) {
		screen.SetContent(x+i, y, r, nil, style)
	}
}
