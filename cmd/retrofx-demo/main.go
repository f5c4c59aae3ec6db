package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/framewraith/retrofx/clock"
	"github.com/framewraith/retrofx/config"
	"github.com/framewraith/retrofx/effects"
	"github.com/framewraith/retrofx/stage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		debugFlag  bool
		noSound    bool
		colorMode  string
	)

	root := &cobra.Command{
		Use:           "retrofx-demo",
		Short:         "Arcade marquee showcase for the retrofx effect layer",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, debugFlag, noSound, colorMode)
		},
	}
	root.Flags().StringVar(&configPath, "config", "", "Effect options file (.toml, .yaml, .json)")
	root.Flags().BoolVar(&debugFlag, "debug", false, "Write debug log to retrofx-debug.log")
	root.Flags().BoolVar(&noSound, "no-sound", false, "Disable the beep synthesizer")
	root.Flags().StringVar(&colorMode, "color", "auto", "Color mode: auto, truecolor, 256")
	return root
}

func run(configPath string, debugFlag, noSound bool, colorMode string) error {
	opts := effects.Options{}
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		opts = loaded
	}
	if noSound {
		opts.Sound = effects.Bool(false)
	}
	if debugFlag {
		opts.Debug = effects.Bool(true)
	}

	applyColorMode(colorMode)

	logger := zerolog.Nop()
	if debugFlag {
		// The terminal belongs to tcell while we run; debug output
		// goes to a file instead
		f, err := os.OpenFile("retrofx-debug.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			defer f.Close()
			logger = zerolog.New(f).With().Timestamp().Logger().Level(zerolog.DebugLevel)
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}

	// Panic recovery: reset the terminal before the stack trace hits
	// stderr, or the output is unreadable
	defer func() {
		if r := recover(); r != nil {
			screen.Fini()
			fmt.Fprintf(os.Stderr, "\nRETROFX-DEMO CRASHED: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack Trace:\n%s\n", debug.Stack())
			os.Exit(1)
		}
	}()
	defer screen.Fini()
	screen.EnableMouse()

	w, h := screen.Size()
	st := stage.New(w, h)
	buildMarquee(st, h)

	sch := clock.NewScheduler(nil)
	m := effects.New(st, sch, effects.WithLogger(logger))

	st.Attach(screen)
	m.Init(opts)
	defer m.Destroy()

	stop := make(chan struct{})
	var stopOnce sync.Once
	scrolledDown := false

	st.OnKey(func(ev *tcell.EventKey) {
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Rune() == 'q':
			stopOnce.Do(func() { close(stop) })
		case ev.Rune() == 'b':
			m.BurstDefault()
		case ev.Rune() == 'g':
			m.Glitch("title")
		case ev.Rune() == 's':
			if scrolledDown {
				st.ScrollTo(0)
			} else {
				st.ScrollTo(9999)
			}
			scrolledDown = !scrolledDown
		}
	})

	return st.Run(stop, sch, 33*time.Millisecond)
}

// applyColorMode steers tcell's color depth detection
func applyColorMode(mode string) {
	switch mode {
	case "256":
		os.Setenv("TCELL_TRUECOLOR", "disable")
	case "truecolor", "true", "24bit":
		os.Setenv("COLORTERM", "truecolor")
	}
}

// buildMarquee lays out the demo page: title banner, attract-mode
// copy, score counters below the fold, and the coin/start buttons
func buildMarquee(st *stage.Stage, screenHeight int) {
	title := tcell.StyleDefault.Foreground(tcell.ColorFuchsia).Bold(true)
	neon := tcell.StyleDefault.Foreground(tcell.ColorAqua)
	dim := tcell.StyleDefault.Foreground(tcell.ColorGray)

	st.AddRegion(&stage.Region{
		ID: "title", Tags: []string{effects.TagGlitch},
		X: 4, Y: 2, W: 40, H: 1,
		Text: "★ F R A M E W R A I T H ★", Style: title,
	})
	st.AddRegion(&stage.Region{
		ID: "subtitle", Tags: []string{effects.TagGlitch},
		X: 4, Y: 4, W: 40, H: 1,
		Text: "RETRO EFFECTS SHOWCASE", Style: neon,
	})
	st.AddRegion(&stage.Region{
		ID: "help",
		X:  4, Y: 6, W: 60, H: 1,
		Text: "b: burst   g: glitch   s: scroll   q: quit", Style: dim,
	})

	for i, line := range []string{
		"IN A WORLD OF FLAT DESIGN AND SANS-SERIF RESTRAINT,",
		"ONE LIBRARY REFUSED TO TONE IT DOWN.",
		"",
		"SCANLINES. PARTICLES. GLITCH CYCLES.",
		"SQUARE WAVES AT QUESTIONABLE FREQUENCIES.",
	} {
		st.AddRegion(&stage.Region{
			ID: fmt.Sprintf("copy-%d", i),
			X:  4, Y: 9 + i*2, W: 60, H: 1,
			Text: line, Style: neon,
		})
	}

	// Counters start below the first screen so the count-up triggers
	// on scroll
	counterY := screenHeight + 4
	st.AddRegion(&stage.Region{
		ID: "hiscore-label", X: 4, Y: counterY, W: 12, H: 1,
		Text: "HI-SCORE", Style: dim,
	})
	st.AddRegion(&stage.Region{
		ID: "hiscore", Tags: []string{effects.TagCounter},
		X: 18, Y: counterY, W: 8, H: 1,
		Text: "999999", Style: title,
	})
	st.AddRegion(&stage.Region{
		ID: "plays-label", X: 4, Y: counterY + 2, W: 12, H: 1,
		Text: "PLAYS", Style: dim,
	})
	st.AddRegion(&stage.Region{
		ID: "plays", Tags: []string{effects.TagCounter},
		X: 18, Y: counterY + 2, W: 8, H: 1,
		Text: "4096", Style: neon,
	})

	st.AddRegion(&stage.Region{
		ID: "coin", Tags: []string{effects.TagButton},
		X: 4, Y: counterY + 5, W: 13, H: 1,
		Text: "[INSERT COIN]", Style: title,
	})
	st.AddRegion(&stage.Region{
		ID: "start", Tags: []string{effects.TagButton},
		X: 20, Y: counterY + 5, W: 9, H: 1,
		Text: "[ START ]", Style: title,
	})
}
