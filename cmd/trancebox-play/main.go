package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/trancebox/trancebox"
	"github.com/trancebox/trancebox/display"
	"github.com/trancebox/trancebox/oto"
	"github.com/trancebox/trancebox/sequencer"
	"github.com/trancebox/trancebox/version"
)

// setFlags collects repeated -set path=value flags.
type setFlags map[string]string

func (s setFlags) String() string { return fmt.Sprint(map[string]string(s)) }

func (s setFlags) Set(v string) error {
	path, value, ok := strings.Cut(v, "=")
	if !ok {
		return fmt.Errorf("expected path=value, got %q", v)
	}
	s[strings.TrimSpace(path)] = strings.TrimSpace(value)
	return nil
}

func main() {
	sets := setFlags{}
	configPath := flag.String("config", "", "Read engine settings from this .yml file.")
	bpm := flag.Float64("bpm", 0, "Tempo in beats per minute, 120-150. 0 keeps the configured tempo.")
	paused := flag.Bool("paused", false, "Do not start playing; wait for the play command.")
	feed := flag.Bool("feed", true, "Draw the visualizer on standard error.")
	tmplDir := flag.String("t", "", "Use the templates in this directory instead of the built-in ones.")
	help := flag.Bool("h", false, "Show help.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Var(sets, "set", "Set a parameter at startup, e.g. -set filter.cutoff=800. Can be repeated.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.Long())
		os.Exit(0)
	}
	if *help {
		flag.Usage()
		os.Exit(0)
	}
	cfg := trancebox.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = trancebox.ReadConfigFile(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "could not read config: %v\n", err)
			os.Exit(1)
		}
	}
	if len(sets) > 0 || *bpm != 0 {
		params := map[string]string{}
		for k, v := range cfg.Params {
			params[k] = v
		}
		for k, v := range sets {
			params[k] = v
		}
		if *bpm != 0 {
			params["tempo"] = strconv.FormatFloat(*bpm, 'f', -1, 64)
		}
		cfg.Params = params
	}
	var d *display.Display
	var err error
	if *tmplDir != "" {
		d, err = display.NewFromTemplates(*tmplDir)
	} else {
		d, err = display.New()
	}
	if err != nil {
		log.Fatal(err)
	}
	logger := log.New(os.Stderr, "trancebox: ", log.LstdFlags)
	engine, err := sequencer.New(cfg, sequencer.WithOpener(oto.Open), sequencer.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not create engine: %v\n", err)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = run(ctx, &console{engine: engine, display: d, out: os.Stdout}, os.Stdin, *paused, *feed)
	stop()
	engine.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run starts the audio and executes the commands read from in until quit,
// end of input or cancellation of ctx. The caller closes the engine.
func run(ctx context.Context, c *console, in io.Reader, paused, feed bool) error {
	var err error
	if paused {
		err = c.engine.Initialize(ctx)
	} else {
		err = c.engine.Play(ctx)
	}
	if err != nil {
		return fmt.Errorf("could not start audio: %w", err)
	}
	if feed {
		go drawFeed(ctx, c.engine, c.display)
	}
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	fmt.Fprintln(c.out, `type "help" for commands`)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := c.execute(ctx, line)
			if err != nil {
				fmt.Fprintf(c.out, "error: %v\n", err)
			}
			if quit {
				return nil
			}
		}
	}
}

func drawFeed(ctx context.Context, e *sequencer.Engine, d *display.Display) {
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-e.Feed():
			line, err := d.Feed(s)
			if err != nil {
				log.Print(err)
				return
			}
			fmt.Fprintf(os.Stderr, "\r%s", line)
		}
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Trancebox live sequencer. Reads commands from standard input.\nUsage: %s [flags]\n", os.Args[0])
	flag.PrintDefaults()
}
