package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/trancebox/trancebox"
	"github.com/trancebox/trancebox/sequencer"
	"github.com/trancebox/trancebox/version"
)

func main() {
	configPath := flag.String("config", "", "Read engine settings from this .yml file.")
	bars := flag.Int("bars", 8, "Number of bars to render.")
	bpm := flag.Float64("bpm", 0, "Tempo in beats per minute, 120-150. 0 keeps the configured tempo.")
	outPath := flag.String("o", "trancebox.wav", "Output file. The extension is replaced by .raw when -r is given.")
	rawOut := flag.Bool("r", false, "Output a .raw file of interleaved stereo samples instead of a .wav file.")
	pcm := flag.Bool("c", false, "Convert audio to 16-bit signed PCM when outputting.")
	tracks := flag.String("tracks", "", "Comma separated list of tracks to play; empty plays all.")
	help := flag.Bool("h", false, "Show help.")
	versionFlag := flag.Bool("v", false, "Print version.")
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
	if *bpm != 0 {
		params := map[string]string{"tempo": strconv.FormatFloat(*bpm, 'f', -1, 64)}
		for k, v := range cfg.Params {
			params[k] = v
		}
		cfg.Params = params
	}
	if err := render(cfg, *bars, *tracks, *outPath, *rawOut, *pcm); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func render(cfg trancebox.Config, bars int, tracks, outPath string, raw, pcm bool) error {
	if bars <= 0 {
		return fmt.Errorf("bars must be positive, got %d", bars)
	}
	ac := trancebox.NewOfflineContext()
	opener := func(context.Context, trancebox.Config) (trancebox.AudioContext, error) { return ac, nil }
	e, err := sequencer.New(cfg, sequencer.WithOpener(opener), sequencer.WithLogger(log.New(io.Discard, "", 0)))
	if err != nil {
		return fmt.Errorf("could not create engine: %v", err)
	}
	defer e.Close()
	if tracks != "" {
		for _, t := range e.Tracks() {
			t.SetActive(false)
		}
		for _, name := range strings.Split(tracks, ",") {
			if err := e.SetString(strings.TrimSpace(name)+".active", "true"); err != nil {
				return fmt.Errorf("could not enable track: %v", err)
			}
		}
	}
	if err := e.Play(context.Background()); err != nil {
		return fmt.Errorf("could not start the engine: %v", err)
	}
	frames := int(float64(bars) * 4 * 60 / e.Status().Tempo * float64(cfg.SampleRate))
	if raw {
		outPath = strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".raw"
		buf := make(trancebox.AudioBuffer, frames)
		if err := ac.Render(buf); err != nil {
			return fmt.Errorf("could not render: %v", err)
		}
		data, err := buf.Raw(pcm)
		if err != nil {
			return fmt.Errorf("could not generate .raw file: %v", err)
		}
		if err := os.WriteFile(outPath, data, 0644); err != nil {
			return fmt.Errorf("could not write file %v: %v", outPath, err)
		}
		return nil
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("could not create file %v: %v", outPath, err)
	}
	s := trancebox.Streamer(ac.Render, frames, cfg.BlockSize)
	if err := trancebox.WriteWav(f, s, cfg.SampleRate, pcm); err != nil {
		f.Close()
		return err
	}
	if err := s.Err(); err != nil {
		f.Close()
		return fmt.Errorf("could not render: %v", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("could not write file %v: %v", outPath, err)
	}
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Trancebox offline renderer: renders the loop to a .wav or .raw file.\nUsage: %s [flags]\n", os.Args[0])
	flag.PrintDefaults()
}
