package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/trancebox/trancebox"
	"github.com/trancebox/trancebox/display"
	"github.com/trancebox/trancebox/sequencer"
)

func TestConsole(t *testing.T) {
	ac := trancebox.NewOfflineContext()
	e, err := sequencer.New(trancebox.DefaultConfig(),
		sequencer.WithLogger(log.New(io.Discard, "", 0)),
		sequencer.WithOpener(func(context.Context, trancebox.Config) (trancebox.AudioContext, error) { return ac, nil }))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	d, err := display.New()
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	c := &console{engine: e, display: d, out: &out}
	ctx := context.Background()
	for _, line := range []string{"play", "off hihat", "set filter.cutoff 800", "set tempo 140", "set lead.waveform square", "get filter.cutoff", "get tempo", "status", ""} {
		if quit, err := c.execute(ctx, line); err != nil || quit {
			t.Fatalf("%q: quit %v, err %v", line, quit, err)
		}
	}
	if !e.Status().Playing {
		t.Error("not playing after play")
	}
	if e.Track("hihat").Active() {
		t.Error("hihat still on after off hihat")
	}
	for _, want := range []string{"filter.cutoff = 800", "tempo = 140", "PLAYING 140.0 BPM"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output does not contain %q:\n%s", want, out.String())
		}
	}
	if _, err := c.execute(ctx, "set filter.cutoff 20000"); !errors.Is(err, trancebox.ErrOutOfRange) {
		t.Errorf("out of range set: got %v, want ErrOutOfRange", err)
	}
	if _, err := c.execute(ctx, "dance"); err == nil {
		t.Error("unknown command did not fail")
	}
	if quit, _ := c.execute(ctx, "quit"); !quit {
		t.Error("quit did not quit")
	}
}

func TestRun(t *testing.T) {
	d, err := display.New()
	if err != nil {
		t.Fatal(err)
	}
	logger := sequencer.WithLogger(log.New(io.Discard, "", 0))

	broken, err := sequencer.New(trancebox.DefaultConfig(), logger,
		sequencer.WithOpener(func(context.Context, trancebox.Config) (trancebox.AudioContext, error) {
			return nil, errors.New("no device")
		}))
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	err = run(context.Background(), &console{engine: broken, display: d, out: &out}, strings.NewReader("play\n"), false, false)
	if !errors.Is(err, trancebox.ErrDeviceUnavailable) {
		t.Errorf("run without a device: got %v, want ErrDeviceUnavailable", err)
	}
	if err := broken.Close(); err != nil {
		t.Errorf("Close after a failed start: %v", err)
	}

	ac := trancebox.NewOfflineContext()
	e, err := sequencer.New(trancebox.DefaultConfig(), logger,
		sequencer.WithOpener(func(context.Context, trancebox.Config) (trancebox.AudioContext, error) { return ac, nil }))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	out.Reset()
	if err := run(context.Background(), &console{engine: e, display: d, out: &out}, strings.NewReader("off kick\nquit\nstop\n"), false, false); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !e.Status().Playing {
		t.Error("not playing after run started the engine")
	}
	if e.Track("kick").Active() {
		t.Error("kick still on; the commands before quit were not executed")
	}
}
