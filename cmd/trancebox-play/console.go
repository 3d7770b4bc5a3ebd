package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/trancebox/trancebox/display"
	"github.com/trancebox/trancebox/sequencer"
)

// console executes the line commands typed by the operator.
type console struct {
	engine  *sequencer.Engine
	display *display.Display
	out     io.Writer
}

const helpText = `commands:
  play                  start from the first step
  stop                  stop, fading out sounding notes
  clear                 stop and switch every track off
  on <track>            switch a track on
  off <track>           switch a track off
  set <path> <value>    set a parameter, e.g. set filter.cutoff 800
  get <path>            print a parameter
  params                list every parameter
  status                print the transport and the tracks
  quit                  exit
`

func (c *console) execute(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	args := fields[1:]
	switch strings.ToLower(fields[0]) {
	case "play":
		return false, c.engine.Play(ctx)
	case "stop":
		return false, c.engine.Stop()
	case "clear":
		return false, c.engine.Clear()
	case "on", "off":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: %s <track>", fields[0])
		}
		return false, c.engine.SetString(args[0]+".active", fields[0])
	case "set":
		if len(args) < 2 {
			return false, fmt.Errorf("usage: set <path> <value>")
		}
		return false, c.engine.SetString(args[0], strings.Join(args[1:], " "))
	case "get":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: get <path>")
		}
		target, name, _ := strings.Cut(args[0], ".")
		if name == "" {
			target, name = "", target
		}
		v, err := c.engine.Parameter(target, name)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(c.out, "%s = %v\n", args[0], v)
		return false, nil
	case "params":
		s, err := c.display.Params(c.engine)
		if err != nil {
			return false, err
		}
		fmt.Fprint(c.out, s)
		return false, nil
	case "status":
		s, err := c.display.Status(c.engine.Status())
		if err != nil {
			return false, err
		}
		fmt.Fprint(c.out, s)
		return false, nil
	case "help", "?":
		fmt.Fprint(c.out, helpText)
		return false, nil
	case "quit", "exit", "q":
		return true, nil
	}
	return false, fmt.Errorf("unknown command %q, type help for a list", fields[0])
}
