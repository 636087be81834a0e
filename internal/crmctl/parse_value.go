package crmctl

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mitchellh/cli"

	"github.com/goliatone/go-crm-connect/core"
	"github.com/goliatone/go-crm-connect/dsl"
)

type ParseValueCommand struct {
	UI  cli.Ui
	Now func() time.Time
}

func (c *ParseValueCommand) Synopsis() string {
	return "Evaluate a relative date value such as 1d|date"
}

func (c *ParseValueCommand) Help() string {
	return `Usage: crmctl parse-value [-now=<time>] <value>

  Evaluates a value the way create and update operations do. Values without
  a "|" are printed unchanged.

  -now  reference time in any common layout (default: current UTC time)`
}

func (c *ParseValueCommand) Run(args []string) int {
	flags := flag.NewFlagSet("parse-value", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	now := flags.String("now", "", "reference time")
	if err := flags.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if flags.NArg() != 1 {
		c.UI.Error(c.Help())
		return 1
	}

	ref := time.Now().UTC()
	if c.Now != nil {
		ref = c.Now()
	}
	if *now != "" {
		parsed, err := dateparse.ParseIn(*now, time.UTC)
		if err != nil {
			c.UI.Error(fmt.Sprintf("invalid -now value: %v", err))
			return 1
		}
		ref = parsed
	}

	value, err := dsl.ParseValue(flags.Arg(0), ref)
	if err != nil {
		c.UI.Error(fmt.Sprintf("%s: %v", core.KindOf(err), err))
		return 1
	}
	c.UI.Output(value)
	return 0
}
