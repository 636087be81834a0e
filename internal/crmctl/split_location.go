package crmctl

import (
	"fmt"

	"github.com/mitchellh/cli"

	"github.com/goliatone/go-crm-connect/core"
	"github.com/goliatone/go-crm-connect/dsl"
)

type SplitLocationCommand struct {
	UI cli.Ui
}

func (c *SplitLocationCommand) Synopsis() string {
	return "Split a bucket/key config location"
}

func (c *SplitLocationCommand) Help() string {
	return `Usage: crmctl split-location <bucket/key>

  Prints the bucket and key a CONFIG_LOCATION value resolves to.`
}

func (c *SplitLocationCommand) Run(args []string) int {
	if len(args) != 1 {
		c.UI.Error(c.Help())
		return 1
	}
	bucket, key, err := dsl.SplitLocation(args[0])
	if err != nil {
		c.UI.Error(fmt.Sprintf("%s: %v", core.KindOf(err), err))
		return 1
	}
	c.UI.Output("bucket: " + bucket)
	c.UI.Output("key: " + key)
	return 0
}
