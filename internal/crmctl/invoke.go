package crmctl

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/mitchellh/cli"

	crmconnect "github.com/goliatone/go-crm-connect"
	"github.com/goliatone/go-crm-connect/core"
	glog "github.com/goliatone/go-logger/glog"
)

type InvokeCommand struct {
	UI         cli.Ui
	LoadConfig ConfigFunc
	HTTPClient *http.Client
}

func (c *InvokeCommand) Synopsis() string {
	return "Run one operation against Salesforce"
}

func (c *InvokeCommand) Help() string {
	return `Usage: crmctl invoke -op=<operation> [key=value ...]

  Dispatches a single operation with the given parameters, exactly as the
  Lambda would for a contact-flow event, and prints the result as JSON.

  -op         lookup, create, update or phoneLookup
  -log-level  trace, debug, info, warn or error (default: error)

  Example:
    crmctl invoke -op=lookup sf_object=Contact sf_fields=Id,Name Name=Acme%`
}

func (c *InvokeCommand) Run(args []string) int {
	flags := flag.NewFlagSet("invoke", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	op := flags.String("op", "", "operation")
	logLevel := flags.String("log-level", "error", "log level")
	if err := flags.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	params, err := parseParams(flags.Args())
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	if strings.TrimSpace(*op) != "" {
		params[core.OperationSelectorKey] = strings.TrimSpace(*op)
	}
	if params[core.OperationSelectorKey] == "" {
		c.UI.Error("an operation is required: use -op or sf_operation=<name>")
		return 1
	}

	ctx := context.Background()
	cfg, err := c.LoadConfig(ctx)
	if err != nil {
		c.UI.Error(fmt.Sprintf("configuration: %v", err))
		return 1
	}

	opts := []crmconnect.Option{
		crmconnect.WithLoggerProvider(glog.NewLogger(
			glog.WithLoggerTypeJSON(),
			glog.WithWriter(os.Stderr),
			glog.WithLevel(*logLevel),
		)),
	}
	if c.HTTPClient != nil {
		opts = append(opts, crmconnect.WithHTTPClient(c.HTTPClient))
	}
	dispatcher, err := crmconnect.NewDispatcher(cfg, opts...)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	envelope, err := dispatcher.Dispatch(ctx, params)
	if err != nil {
		c.UI.Error(fmt.Sprintf("%s: %v", core.KindOf(err), err))
		return 1
	}
	encoded, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	c.UI.Output(string(encoded))
	return 0
}

func parseParams(args []string) (map[string]string, error) {
	params := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected key=value", arg)
		}
		params[strings.TrimSpace(key)] = value
	}
	return params, nil
}
