package crmctl

import (
	"bufio"
	"context"
	"os"

	"github.com/mitchellh/cli"

	crmconnect "github.com/goliatone/go-crm-connect"
	"github.com/goliatone/go-crm-connect/adapters/s3config"
	"github.com/goliatone/go-crm-connect/core"
)

const version = "0.1.0"

// ConfigFunc resolves the connector configuration for commands that talk to
// Salesforce or the activity database.
type ConfigFunc func(ctx context.Context) (core.Config, error)

// LoadFromEnvironment reads the same environment as the Lambda, including the
// optional S3 document at CONFIG_LOCATION.
func LoadFromEnvironment(ctx context.Context) (core.Config, error) {
	var documents core.DocumentLoader
	if _, ok := os.LookupEnv("CONFIG_LOCATION"); ok {
		loader, err := s3config.NewDefaultLoader(ctx, nil)
		if err != nil {
			return core.Config{}, err
		}
		documents = loader
	}
	return crmconnect.LoadConfig(ctx, documents, nil)
}

func Commands(ui cli.Ui, loadConfig ConfigFunc) map[string]cli.CommandFactory {
	if loadConfig == nil {
		loadConfig = LoadFromEnvironment
	}
	return map[string]cli.CommandFactory{
		"invoke": func() (cli.Command, error) {
			return &InvokeCommand{UI: ui, LoadConfig: loadConfig}, nil
		},
		"parse-value": func() (cli.Command, error) {
			return &ParseValueCommand{UI: ui}, nil
		},
		"split-location": func() (cli.Command, error) {
			return &SplitLocationCommand{UI: ui}, nil
		},
		"activity": func() (cli.Command, error) {
			return &ActivityCommand{UI: ui, LoadConfig: loadConfig}, nil
		},
	}
}

// Main runs the CLI with the given arguments and returns the exit code.
func Main(args []string) int {
	ui := &cli.BasicUi{
		Reader:      bufio.NewReader(os.Stdin),
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}
	c := &cli.CLI{
		Name:     args[0],
		Args:     args[1:],
		Version:  version,
		Commands: Commands(ui, nil),
	}
	exitCode, err := c.Run()
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	return exitCode
}
