package crmctl

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/mitchellh/cli"

	"github.com/goliatone/go-crm-connect/core"
	sqlstore "github.com/goliatone/go-crm-connect/store/sql"
)

type ActivityCommand struct {
	UI         cli.Ui
	LoadConfig ConfigFunc
}

func (c *ActivityCommand) Synopsis() string {
	return "List or prune the dispatched operation audit trail"
}

func (c *ActivityCommand) Help() string {
	return `Usage: crmctl activity [options]

  Reads the activity database configured by ACTIVITY_DB_DRIVER and
  ACTIVITY_DB_DSN. Entries are printed newest first, one JSON object per line.

  -invocation  only entries for this invocation id
  -operation   only entries for this operation
  -status      ok or error
  -limit       maximum entries to print (default: 25)
  -prune-ttl   delete entries older than this duration before listing
  -row-cap     keep at most this many entries before listing`
}

func (c *ActivityCommand) Run(args []string) int {
	flags := flag.NewFlagSet("activity", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	invocation := flags.String("invocation", "", "invocation id")
	operation := flags.String("operation", "", "operation")
	status := flags.String("status", "", "status")
	limit := flags.Int("limit", 25, "limit")
	ttl := flags.Duration("prune-ttl", 0, "prune ttl")
	rowCap := flags.Int("row-cap", 0, "row cap")
	if err := flags.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	ctx := context.Background()
	cfg, err := c.LoadConfig(ctx)
	if err != nil {
		c.UI.Error(fmt.Sprintf("configuration: %v", err))
		return 1
	}
	if !cfg.Activity.Enabled() {
		c.UI.Error("activity store is not configured: set ACTIVITY_DB_DRIVER and ACTIVITY_DB_DSN")
		return 1
	}
	client, err := sqlstore.OpenClient(ctx, cfg.Activity)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	defer func() { _ = client.Close() }()
	store, err := sqlstore.NewActivityStoreFromPersistence(client)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	if *ttl > 0 || *rowCap > 0 {
		deleted, err := store.Prune(ctx, sqlstore.RetentionPolicy{TTL: *ttl, RowCap: *rowCap})
		if err != nil {
			c.UI.Error(err.Error())
			return 1
		}
		c.UI.Info(fmt.Sprintf("pruned %d entries", deleted))
	}

	page, err := store.List(ctx, sqlstore.ActivityFilter{
		InvocationID: *invocation,
		Operation:    *operation,
		Status:       core.ActivityStatus(*status),
		PerPage:      *limit,
	})
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	for _, entry := range page.Items {
		line, err := json.Marshal(activityLine{
			ID:           entry.ID,
			InvocationID: entry.InvocationID,
			ContactID:    entry.ContactID,
			Operation:    entry.Operation,
			Object:       entry.Object,
			Status:       string(entry.Status),
			ErrorCode:    entry.ErrorCode,
			DurationMS:   entry.DurationMS,
			CreatedAt:    entry.CreatedAt.UTC(),
		})
		if err != nil {
			c.UI.Error(err.Error())
			return 1
		}
		c.UI.Output(string(line))
	}
	return 0
}

type activityLine struct {
	ID           string    `json:"id"`
	InvocationID string    `json:"invocation_id"`
	ContactID    string    `json:"contact_id,omitempty"`
	Operation    string    `json:"operation"`
	Object       string    `json:"object,omitempty"`
	Status       string    `json:"status"`
	ErrorCode    string    `json:"error_code,omitempty"`
	DurationMS   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}
