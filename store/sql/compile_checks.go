package sqlstore

import "github.com/goliatone/go-crm-connect/core"

var _ core.ActivitySink = (*ActivityStore)(nil)
