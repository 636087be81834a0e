package operations

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-crm-connect/core"
)

var (
	_ gocmd.Querier[LookupMessage, core.Envelope]      = (*LookupQuery)(nil)
	_ gocmd.Querier[CreateMessage, core.Envelope]      = (*CreateQuery)(nil)
	_ gocmd.Querier[UpdateMessage, core.Envelope]      = (*UpdateQuery)(nil)
	_ gocmd.Querier[PhoneLookupMessage, core.Envelope] = (*PhoneLookupQuery)(nil)
)
