package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type activityRecord struct {
	bun.BaseModel `bun:"table:connect_activity_entries,alias:cae"`

	ID           string         `bun:"id,pk"`
	InvocationID string         `bun:"invocation_id,notnull"`
	ContactID    string         `bun:"contact_id,notnull"`
	Operation    string         `bun:"operation,notnull"`
	Object       string         `bun:"object,notnull"`
	Status       string         `bun:"status,notnull"`
	ErrorCode    string         `bun:"error_code,notnull"`
	DurationMS   int64          `bun:"duration_ms,notnull"`
	Metadata     map[string]any `bun:"metadata,type:jsonb,notnull"`
	CreatedAt    time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
