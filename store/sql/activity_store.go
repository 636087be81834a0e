package sqlstore

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-crm-connect/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const defaultActivityPerPage = 25

type ActivityFilter struct {
	InvocationID string
	ContactID    string
	Operation    string
	Status       core.ActivityStatus
	From         *time.Time
	To           *time.Time
	Page         int
	PerPage      int
}

type ActivityPage struct {
	Items   []core.ActivityEntry
	Page    int
	PerPage int
	Total   int
	HasNext bool
}

// RetentionPolicy bounds the audit table. Zero values disable a bound.
type RetentionPolicy struct {
	TTL    time.Duration
	RowCap int
}

type ActivityStore struct {
	db   *bun.DB
	repo repository.Repository[*activityRecord]
	now  func() time.Time
}

func NewActivityStore(db *bun.DB) (*ActivityStore, error) {
	if db == nil {
		return nil, storeError(core.ErrorConfiguration, "sqlstore: bun db is required", nil)
	}
	repo := repository.NewRepository[*activityRecord](db, activityHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, storeWrapError(err, core.ErrorConfiguration, "sqlstore: invalid activity repository wiring", nil)
		}
	}
	return &ActivityStore{db: db, repo: repo, now: time.Now}, nil
}

func (s *ActivityStore) Record(ctx context.Context, entry core.ActivityEntry) error {
	if s == nil || s.repo == nil {
		return storeError(core.ErrorInternal, "sqlstore: activity store is not configured", nil)
	}
	operation := strings.TrimSpace(entry.Operation)
	if operation == "" {
		return storeError(core.ErrorBadInput, "sqlstore: activity operation is required", map[string]any{
			"invocation_id": entry.InvocationID,
		})
	}
	id := strings.TrimSpace(entry.ID)
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := entry.CreatedAt.UTC()
	if entry.CreatedAt.IsZero() {
		createdAt = s.now().UTC()
	}
	status := strings.TrimSpace(string(entry.Status))
	if status == "" {
		status = string(core.ActivityStatusOK)
	}

	record := &activityRecord{
		ID:           id,
		InvocationID: strings.TrimSpace(entry.InvocationID),
		ContactID:    strings.TrimSpace(entry.ContactID),
		Operation:    operation,
		Object:       strings.TrimSpace(entry.Object),
		Status:       status,
		ErrorCode:    strings.TrimSpace(entry.ErrorCode),
		DurationMS:   entry.DurationMS,
		Metadata:     copyAnyMap(entry.Metadata),
		CreatedAt:    createdAt,
	}
	if _, err := s.repo.Create(ctx, record); err != nil {
		return storeWrapError(err, core.ErrorExternalFailure, "sqlstore: insert activity entry", map[string]any{
			"invocation_id": record.InvocationID,
			"operation":     record.Operation,
		})
	}
	return nil
}

// List returns entries newest first.
func (s *ActivityStore) List(ctx context.Context, filter ActivityFilter) (ActivityPage, error) {
	if s == nil || s.repo == nil {
		return ActivityPage{}, storeError(core.ErrorInternal, "sqlstore: activity store is not configured", nil)
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = defaultActivityPerPage
	}
	offset := (page - 1) * perPage

	selectors := []repository.SelectCriteria{
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(perPage, offset),
	}
	equals := [][2]string{
		{"invocation_id", filter.InvocationID},
		{"contact_id", filter.ContactID},
		{"operation", filter.Operation},
		{"status", string(filter.Status)},
	}
	for _, pair := range equals {
		if value := strings.TrimSpace(pair[1]); value != "" {
			selectors = append(selectors, repository.SelectBy(pair[0], "=", value))
		}
	}
	if filter.From != nil {
		selectors = append(selectors, repository.SelectByTimetz("created_at", ">=", filter.From.UTC()))
	}
	if filter.To != nil {
		selectors = append(selectors, repository.SelectByTimetz("created_at", "<=", filter.To.UTC()))
	}

	records, total, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return ActivityPage{}, storeWrapError(err, core.ErrorExternalFailure, "sqlstore: list activity entries", nil)
	}
	items := make([]core.ActivityEntry, 0, len(records))
	for _, record := range records {
		items = append(items, activityRecordToDomain(record))
	}
	return ActivityPage{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		HasNext: offset+len(items) < total,
	}, nil
}

// Prune applies the TTL first, then trims the oldest rows above RowCap.
func (s *ActivityStore) Prune(ctx context.Context, policy RetentionPolicy) (int, error) {
	if s == nil || s.db == nil {
		return 0, storeError(core.ErrorInternal, "sqlstore: activity store is not configured", nil)
	}
	deleted := 0

	if policy.TTL > 0 {
		cutoff := s.now().UTC().Add(-policy.TTL)
		res, err := s.db.NewDelete().
			Model((*activityRecord)(nil)).
			Where("created_at < ?", cutoff).
			Exec(ctx)
		if err != nil {
			return deleted, storeWrapError(err, core.ErrorExternalFailure, "sqlstore: prune activity by ttl", nil)
		}
		affected, _ := res.RowsAffected()
		deleted += int(affected)
	}

	if policy.RowCap > 0 {
		total, err := s.db.NewSelect().Model((*activityRecord)(nil)).Count(ctx)
		if err != nil {
			return deleted, storeWrapError(err, core.ErrorExternalFailure, "sqlstore: count activity entries", nil)
		}
		if excess := total - policy.RowCap; excess > 0 {
			res, err := s.db.NewRaw(
				"DELETE FROM connect_activity_entries WHERE id IN (SELECT id FROM connect_activity_entries ORDER BY created_at ASC LIMIT ?)",
				excess,
			).Exec(ctx)
			if err != nil {
				return deleted, storeWrapError(err, core.ErrorExternalFailure, "sqlstore: prune activity by row cap", nil)
			}
			affected, _ := res.RowsAffected()
			deleted += int(affected)
		}
	}
	return deleted, nil
}

func activityRecordToDomain(record *activityRecord) core.ActivityEntry {
	if record == nil {
		return core.ActivityEntry{}
	}
	return core.ActivityEntry{
		ID:           record.ID,
		InvocationID: record.InvocationID,
		ContactID:    record.ContactID,
		Operation:    record.Operation,
		Object:       record.Object,
		Status:       core.ActivityStatus(record.Status),
		ErrorCode:    record.ErrorCode,
		DurationMS:   record.DurationMS,
		Metadata:     copyAnyMap(record.Metadata),
		CreatedAt:    record.CreatedAt,
	}
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
