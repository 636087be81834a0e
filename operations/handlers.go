package operations

import (
	"context"
	"strconv"

	"github.com/goliatone/go-crm-connect/core"
	"github.com/goliatone/go-crm-connect/dsl"
	"github.com/nyaruka/phonenumbers"
)

// CRM is the subset of the CRM client the operations call.
type CRM interface {
	Query(ctx context.Context, soql string) ([]core.Record, error)
	ParameterizedSearch(ctx context.Context, params map[string]string) ([]core.Record, error)
	Create(ctx context.Context, object string, data map[string]any) (string, error)
	Update(ctx context.Context, object string, id string, data map[string]any) (int, error)
}

const phoneFieldsParam = PhoneLookupObject + ".fields"

type ValueParser interface {
	Parse(raw string) (string, error)
}

type LookupQuery struct {
	crm CRM
}

func NewLookupQuery(crm CRM) *LookupQuery {
	return &LookupQuery{crm: crm}
}

func (q *LookupQuery) Query(ctx context.Context, msg LookupMessage) (core.Envelope, error) {
	if q == nil || q.crm == nil {
		return nil, operationsError(core.ErrorInternal, "operations: crm client is required", nil)
	}
	if err := msg.Validate(); err != nil {
		return nil, operationsValidationError(err, core.OperationLookup)
	}
	records, err := q.crm.Query(ctx, BuildLookupQuery(msg.Object, msg.Fields, msg.Filters))
	if err != nil {
		return nil, err
	}
	return firstWithCount(records), nil
}

type CreateQuery struct {
	crm    CRM
	parser ValueParser
}

func NewCreateQuery(crm CRM, parser ValueParser) *CreateQuery {
	if parser == nil {
		parser = dsl.Parser{}
	}
	return &CreateQuery{crm: crm, parser: parser}
}

func (q *CreateQuery) Query(ctx context.Context, msg CreateMessage) (core.Envelope, error) {
	if q == nil || q.crm == nil {
		return nil, operationsError(core.ErrorInternal, "operations: crm client is required", nil)
	}
	if err := msg.Validate(); err != nil {
		return nil, operationsValidationError(err, core.OperationCreate)
	}
	data, err := parseValues(q.parser, msg.Values)
	if err != nil {
		return nil, err
	}
	id, err := q.crm.Create(ctx, msg.Object, data)
	if err != nil {
		return nil, err
	}
	return core.Envelope{core.EnvelopeIDKey: id}, nil
}

type UpdateQuery struct {
	crm    CRM
	parser ValueParser
}

func NewUpdateQuery(crm CRM, parser ValueParser) *UpdateQuery {
	if parser == nil {
		parser = dsl.Parser{}
	}
	return &UpdateQuery{crm: crm, parser: parser}
}

func (q *UpdateQuery) Query(ctx context.Context, msg UpdateMessage) (core.Envelope, error) {
	if q == nil || q.crm == nil {
		return nil, operationsError(core.ErrorInternal, "operations: crm client is required", nil)
	}
	if err := msg.Validate(); err != nil {
		return nil, operationsValidationError(err, core.OperationUpdate)
	}
	data, err := parseValues(q.parser, msg.Values)
	if err != nil {
		return nil, err
	}
	status, err := q.crm.Update(ctx, msg.Object, msg.ID, data)
	if err != nil {
		return nil, err
	}
	return core.Envelope{core.EnvelopeStatusKey: status}, nil
}

type PhoneLookupQuery struct {
	crm CRM
}

func NewPhoneLookupQuery(crm CRM) *PhoneLookupQuery {
	return &PhoneLookupQuery{crm: crm}
}

func (q *PhoneLookupQuery) Query(ctx context.Context, msg PhoneLookupMessage) (core.Envelope, error) {
	if q == nil || q.crm == nil {
		return nil, operationsError(core.ErrorInternal, "operations: crm client is required", nil)
	}
	if err := msg.Validate(); err != nil {
		return nil, operationsValidationError(err, core.OperationPhoneLookup)
	}
	national, err := NationalNumber(msg.Phone)
	if err != nil {
		return nil, err
	}
	records, err := q.crm.ParameterizedSearch(ctx, map[string]string{
		"q":              national,
		"sobject":        PhoneLookupObject,
		phoneFieldsParam: msg.Fields,
	})
	if err != nil {
		return nil, err
	}
	return firstWithCount(records), nil
}

// NationalNumber reduces an international phone number to its national
// significant digits. The number must carry its country code.
func NationalNumber(phone string) (string, error) {
	parsed, err := phonenumbers.Parse(phone, "")
	if err != nil {
		return "", operationsWrapError(err, core.ErrorBadInput, "operations: unparseable phone number", map[string]any{
			"phone": phone,
		})
	}
	return strconv.FormatUint(parsed.GetNationalNumber(), 10), nil
}

func parseValues(parser ValueParser, values map[string]string) (map[string]any, error) {
	data := make(map[string]any, len(values))
	for key, raw := range values {
		parsed, err := parser.Parse(raw)
		if err != nil {
			return nil, err
		}
		data[key] = parsed
	}
	return data, nil
}

// firstWithCount returns the first record plus the number of matches, or
// only the count when nothing matched.
func firstWithCount(records []core.Record) core.Envelope {
	envelope := core.Envelope{}
	if len(records) > 0 {
		for key, value := range records[0].Clean() {
			envelope[key] = value
		}
	}
	envelope[core.EnvelopeCountKey] = len(records)
	return envelope
}
