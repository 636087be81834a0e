package operations

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-viper/mapstructure/v2"
	"github.com/goliatone/go-crm-connect/core"
)

const (
	TypeLookup      = "crm_connect.operations.lookup"
	TypeCreate      = "crm_connect.operations.create"
	TypeUpdate      = "crm_connect.operations.update"
	TypePhoneLookup = "crm_connect.operations.phone_lookup"
)

const (
	ParamObject = "sf_object"
	ParamFields = "sf_fields"
	ParamID     = "sf_id"
	ParamPhone  = "sf_phone"
)

// PhoneLookupObject is the object searched by phone lookups.
const PhoneLookupObject = "Contact"

// LookupMessage selects Fields from Object. Every other parameter is a filter.
type LookupMessage struct {
	Object  string            `mapstructure:"sf_object"`
	Fields  string            `mapstructure:"sf_fields"`
	Filters map[string]string `mapstructure:",remain"`
}

func (LookupMessage) Type() string { return TypeLookup }

func (m LookupMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Object, validation.Required),
		validation.Field(&m.Fields, validation.Required),
		validation.Field(&m.Filters, validation.Required.Error("at least one filter is required")),
	)
}

// CreateMessage creates an Object record from Values.
type CreateMessage struct {
	Object string            `mapstructure:"sf_object"`
	Values map[string]string `mapstructure:",remain"`
}

func (CreateMessage) Type() string { return TypeCreate }

func (m CreateMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Object, validation.Required),
	)
}

type UpdateMessage struct {
	Object string            `mapstructure:"sf_object"`
	ID     string            `mapstructure:"sf_id"`
	Values map[string]string `mapstructure:",remain"`
}

func (UpdateMessage) Type() string { return TypeUpdate }

func (m UpdateMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Object, validation.Required),
		validation.Field(&m.ID, validation.Required),
	)
}

type PhoneLookupMessage struct {
	Phone  string `mapstructure:"sf_phone"`
	Fields string `mapstructure:"sf_fields"`
}

func (PhoneLookupMessage) Type() string { return TypePhoneLookup }

func (m PhoneLookupMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Phone, validation.Required),
		validation.Field(&m.Fields, validation.Required),
	)
}

// RequestFromParameters splits the selector out of raw event parameters. The
// returned parameters never contain the selector key.
func RequestFromParameters(params map[string]string) core.OperationRequest {
	parameters := make(map[string]string, len(params))
	for key, value := range params {
		if key == core.OperationSelectorKey {
			continue
		}
		parameters[key] = value
	}
	return core.OperationRequest{
		Operation:  strings.TrimSpace(params[core.OperationSelectorKey]),
		Parameters: parameters,
	}
}

// decodeParameters fills msg from raw parameters. Strict decoding rejects
// keys msg has no field for.
func decodeParameters(params map[string]string, msg any, strict bool) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      msg,
		TagName:     "mapstructure",
		ErrorUnused: strict,
	})
	if err != nil {
		return operationsWrapError(err, core.ErrorInternal, "operations: build parameter decoder", nil)
	}
	if err := decoder.Decode(params); err != nil {
		return operationsWrapError(err, core.ErrorBadInput, "operations: invalid parameters", nil)
	}
	return nil
}
