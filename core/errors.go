package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorConfiguration     = "CONNECT_CONFIGURATION_ERROR"
	ErrorAuthentication    = "CONNECT_AUTHENTICATION_ERROR"
	ErrorCRMAPI            = "CONNECT_CRM_API_ERROR"
	ErrorCreate            = "CONNECT_CREATE_ERROR"
	ErrorUnknownOperation  = "CONNECT_UNKNOWN_OPERATION"
	ErrorInvalidFormat     = "CONNECT_INVALID_FORMAT"
	ErrorInvalidDelta      = "CONNECT_INVALID_DELTA"
	ErrorMalformedLocation = "CONNECT_MALFORMED_LOCATION"
	ErrorNotAuthenticated  = "CONNECT_NOT_AUTHENTICATED"
	ErrorBadInput          = "CONNECT_BAD_INPUT"
	ErrorExternalFailure   = "CONNECT_EXTERNAL_FAILURE"
	ErrorInternal          = "CONNECT_INTERNAL_ERROR"
)

const (
	MetadataCRMErrorCode   = "crm_error_code"
	MetadataCRMDescription = "crm_description"
	MetadataStatusCode     = "status_code"
)

type errorKind struct {
	category goerrors.Category
	code     int
}

var errorKinds = map[string]errorKind{
	ErrorConfiguration:     {goerrors.CategoryValidation, http.StatusInternalServerError},
	ErrorAuthentication:    {goerrors.CategoryAuth, http.StatusUnauthorized},
	ErrorCRMAPI:            {goerrors.CategoryExternal, http.StatusBadGateway},
	ErrorCreate:            {goerrors.CategoryExternal, http.StatusBadGateway},
	ErrorUnknownOperation:  {goerrors.CategoryBadInput, http.StatusBadRequest},
	ErrorInvalidFormat:     {goerrors.CategoryBadInput, http.StatusBadRequest},
	ErrorInvalidDelta:      {goerrors.CategoryBadInput, http.StatusBadRequest},
	ErrorMalformedLocation: {goerrors.CategoryBadInput, http.StatusBadRequest},
	ErrorNotAuthenticated:  {goerrors.CategoryInternal, http.StatusInternalServerError},
	ErrorBadInput:          {goerrors.CategoryBadInput, http.StatusBadRequest},
	ErrorExternalFailure:   {goerrors.CategoryExternal, http.StatusBadGateway},
	ErrorInternal:          {goerrors.CategoryInternal, http.StatusInternalServerError},
}

func resolveKind(kind string) (string, errorKind) {
	if resolved, ok := errorKinds[kind]; ok {
		return kind, resolved
	}
	return ErrorInternal, errorKinds[ErrorInternal]
}

// NewError builds an envelope for one of the Error* kinds.
func NewError(kind string, message string, metadata map[string]any) *goerrors.Error {
	kind, resolved := resolveKind(kind)
	err := goerrors.New(message, resolved.category).
		WithCode(resolved.code).
		WithTextCode(kind)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func WrapError(source error, kind string, message string, metadata map[string]any) *goerrors.Error {
	if source == nil {
		return NewError(kind, message, metadata)
	}
	kind, resolved := resolveKind(kind)
	// Wrap clones an existing envelope and keeps its category.
	err := goerrors.Wrap(source, resolved.category, message).
		WithCode(resolved.code).
		WithTextCode(kind)
	err.Category = resolved.category
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// NewCRMError carries the upstream status and, when the CRM provided them,
// its error code and description.
func NewCRMError(kind string, statusCode int, errorCode string, description string, metadata map[string]any) *goerrors.Error {
	fields := cloneFields(metadata)
	fields[MetadataStatusCode] = statusCode
	message := fmt.Sprintf("request returned status code: %d", statusCode)
	if strings.TrimSpace(errorCode) != "" || strings.TrimSpace(description) != "" {
		fields[MetadataCRMErrorCode] = errorCode
		fields[MetadataCRMDescription] = description
		message = fmt.Sprintf("%s: %s", errorCode, description)
	}
	err := NewError(kind, message, fields)
	if statusCode > 0 {
		err.WithCode(statusCode)
	}
	return err
}

// KindOf reports the text code of the outermost envelope, or ErrorInternal
// for errors that never went through NewError/WrapError.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && strings.TrimSpace(rich.TextCode) != "" {
		return rich.TextCode
	}
	return ErrorInternal
}

// IsKind walks the source chain looking for an envelope of the given kind.
func IsKind(err error, kind string) bool {
	for err != nil {
		var rich *goerrors.Error
		if !goerrors.As(err, &rich) {
			return false
		}
		if rich.TextCode == kind {
			return true
		}
		err = errors.Unwrap(rich)
	}
	return false
}

type CRMErrorDetails struct {
	StatusCode  int
	ErrorCode   string
	Description string
}

func CRMDetails(err error) (CRMErrorDetails, bool) {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || len(rich.Metadata) == 0 {
		return CRMErrorDetails{}, false
	}
	status, ok := rich.Metadata[MetadataStatusCode].(int)
	if !ok {
		return CRMErrorDetails{}, false
	}
	details := CRMErrorDetails{StatusCode: status}
	details.ErrorCode, _ = rich.Metadata[MetadataCRMErrorCode].(string)
	details.Description, _ = rich.Metadata[MetadataCRMDescription].(string)
	return details, true
}
