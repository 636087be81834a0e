package dsl

import (
	"strings"

	"github.com/goliatone/go-crm-connect/core"
)

// SplitLocation splits "bucket/key" on the first slash. The key keeps any
// further slashes.
func SplitLocation(location string) (bucket string, key string, err error) {
	bucket, key, found := strings.Cut(location, "/")
	if !found {
		return "", "", core.NewError(core.ErrorMalformedLocation, "dsl: location has no bucket separator", map[string]any{
			"location": location,
		})
	}
	return bucket, key, nil
}
