// Package s3config loads the optional configuration document referenced by
// CONFIG_LOCATION from S3. Documents are YAML; JSON documents decode as well.
package s3config
