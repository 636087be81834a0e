package s3config

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-crm-connect/core"
	"github.com/goliatone/go-crm-connect/dsl"
	glog "github.com/goliatone/go-logger/glog"
)

const defaultMaxDocumentBytes int64 = 1 << 20

// ObjectGetter is the slice of the S3 API the loader needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type Loader struct {
	client           ObjectGetter
	logger           core.Logger
	MaxDocumentBytes int64
}

func NewLoader(client ObjectGetter, logger core.Logger) *Loader {
	return &Loader{
		client:           client,
		logger:           glog.Ensure(logger),
		MaxDocumentBytes: defaultMaxDocumentBytes,
	}
}

// NewDefaultLoader builds an S3 client from the default AWS credential chain,
// which inside Lambda is the function's execution role.
func NewDefaultLoader(ctx context.Context, logger core.Logger, optFns ...func(*config.LoadOptions) error) (*Loader, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, core.WrapError(err, core.ErrorConfiguration, "s3config: load aws config", nil)
	}
	return NewLoader(s3.NewFromConfig(awsCfg), logger), nil
}

func (l *Loader) LoadDocument(ctx context.Context, location string) (map[string]any, error) {
	if l == nil || l.client == nil {
		return nil, core.NewError(core.ErrorInternal, "s3config: loader is not initialized", nil)
	}
	bucket, key, err := dsl.SplitLocation(strings.TrimSpace(location))
	if err != nil {
		return nil, err
	}
	if bucket == "" || key == "" {
		return nil, core.NewError(core.ErrorMalformedLocation, "s3config: bucket and key are required", map[string]any{
			"location": location,
		})
	}
	fields := map[string]any{"bucket": bucket, "key": key}

	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		core.LogWithLevel(ctx, l.logger, "error", "config document fetch failed", fields)
		return nil, core.WrapError(err, core.ErrorExternalFailure, "s3config: get object", fields)
	}
	defer out.Body.Close()

	limit := l.MaxDocumentBytes
	if limit <= 0 {
		limit = defaultMaxDocumentBytes
	}
	content, err := io.ReadAll(io.LimitReader(out.Body, limit+1))
	if err != nil {
		return nil, core.WrapError(err, core.ErrorExternalFailure, "s3config: read object", fields)
	}
	if int64(len(content)) > limit {
		fields["limit_bytes"] = limit
		return nil, core.NewError(core.ErrorConfiguration, "s3config: config document exceeds size limit", fields)
	}

	document := map[string]any{}
	if len(bytes.TrimSpace(content)) == 0 {
		return document, nil
	}
	if err := yaml.Unmarshal(content, &document); err != nil {
		return nil, core.WrapError(err, core.ErrorConfiguration, "s3config: decode config document", fields)
	}
	core.LogWithLevel(ctx, l.logger, "debug", "config document loaded", fields)
	return document, nil
}

var _ core.DocumentLoader = (*Loader)(nil)
