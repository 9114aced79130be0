package main

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/autoroute"
	"github.com/vango-dev/autoroute/internal/config"
	"github.com/vango-dev/autoroute/internal/errors"
	"github.com/vango-dev/autoroute/pkg/fsys"
	"github.com/vango-dev/autoroute/pkg/routefile"
)

// openSource returns the lister for the configured route source and the
// root to discover from.
func openSource(ctx context.Context, cfg *config.Config) (autoroute.Lister, string, error) {
	exts := fsys.WithExtensions(routefile.Extensions()...)

	switch cfg.Source.Kind {
	case config.SourceS3:
		client, err := newS3Client(ctx, cfg.Source)
		if err != nil {
			return nil, "", err
		}
		lister := fsys.NewS3Lister(client, cfg.Source.Bucket, exts).WithTimeout(cfg.SourceTimeout())
		return lister, cfg.RoutesPath(), nil

	default:
		return fsys.NewOSLister(exts), cfg.RoutesPath(), nil
	}
}

func newS3Client(ctx context.Context, src config.SourceConfig) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if src.Region != "" {
		opts = append(opts, awsconfig.WithRegion(src.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.New("E140").WithDetail("Loading the AWS configuration failed.").Wrap(err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if src.Endpoint != "" {
			o.BaseEndpoint = aws.String(src.Endpoint)
		}
		o.UsePathStyle = src.UsePathStyle()
	}), nil
}
