package main

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/vango-dev/carbon/internal/config"
	"github.com/vango-dev/carbon/internal/errors"
	"github.com/vango-dev/carbon/internal/manifest"
	"github.com/vango-dev/carbon/internal/preview"
	"github.com/vango-dev/carbon/pkg/render"
	"github.com/vango-dev/carbon/pkg/router"
)

// project is a loaded carbon.json with its route manifest.
type project struct {
	cfg      *config.Config
	manifest *manifest.Manifest
}

func loadProject(flags *globalFlags) (*project, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.config != "" {
		cfg, err = config.LoadFile(flags.config)
	} else {
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return nil, err
	}

	m, err := manifest.Load(cfg.ManifestPath())
	if err != nil {
		return nil, err
	}
	return &project{cfg: cfg, manifest: m}, nil
}

// router builds a router holding the project's routes. Templates are not
// loaded; commands that only inspect routes do not need them.
func (p *project) router(opts ...router.Option) (*router.Router, error) {
	opts = append([]router.Option{
		router.WithConfig(p.cfg.RouterPatch()),
		router.WithOrigin(p.cfg.Origin),
	}, opts...)
	r := router.New(opts...)
	if err := p.manifest.Apply(r); err != nil {
		return nil, err
	}
	return r, nil
}

// sources returns the template loader for the project's template location.
func (p *project) sources() preview.Sources {
	loc := p.cfg.TemplateSource()
	if bucket, prefix, ok := render.ParseS3URL(loc); ok {
		src := render.NewS3Source(newS3Client(), bucket, prefix)
		return func(ctx context.Context) ([]render.Source, error) {
			sources, err := src.Sources(ctx)
			if err != nil {
				return nil, errors.New("C201").Wrap(err).
					WithSuggestion("Check AWS_REGION and the AWS credentials in the environment.")
			}
			return sources, nil
		}
	}
	return func(context.Context) ([]render.Source, error) {
		sources, err := render.ReadFS(os.DirFS(loc))
		if err != nil {
			return nil, errors.New("C201").Wrap(err).
				WithDetail("Templates are read from " + loc)
		}
		return sources, nil
	}
}

// newS3Client builds an S3 client from the standard AWS environment
// variables. CARBON_S3_ENDPOINT points the client at an S3-compatible
// service such as MinIO.
func newS3Client() *s3.Client {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = os.Getenv("AWS_DEFAULT_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	opts := s3.Options{
		Region:      region,
		Credentials: aws.NewCredentialsCache(envCredentials()),
	}
	if endpoint := os.Getenv("CARBON_S3_ENDPOINT"); endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

func envCredentials() aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		creds := aws.Credentials{
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "EnvironmentVariables",
		}
		if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
			return aws.Credentials{}, errors.Newf(errors.CategoryTemplate,
				"AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set to read templates from S3")
		}
		return creds, nil
	})
}
