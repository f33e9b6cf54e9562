// Package config holds the pipeline configuration sourced from the
// environment at process start. Components receive explicit values and
// clients; nothing reads the environment past this boundary.
package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/go-github/v59/github"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

type PipelineConfig struct {
	GitHubToken          string `envconfig:"GITHUB_TOKEN"`
	PluginTopic          string `envconfig:"PLUGIN_TOPIC" default:"payload-plugin"`
	OfficialOrg          string `envconfig:"OFFICIAL_ORG" default:"payloadcms"`
	OfficialRepo         string `envconfig:"OFFICIAL_REPO" default:"payload"`
	OfficialPluginPrefix string `envconfig:"OFFICIAL_PLUGIN_PREFIX" default:"plugin-"`
	OutputPath           string `envconfig:"OUTPUT_PATH" default:"data/plugins.json"`

	// Optional mirror of the snapshot to S3-compatible storage.
	CloudflareR2Bucket          string `envconfig:"CLOUDFLARE_R2_BUCKET"`
	CloudflareR2AccessKeyID     string `envconfig:"CLOUDFLARE_R2_ACCESS_KEY_ID"`
	CloudflareR2SecretAccessKey string `envconfig:"CLOUDFLARE_R2_SECRET_ACCESS_KEY"`
	CloudflareAccountID         string `envconfig:"CLOUDFLARE_ACCOUNT_ID"`
	SnapshotObjectKey           string `envconfig:"SNAPSHOT_OBJECT_KEY" default:"plugins.json"`

	Version string
}

func NewPipelineConfigFromEnv() (*PipelineConfig, error) {
	var cfg PipelineConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CreateGitHubClient builds the API client. Without a token the
// pipeline still works, at the much lower unauthenticated rate ceiling.
func (c *PipelineConfig) CreateGitHubClient(log *logrus.Logger) *github.Client {
	if c.GitHubToken == "" {
		log.Warn("GITHUB_TOKEN is not set, using unauthenticated rate limits")
		return github.NewClient(nil)
	}
	oauthClient := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.GitHubToken}))
	return github.NewClient(oauthClient)
}

// HasSnapshotUpload reports whether the R2 mirror is configured.
func (c *PipelineConfig) HasSnapshotUpload() bool {
	return c.CloudflareR2Bucket != ""
}

func (c *PipelineConfig) r2CloudflareEndpointResolver(_, _ string, _ ...interface{}) (aws.Endpoint, error) {
	return aws.Endpoint{
		URL: fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.CloudflareAccountID),
	}, nil
}

func (c *PipelineConfig) CreateS3Client() (*s3.Client, error) {
	staticCredentialsProvider := credentials.NewStaticCredentialsProvider(
		c.CloudflareR2AccessKeyID,
		c.CloudflareR2SecretAccessKey,
		"",
	)
	s3Cfg, err := awsConfig.LoadDefaultConfig(context.TODO(),
		awsConfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(c.r2CloudflareEndpointResolver)),
		awsConfig.WithCredentialsProvider(staticCredentialsProvider),
	)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(s3Cfg), nil
}

func (c *PipelineConfig) GetBucket() *string {
	return &c.CloudflareR2Bucket
}
