// Package mainconfig builds the AWS SDK configuration the DynamoDB
// document store client is created from.
package mainconfig

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	appconfig "github.com/imsolutions/chatdesk/internal/config"
)

// LoadAWSConfig resolves credentials and region, honoring explicit env
// keys over the SDK default chain, and points DynamoDB at a local
// endpoint when one is configured.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if provider := staticCredentials(cfg); provider != nil {
		opts = append(opts, config.WithCredentialsProvider(provider))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, err
	}

	if cfg.AWSEndpointOverride != "" {
		awsCfg.EndpointResolverWithOptions = localDynamoResolver(cfg.AWSEndpointOverride, cfg.AWSRegion)
	}
	return awsCfg, nil
}

func staticCredentials(cfg *appconfig.Config) aws.CredentialsProvider {
	id := strings.TrimSpace(cfg.AWSAccessKeyID)
	secret := strings.TrimSpace(cfg.AWSSecretAccessKey)
	if id == "" || secret == "" {
		return nil
	}
	return credentials.NewStaticCredentialsProvider(id, secret, "")
}

// localDynamoResolver routes only the DynamoDB service to the given
// endpoint (dynamodb-local in development); everything else stays on
// the SDK defaults.
func localDynamoResolver(endpoint, region string) aws.EndpointResolverWithOptions {
	return aws.EndpointResolverWithOptionsFunc(
		func(service, _ string, _ ...interface{}) (aws.Endpoint, error) {
			if service != dynamodb.ServiceID {
				return aws.Endpoint{}, &aws.EndpointNotFoundError{}
			}
			return aws.Endpoint{
				URL:           endpoint,
				PartitionID:   "aws",
				SigningRegion: region,
			}, nil
		},
	)
}
