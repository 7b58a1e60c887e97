package services

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/coproject/backend/config"
	"github.com/coproject/backend/errs"
	"github.com/rs/zerolog/log"
)

// LoadAWSConfig resolves credentials through the default chain in AWS_REGION
func LoadAWSConfig(ctx context.Context, c map[string]string) (aws.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(config.GetString(c, "AWS_REGION", "eu-north-1")))
	if err != nil {
		return aws.Config{}, errs.NewConfigError("AWS", err)
	}
	return cfg, nil
}

// LoadParameters reads every parameter below path, decrypted, keyed by the last
// segment of its name: /coproject/prod/JWT_SECRET becomes JWT_SECRET.
func LoadParameters(ctx context.Context, client ssm.GetParametersByPathAPIClient, path string) (map[string]string, error) {
	params := map[string]string{}
	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(path),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errs.NewServiceUnreachableError("ssm", err)
		}
		for _, p := range page.Parameters {
			name := aws.ToString(p.Name)
			key := name[strings.LastIndex(name, "/")+1:]
			if key != "" {
				params[key] = aws.ToString(p.Value)
			}
		}
	}

	return params, nil
}

// MergeParameters fills c with the parameters stored below SSM_PARAMETER_PATH.
// Values already present in the environment win.
func MergeParameters(ctx context.Context, c map[string]string) error {
	path := config.GetString(c, "SSM_PARAMETER_PATH", "")
	if path == "" {
		return nil
	}

	awsCfg, err := LoadAWSConfig(ctx, c)
	if err != nil {
		return err
	}

	params, err := LoadParameters(ctx, ssm.NewFromConfig(awsCfg), path)
	if err != nil {
		return err
	}

	merged := mergeParameters(c, params)
	log.Info().Str("path", path).Int("parameters", merged).Msg("loaded parameters from SSM")
	return nil
}

// mergeParameters fills keys that are unset or blank in c and returns how many it filled.
func mergeParameters(c, params map[string]string) int {
	merged := 0
	for k, v := range params {
		if config.GetString(c, k, "") == "" {
			c[k] = v
			merged++
		}
	}
	return merged
}
