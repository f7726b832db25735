package secrets

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ParameterGetter is the SSM call used to read secrets.
type ParameterGetter interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Store reads secrets from AWS Systems Manager Parameter Store.
type Store struct {
	client ParameterGetter
}

// NewStore creates a Store from the default AWS config chain.
func NewStore(ctx context.Context) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewStoreWithClient(ssm.NewFromConfig(awsCfg)), nil
}

// NewStoreWithClient wraps an existing SSM client.
func NewStoreWithClient(client ParameterGetter) *Store {
	return &Store{client: client}
}

// Get returns the decrypted value of a parameter.
func (s *Store) Get(ctx context.Context, name string) (string, error) {
	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("get SSM parameter %s: %w", name, err)
	}
	if out.Parameter == nil {
		return "", fmt.Errorf("SSM parameter %s has no value", name)
	}

	v := strings.TrimSpace(aws.ToString(out.Parameter.Value))
	if v == "" {
		return "", fmt.Errorf("SSM parameter %s is empty", name)
	}
	return v, nil
}
