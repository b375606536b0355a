package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/contenox/orchestrator/orchestrator"
)

// AWS is the placeholder adapter parallel to Kubernetes (spec §4.3): it
// validates that the configured credentials resolve to a caller identity
// once, at construction, and otherwise performs no remote side effect.
type AWS struct {
	identity string
}

// NewAWS resolves the default credential chain for region and fails fast if
// it doesn't resolve to a usable identity.
func NewAWS(ctx context.Context, region string) (*AWS, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", orchestrator.ErrIO, err)
	}

	client := sts.NewFromConfig(cfg)
	out, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("%w: aws credentials did not resolve: %w", orchestrator.ErrIO, err)
	}

	identity := ""
	if out.Arn != nil {
		identity = *out.Arn
	}
	return &AWS{identity: identity}, nil
}

func (a *AWS) Handle(ctx context.Context, modelName string, active orchestrator.Active) (orchestrator.Completed, error) {
	// No per-action AWS API calls: the one-time identity check at
	// construction is the adapter's entire contract for now.
	return complete(active), nil
}
