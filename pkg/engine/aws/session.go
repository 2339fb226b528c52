// Package aws implements the cloud API collaborator: credential resolution,
// identity verification, and the per-family listing calls the orchestrator
// fetches raw records through.
package aws

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/idiya2016/cloud-resource-archaeologist/pkg/version"
)

// Client encapsulates SDK usage: authentication, region resolution, and
// middleware injection.
type Client struct {
	Config aws.Config
	STS    *sts.Client
}

// NewClient initializes an authenticated AWS client. region seeds the base
// config; per-region listing calls derive regional copies.
func NewClient(ctx context.Context, region, profile string, verbose bool) (*Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}

	// Local endpoint override, used for mocking/testing.
	if endpoint := os.Getenv("AWS_ENDPOINT_URL"); endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(endpoint))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %v", err)
	}

	// Identify the tool in CloudTrail and API quota accounting.
	cfg.APIOptions = append(cfg.APIOptions, func(stack *middleware.Stack) error {
		return stack.Build.Add(middleware.BuildMiddlewareFunc("ArchaeologistUA", func(ctx context.Context, input middleware.BuildInput, next middleware.BuildHandler) (
			middleware.BuildOutput, middleware.Metadata, error,
		) {
			if req, ok := input.Request.(*smithyhttp.Request); ok {
				ua := req.Header.Get("User-Agent")
				req.Header.Set("User-Agent", fmt.Sprintf("%s archaeologist/%s", ua, version.Current))
			}
			return next.HandleBuild(ctx, input)
		}), middleware.After)
	})

	if verbose {
		cfg.APIOptions = append(cfg.APIOptions, func(stack *middleware.Stack) error {
			return stack.Initialize.Add(middleware.InitializeMiddlewareFunc("CallLogger", func(ctx context.Context, input middleware.InitializeInput, next middleware.InitializeHandler) (
				middleware.InitializeOutput, middleware.Metadata, error,
			) {
				fmt.Printf("[AWS-SDK] API Call: %s\n", middleware.GetOperationName(ctx))
				return next.HandleInitialize(ctx, input)
			}), middleware.Before)
		})
	}

	return &Client{
		Config: cfg,
		STS:    sts.NewFromConfig(cfg),
	}, nil
}

// VerifyIdentity validates the session credentials and returns the account
// ID. Failure here is fatal for the run; no discovery is attempted.
func (c *Client) VerifyIdentity(ctx context.Context) (string, error) {
	result, err := c.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("failed to get caller identity: %v", err)
	}
	return *result.Account, nil
}

// ConfigForRegion returns a regional configuration copy.
func (c *Client) ConfigForRegion(region string) aws.Config {
	cfg := c.Config.Copy()
	cfg.Region = region
	return cfg
}
