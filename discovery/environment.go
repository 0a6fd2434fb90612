package discovery

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

const optInStatusNotOptedIn = "not-opted-in"

// STSAPI defines the STS operations used by the environment.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// RegionsAPI defines the EC2 operations used by the environment.
type RegionsAPI interface {
	DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error)
}

var (
	_ STSAPI     = (*sts.Client)(nil)
	_ RegionsAPI = (*ec2.Client)(nil)
)

// AWSEnvironment resolves the caller's account through STS and its enabled
// regions through EC2.
type AWSEnvironment struct {
	sts STSAPI
	ec2 RegionsAPI

	// Regions, when set, replaces the EC2 lookup.
	Regions []string
}

// NewAWSEnvironment creates an environment from an AWS config.
func NewAWSEnvironment(cfg aws.Config) *AWSEnvironment {
	return NewAWSEnvironmentWithClients(sts.NewFromConfig(cfg), ec2.NewFromConfig(cfg))
}

// NewAWSEnvironmentWithClients creates an environment from explicit clients.
func NewAWSEnvironmentWithClients(stsClient STSAPI, ec2Client RegionsAPI) *AWSEnvironment {
	return &AWSEnvironment{sts: stsClient, ec2: ec2Client}
}

// AccountID returns the account of the calling credentials.
func (e *AWSEnvironment) AccountID(ctx context.Context) (string, error) {
	out, err := e.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("get caller identity: %w", err)
	}
	return aws.ToString(out.Account), nil
}

// EnabledRegions returns every region the account has not opted out of,
// in the order EC2 lists them.
func (e *AWSEnvironment) EnabledRegions(ctx context.Context) ([]string, error) {
	if len(e.Regions) > 0 {
		return e.Regions, nil
	}
	out, err := e.ec2.DescribeRegions(ctx, &ec2.DescribeRegionsInput{AllRegions: aws.Bool(true)})
	if err != nil {
		return nil, fmt.Errorf("describe regions: %w", err)
	}
	var regions []string
	for _, r := range out.Regions {
		if aws.ToString(r.OptInStatus) == optInStatusNotOptedIn {
			continue
		}
		regions = append(regions, aws.ToString(r.RegionName))
	}
	return regions, nil
}
