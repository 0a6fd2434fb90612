package discovery

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/jacentio/inventory/urn"
)

// mockSTSClient implements STSAPI for testing.
type mockSTSClient struct {
	getCallerIdentityFunc func(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

func (m *mockSTSClient) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	if m.getCallerIdentityFunc != nil {
		return m.getCallerIdentityFunc(ctx, params, optFns...)
	}
	return &sts.GetCallerIdentityOutput{}, nil
}

// mockEC2Client implements RegionsAPI and VPCAPI for testing.
type mockEC2Client struct {
	describeRegionsFunc      func(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error)
	describeVpcsFunc         func(ctx context.Context, params *ec2.DescribeVpcsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error)
	describeVpcAttributeFunc func(ctx context.Context, params *ec2.DescribeVpcAttributeInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVpcAttributeOutput, error)
}

func (m *mockEC2Client) DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error) {
	if m.describeRegionsFunc != nil {
		return m.describeRegionsFunc(ctx, params, optFns...)
	}
	return &ec2.DescribeRegionsOutput{}, nil
}

func (m *mockEC2Client) DescribeVpcs(ctx context.Context, params *ec2.DescribeVpcsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error) {
	if m.describeVpcsFunc != nil {
		return m.describeVpcsFunc(ctx, params, optFns...)
	}
	return &ec2.DescribeVpcsOutput{}, nil
}

func (m *mockEC2Client) DescribeVpcAttribute(ctx context.Context, params *ec2.DescribeVpcAttributeInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVpcAttributeOutput, error) {
	if m.describeVpcAttributeFunc != nil {
		return m.describeVpcAttributeFunc(ctx, params, optFns...)
	}
	return &ec2.DescribeVpcAttributeOutput{}, nil
}

// staticEnvironment is a fixed Environment.
type staticEnvironment struct {
	accountID string
	regions   []string
	err       error
}

func (e staticEnvironment) AccountID(context.Context) (string, error) {
	return e.accountID, e.err
}

func (e staticEnvironment) EnabledRegions(context.Context) ([]string, error) {
	return e.regions, e.err
}

// mapFetcher serves resources from a map keyed by region.
type mapFetcher struct {
	service, resourceType string
	byRegion              map[string][]Discovered
	errRegion             string
	calls                 []urn.URN
}

func (f *mapFetcher) Service() string      { return f.service }
func (f *mapFetcher) ResourceType() string { return f.resourceType }

func (f *mapFetcher) Fetch(_ context.Context, u urn.URN) ([]Discovered, error) {
	f.calls = append(f.calls, u)
	if u.Region == f.errRegion {
		return nil, errFetch
	}
	return f.byRegion[u.Region], nil
}
