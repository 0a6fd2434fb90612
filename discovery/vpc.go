package discovery

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/jacentio/inventory/urn"
)

// AttributeVPCEnableDNSSupport is the secondary attribute holding a VPC's
// enableDnsSupport setting.
const AttributeVPCEnableDNSSupport = "vpc_enable_dns_support"

// VPCAPI defines the EC2 operations used by the VPC fetcher.
type VPCAPI interface {
	DescribeVpcs(ctx context.Context, params *ec2.DescribeVpcsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error)
	DescribeVpcAttribute(ctx context.Context, params *ec2.DescribeVpcAttributeInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVpcAttributeOutput, error)
}

var _ VPCAPI = (*ec2.Client)(nil)

// VPCFetcher fetches EC2 VPCs and their DNS support attribute.
type VPCFetcher struct {
	newClient func(region string) VPCAPI

	mu      sync.Mutex
	clients map[string]VPCAPI
}

// NewVPCFetcher creates a fetcher with one EC2 client per region.
func NewVPCFetcher(cfg aws.Config) *VPCFetcher {
	return NewVPCFetcherWithClients(func(region string) VPCAPI {
		return ec2.NewFromConfig(cfg, func(o *ec2.Options) {
			o.Region = region
		})
	})
}

// NewVPCFetcherWithClients creates a fetcher whose clients come from newClient.
func NewVPCFetcherWithClients(newClient func(region string) VPCAPI) *VPCFetcher {
	return &VPCFetcher{
		newClient: newClient,
		clients:   make(map[string]VPCAPI),
	}
}

// Service returns "ec2".
func (f *VPCFetcher) Service() string { return "ec2" }

// ResourceType returns "vpc".
func (f *VPCFetcher) ResourceType() string { return "vpc" }

// Fetch describes the VPCs u covers, with their DNS support attribute.
func (f *VPCFetcher) Fetch(ctx context.Context, u urn.URN) ([]Discovered, error) {
	client := f.client(u.Region)

	input := &ec2.DescribeVpcsInput{}
	if u.ResourceID != urn.Wildcard {
		input.VpcIds = []string{u.ResourceID}
	}

	var discovered []Discovered
	paginator := ec2.NewDescribeVpcsPaginator(client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe vpcs in %s: %w", u.Region, err)
		}
		for _, vpc := range page.Vpcs {
			d, err := f.convert(ctx, client, u, vpc)
			if err != nil {
				return nil, err
			}
			discovered = append(discovered, d)
		}
	}
	return discovered, nil
}

func (f *VPCFetcher) convert(ctx context.Context, client VPCAPI, scope urn.URN, vpc types.Vpc) (Discovered, error) {
	vpcID := aws.ToString(vpc.VpcId)

	out, err := client.DescribeVpcAttribute(ctx, &ec2.DescribeVpcAttributeInput{
		VpcId:     vpc.VpcId,
		Attribute: types.VpcAttributeNameEnableDnsSupport,
	})
	if err != nil {
		return Discovered{}, fmt.Errorf("describe vpc attribute %s: %w", vpcID, err)
	}

	d := Discovered{
		URN:     urn.New(scope.AccountID, scope.Region, f.Service(), f.ResourceType(), vpcID),
		Payload: vpc,
	}
	if out.EnableDnsSupport != nil {
		d.Attributes = append(d.Attributes, Attribute{
			Type: AttributeVPCEnableDNSSupport,
			Payload: map[string]any{
				"VpcId": vpcID,
				"EnableDnsSupport": map[string]any{
					"Value": aws.ToBool(out.EnableDnsSupport.Value),
				},
			},
		})
	}
	return d, nil
}

func (f *VPCFetcher) client(region string) VPCAPI {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[region]
	if !ok {
		c = f.newClient(region)
		f.clients[region] = c
	}
	return c
}
