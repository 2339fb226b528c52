package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/idiya2016/cloud-resource-archaeologist/pkg/engine/inventory"
)

// EC2Client is the subset of the EC2 API the archaeologist calls.
type EC2Client interface {
	DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error)
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	DescribeVolumes(ctx context.Context, params *ec2.DescribeVolumesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVolumesOutput, error)
	DescribeAddresses(ctx context.Context, params *ec2.DescribeAddressesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeAddressesOutput, error)
	DescribeSnapshots(ctx context.Context, params *ec2.DescribeSnapshotsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSnapshotsOutput, error)
}

// ec2Regional returns a cached EC2 client for the region.
func (a *LiveAPI) ec2Regional(region string) EC2Client {
	a.mu.Lock()
	defer a.mu.Unlock()
	if c, ok := a.ec2Clients[region]; ok {
		return c
	}
	c := ec2.NewFromConfig(a.base.ConfigForRegion(region))
	a.ec2Clients[region] = c
	return c
}

// ListRegions enumerates the regions enabled for the account. Called once
// per run; the result is the immutable region universe for the scan.
func (a *LiveAPI) ListRegions(ctx context.Context) ([]string, error) {
	out, err := a.ec2Regional(a.base.Config.Region).DescribeRegions(ctx, &ec2.DescribeRegionsInput{})
	if err != nil {
		return nil, err
	}

	var regions []string
	for _, r := range out.Regions {
		if r.RegionName != nil {
			regions = append(regions, *r.RegionName)
		}
	}
	return regions, nil
}

// ListInstances returns raw compute records for one region.
func (a *LiveAPI) ListInstances(ctx context.Context, region string) ([]inventory.RawInstance, error) {
	client := a.ec2Regional(region)
	paginator := ec2.NewDescribeInstancesPaginator(client, &ec2.DescribeInstancesInput{})

	var raws []inventory.RawInstance
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, wrap(err, region, inventory.FamilyCompute)
		}

		for _, reservation := range page.Reservations {
			for _, instance := range reservation.Instances {
				raw := inventory.RawInstance{
					ID:        deref(instance.InstanceId),
					Class:     string(instance.InstanceType),
					PublicIP:  deref(instance.PublicIpAddress),
					PrivateIP: deref(instance.PrivateIpAddress),
					VPCID:     deref(instance.VpcId),
					SubnetID:  deref(instance.SubnetId),
					Tags:      tagMap(instance.Tags),
				}
				if instance.State != nil {
					raw.State = string(instance.State.Name)
				}
				if instance.LaunchTime != nil {
					raw.LaunchTime = *instance.LaunchTime
				}
				raws = append(raws, raw)
			}
		}
	}
	return raws, nil
}

// ListVolumes returns raw block-volume records for one region.
func (a *LiveAPI) ListVolumes(ctx context.Context, region string) ([]inventory.RawVolume, error) {
	client := a.ec2Regional(region)
	paginator := ec2.NewDescribeVolumesPaginator(client, &ec2.DescribeVolumesInput{})

	var raws []inventory.RawVolume
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, wrap(err, region, inventory.FamilyBlockVolume)
		}

		for _, volume := range page.Volumes {
			raw := inventory.RawVolume{
				ID:      deref(volume.VolumeId),
				Subtype: string(volume.VolumeType),
				State:   string(volume.State),
				Tags:    tagMap(volume.Tags),
			}
			if volume.Size != nil {
				raw.SizeGB = *volume.Size
			}
			if volume.Encrypted != nil {
				raw.Encrypted = *volume.Encrypted
			}
			if volume.CreateTime != nil {
				raw.CreatedAt = *volume.CreateTime
			}
			raws = append(raws, raw)
		}
	}
	return raws, nil
}

// ListAddresses returns raw reserved-address records for one region.
func (a *LiveAPI) ListAddresses(ctx context.Context, region string) ([]inventory.RawAddress, error) {
	out, err := a.ec2Regional(region).DescribeAddresses(ctx, &ec2.DescribeAddressesInput{})
	if err != nil {
		return nil, wrap(err, region, inventory.FamilyReservedAddress)
	}

	var raws []inventory.RawAddress
	for _, addr := range out.Addresses {
		raws = append(raws, inventory.RawAddress{
			PublicIP:           deref(addr.PublicIp),
			AllocationID:       deref(addr.AllocationId),
			InstanceID:         deref(addr.InstanceId),
			NetworkInterfaceID: deref(addr.NetworkInterfaceId),
			AssociationID:      deref(addr.AssociationId),
		})
	}
	return raws, nil
}

// ListSnapshots returns raw snapshot records owned by the account for one
// region.
func (a *LiveAPI) ListSnapshots(ctx context.Context, region string) ([]inventory.RawSnapshot, error) {
	client := a.ec2Regional(region)
	paginator := ec2.NewDescribeSnapshotsPaginator(client, &ec2.DescribeSnapshotsInput{
		OwnerIds: []string{"self"},
	})

	var raws []inventory.RawSnapshot
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, wrap(err, region, inventory.FamilySnapshot)
		}

		for _, snap := range page.Snapshots {
			raw := inventory.RawSnapshot{
				ID:       deref(snap.SnapshotId),
				VolumeID: deref(snap.VolumeId),
				State:    string(snap.State),
				Tags:     tagMap(snap.Tags),
			}
			if snap.VolumeSize != nil {
				raw.SizeGB = *snap.VolumeSize
			}
			if snap.StartTime != nil {
				raw.StartedAt = *snap.StartTime
			}
			raws = append(raws, raw)
		}
	}
	return raws, nil
}
