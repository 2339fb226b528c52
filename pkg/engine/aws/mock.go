package aws

import (
	"context"
	"time"

	"github.com/idiya2016/cloud-resource-archaeologist/pkg/engine/inventory"
)

// MockAPI is a deterministic in-memory implementation of inventory.API.
// It powers --mock runs and tests without touching real endpoints.
type MockAPI struct {
	Regions   []string
	Instances map[string][]inventory.RawInstance
	Volumes   map[string][]inventory.RawVolume
	Buckets   map[string][]inventory.RawBucket
	Addresses map[string][]inventory.RawAddress
	Snapshots map[string][]inventory.RawSnapshot

	// Fail injects a FetchError for a (region, family) pair. Each hit
	// decrements the count so throttle-then-succeed sequences can be
	// simulated.
	Fail map[string]*InjectedFailure
}

// InjectedFailure describes a simulated fetch failure.
type InjectedFailure struct {
	Kind  inventory.FetchKind
	Err   error
	Count int // remaining failures; <0 means always fail
}

var _ inventory.API = (*MockAPI)(nil)

// NewMockAPI returns a small simulated account: two regions holding one
// resource of every family plus a second stopped instance and an idle
// address.
func NewMockAPI() *MockAPI {
	launch := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	return &MockAPI{
		Regions: []string{"us-east-1", "eu-west-1"},
		Instances: map[string][]inventory.RawInstance{
			"us-east-1": {
				{
					ID: "i-0mock1aaa", Class: "t3.medium", State: "running",
					PublicIP: "203.0.113.10", PrivateIP: "10.0.1.10",
					VPCID: "vpc-0mock", SubnetID: "subnet-0mock",
					LaunchTime: launch,
					Tags:       map[string]string{"Name": "api-server"},
				},
				{
					ID: "i-0mock1bbb", Class: "t2.micro", State: "stopped",
					PrivateIP:  "10.0.1.11",
					LaunchTime: launch.Add(-30 * 24 * time.Hour),
					Tags:       map[string]string{"Name": "batch-worker"},
				},
			},
		},
		Volumes: map[string][]inventory.RawVolume{
			"us-east-1": {
				{ID: "vol-0mock100", Subtype: "gp3", State: "in-use", SizeGB: 100, Encrypted: true, CreatedAt: launch},
				{ID: "vol-0mock200", Subtype: "gp2", State: "available", SizeGB: 50, CreatedAt: launch},
			},
		},
		Buckets: map[string][]inventory.RawBucket{
			"eu-west-1": {
				{
					Name: "mock-artifacts", Region: "eu-west-1",
					StorageClass: "standard",
					SizeBytes:    5 * 1024 * 1024 * 1024, SizeKnown: true,
					Versioning: true, Encrypted: true,
					CreatedAt: launch,
				},
			},
		},
		Addresses: map[string][]inventory.RawAddress{
			"us-east-1": {
				{PublicIP: "198.51.100.7", AllocationID: "eipalloc-0mock1", InstanceID: "i-0mock1aaa", AssociationID: "eipassoc-0mock1"},
				{PublicIP: "198.51.100.8", AllocationID: "eipalloc-0mock2"},
			},
		},
		Snapshots: map[string][]inventory.RawSnapshot{
			"eu-west-1": {
				{ID: "snap-0mock1", VolumeID: "vol-0mock100", State: "completed", SizeGB: 100, StartedAt: launch},
			},
		},
	}
}

func (m *MockAPI) ListRegions(ctx context.Context) ([]string, error) {
	return append([]string(nil), m.Regions...), nil
}

func (m *MockAPI) fail(region string, family inventory.Family) error {
	key := region + "/" + string(family)
	inj, ok := m.Fail[key]
	if !ok || inj.Count == 0 {
		return nil
	}
	if inj.Count > 0 {
		inj.Count--
	}
	return &inventory.FetchError{Kind: inj.Kind, Region: region, Family: family, Err: inj.Err}
}

func (m *MockAPI) ListInstances(ctx context.Context, region string) ([]inventory.RawInstance, error) {
	if err := m.fail(region, inventory.FamilyCompute); err != nil {
		return nil, err
	}
	return m.Instances[region], nil
}

func (m *MockAPI) ListVolumes(ctx context.Context, region string) ([]inventory.RawVolume, error) {
	if err := m.fail(region, inventory.FamilyBlockVolume); err != nil {
		return nil, err
	}
	return m.Volumes[region], nil
}

func (m *MockAPI) ListBuckets(ctx context.Context, region string) ([]inventory.RawBucket, error) {
	if err := m.fail(region, inventory.FamilyObjectStore); err != nil {
		return nil, err
	}
	return m.Buckets[region], nil
}

func (m *MockAPI) ListAddresses(ctx context.Context, region string) ([]inventory.RawAddress, error) {
	if err := m.fail(region, inventory.FamilyReservedAddress); err != nil {
		return nil, err
	}
	return m.Addresses[region], nil
}

func (m *MockAPI) ListSnapshots(ctx context.Context, region string) ([]inventory.RawSnapshot, error) {
	if err := m.fail(region, inventory.FamilySnapshot); err != nil {
		return nil, err
	}
	return m.Snapshots[region], nil
}
