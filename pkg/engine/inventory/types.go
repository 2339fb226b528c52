// Package inventory defines the canonical resource model: the closed set of
// billable resource families, the cost-annotated entry envelope, and the
// aggregated discovery result the renderers consume.
package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// HoursPerMonth is the average billing month used to convert hourly rates
// into monthly estimates.
const HoursPerMonth = 730

// Family identifies one of the resource categories the scanner understands.
// The set is closed: adding a family requires a normalizer case, a pricing
// table, and an aggregator bucket.
type Family string

const (
	FamilyCompute         Family = "ec2"
	FamilyBlockVolume     Family = "ebs"
	FamilyObjectStore     Family = "s3"
	FamilyReservedAddress Family = "eip"
	FamilySnapshot        Family = "snapshot"
)

// AllFamilies returns every known family in report order.
func AllFamilies() []Family {
	return []Family{
		FamilyCompute,
		FamilyBlockVolume,
		FamilyObjectStore,
		FamilyReservedAddress,
		FamilySnapshot,
	}
}

// ParseFamily resolves a CLI service name into a Family.
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ec2", "compute", "instance", "instances":
		return FamilyCompute, nil
	case "ebs", "volume", "volumes":
		return FamilyBlockVolume, nil
	case "s3", "bucket", "buckets":
		return FamilyObjectStore, nil
	case "eip", "address", "addresses":
		return FamilyReservedAddress, nil
	case "snapshot", "snapshots":
		return FamilySnapshot, nil
	}
	return "", &ConfigError{Field: "services", Value: s, Reason: "unknown service"}
}

// ParseFamilies resolves a comma-separated service list. Empty input and
// "all" both select the full set.
func ParseFamilies(s string) ([]Family, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return AllFamilies(), nil
	}

	seen := make(map[Family]bool)
	var out []Family
	for _, part := range strings.Split(s, ",") {
		if strings.EqualFold(strings.TrimSpace(part), "all") {
			return AllFamilies(), nil
		}
		f, err := ParseFamily(part)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

func (f Family) String() string { return string(f) }

// Label returns the human heading used in reports.
func (f Family) Label() string {
	switch f {
	case FamilyCompute:
		return "EC2 Instances"
	case FamilyBlockVolume:
		return "EBS Volumes"
	case FamilyObjectStore:
		return "S3 Buckets"
	case FamilyReservedAddress:
		return "Elastic IPs"
	case FamilySnapshot:
		return "Snapshots"
	}
	return string(f)
}

// ComputeAttrs carries the instance-specific fields of an Entry.
type ComputeAttrs struct {
	InstanceClass string  `json:"instance_class"`
	State         string  `json:"state"`
	PublicIP      string  `json:"public_ip,omitempty"`
	PrivateIP     string  `json:"private_ip,omitempty"`
	VPCID         string  `json:"vpc_id,omitempty"`
	SubnetID      string  `json:"subnet_id,omitempty"`
	RunningHours  float64 `json:"running_hours"`
}

// VolumeAttrs carries the block-volume fields of an Entry.
type VolumeAttrs struct {
	Subtype   string `json:"subtype"`
	State     string `json:"state"`
	SizeGB    int32  `json:"size_gb"`
	Encrypted bool   `json:"encrypted"`
}

// BucketAttrs carries the object-store fields of an Entry. SizeGB is an
// estimate; SizeKnown is false when sizing was skipped or failed.
type BucketAttrs struct {
	StorageClass string  `json:"storage_class"`
	SizeGB       float64 `json:"size_gb"`
	SizeKnown    bool    `json:"size_known"`
	Versioning   bool    `json:"versioning"`
	Encrypted    bool    `json:"encrypted"`
}

// AddressAttrs carries the reserved-address fields of an Entry.
type AddressAttrs struct {
	PublicIP     string `json:"public_ip"`
	Associated   bool   `json:"associated"`
	AttachmentID string `json:"attachment_id,omitempty"`
}

// SnapshotAttrs carries the snapshot fields of an Entry.
type SnapshotAttrs struct {
	SourceVolumeID string `json:"source_volume_id"`
	State          string `json:"state"`
	SizeGB         int32  `json:"size_gb"`
}

// Entry is the canonical, cost-annotated representation of one discovered
// resource. Exactly one of the family attribute pointers is set, matching
// Family. Entries are immutable once constructed.
type Entry struct {
	Family    Family    `json:"family"`
	Region    string    `json:"region"`
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	Compute  *ComputeAttrs  `json:"compute,omitempty"`
	Volume   *VolumeAttrs   `json:"volume,omitempty"`
	Bucket   *BucketAttrs   `json:"bucket,omitempty"`
	Address  *AddressAttrs  `json:"address,omitempty"`
	Snapshot *SnapshotAttrs `json:"snapshot,omitempty"`

	// HourlyCost is nil for families billed purely per GB-month.
	HourlyCost  *float64 `json:"hourly_cost,omitempty"`
	MonthlyCost float64  `json:"monthly_cost"`
}

// FamilyTotal is one row of a CostSummary.
type FamilyTotal struct {
	Count       int     `json:"count"`
	MonthlyCost float64 `json:"monthly_cost"`
}

// CostSummary holds per-family subtotals and the grand total. It always
// contains a row for every known family, zero-valued when nothing was found.
type CostSummary struct {
	Families map[Family]FamilyTotal `json:"families"`
	Total    float64                `json:"total"`
}

// ScopeError records one (region, family) fetch failure that did not abort
// the scan.
type ScopeError struct {
	Region  string    `json:"region"`
	Family  Family    `json:"family"`
	Kind    FetchKind `json:"kind"`
	Message string    `json:"message"`
}

func (s ScopeError) Scope() string {
	return fmt.Sprintf("%s/%s", s.Region, s.Family)
}

// DiscoveryResult is the sole artifact of a scan: per-family ordered
// entries, the derived cost summary, timing, and any partial failures.
type DiscoveryResult struct {
	Entries    map[Family][]Entry `json:"entries"`
	Summary    CostSummary        `json:"summary"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Failures   []ScopeError       `json:"failures"`

	// Partial is true when failures were recorded or the scan was cancelled
	// before all (region, family) pairs completed.
	Partial bool `json:"partial"`
}

// AllEntries flattens the per-family collections in report order.
func (r *DiscoveryResult) AllEntries() []Entry {
	var out []Entry
	for _, f := range AllFamilies() {
		out = append(out, r.Entries[f]...)
	}
	return out
}

// TotalCount returns the number of discovered resources across families.
func (r *DiscoveryResult) TotalCount() int {
	n := 0
	for _, entries := range r.Entries {
		n += len(entries)
	}
	return n
}

// RawInstance is a provider-shape compute record prior to normalization.
type RawInstance struct {
	ID         string
	Class      string
	State      string
	PublicIP   string
	PrivateIP  string
	VPCID      string
	SubnetID   string
	LaunchTime time.Time
	Tags       map[string]string
}

// RawVolume is a provider-shape block-volume record.
type RawVolume struct {
	ID        string
	Subtype   string
	State     string
	SizeGB    int32
	Encrypted bool
	CreatedAt time.Time
	Tags      map[string]string
}

// RawBucket is a provider-shape object-store record. SizeBytes is only
// meaningful when SizeKnown is true.
type RawBucket struct {
	Name         string
	Region       string
	StorageClass string
	SizeBytes    int64
	SizeKnown    bool
	Versioning   bool
	Encrypted    bool
	CreatedAt    time.Time
}

// RawAddress is a provider-shape reserved-address record.
type RawAddress struct {
	PublicIP           string
	AllocationID       string
	InstanceID         string
	NetworkInterfaceID string
	AssociationID      string
}

// RawSnapshot is a provider-shape snapshot record.
type RawSnapshot struct {
	ID        string
	VolumeID  string
	State     string
	SizeGB    int32
	StartedAt time.Time
	Tags      map[string]string
}

// API is the external cloud collaborator the orchestrator fetches raw
// records through. Regional listings return typed FetchErrors so the caller
// can decide retry eligibility. Buckets are a global namespace; ListBuckets
// returns only those homed in the requested region so the (region, family)
// work axis stays uniform.
type API interface {
	ListRegions(ctx context.Context) ([]string, error)
	ListInstances(ctx context.Context, region string) ([]RawInstance, error)
	ListVolumes(ctx context.Context, region string) ([]RawVolume, error)
	ListBuckets(ctx context.Context, region string) ([]RawBucket, error)
	ListAddresses(ctx context.Context, region string) ([]RawAddress, error)
	ListSnapshots(ctx context.Context, region string) ([]RawSnapshot, error)
}

// Unit describes what a pricing rate is charged against.
type Unit string

const (
	UnitPerHour    Unit = "per-hour"
	UnitPerGBMonth Unit = "per-gb-month"
)

// PricingRow is one resolved rate from the catalog.
type PricingRow struct {
	Family  Family
	Subtype string
	Rate    float64
	Unit    Unit
}

// Pricer resolves unit costs. Implementations never fail: an unrecognized
// subtype resolves to the family default so unpriced resources stay visible.
type Pricer interface {
	Rate(family Family, subtype string, unit Unit) PricingRow
}
