package inventory

import (
	"errors"
	"testing"
	"time"
)

// stubPricer returns a fixed rate per (family, subtype) with a catchall
// default, recording the subtypes it was asked for.
type stubPricer struct {
	rates    map[string]float64
	fallback float64
	asked    []string
}

func (s *stubPricer) Rate(family Family, subtype string, unit Unit) PricingRow {
	s.asked = append(s.asked, string(family)+"/"+subtype)
	rate, ok := s.rates[string(family)+"/"+subtype]
	if !ok {
		rate = s.fallback
	}
	return PricingRow{Family: family, Subtype: subtype, Rate: rate, Unit: unit}
}

func fixedNormalizer(p Pricer) *Normalizer {
	n := NewNormalizer(p, nil)
	n.Now = func() time.Time {
		return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	}
	return n
}

func TestInstanceMonthlyCost(t *testing.T) {
	p := &stubPricer{rates: map[string]float64{"ec2/t3.nano": 0.02}}
	n := fixedNormalizer(p)

	e, err := n.Instance(RawInstance{ID: "i-1", Class: "t3.nano", State: "running"}, "us-east-1")
	if err != nil {
		t.Fatalf("Instance failed: %v", err)
	}
	if e.HourlyCost == nil || *e.HourlyCost != 0.02 {
		t.Errorf("expected hourly 0.02, got %v", e.HourlyCost)
	}
	// 0.02 * 730
	if e.MonthlyCost != 14.60 {
		t.Errorf("expected monthly 14.60, got %v", e.MonthlyCost)
	}
}

func TestInstanceRunningHours(t *testing.T) {
	p := &stubPricer{fallback: 0.05}
	n := fixedNormalizer(p)

	launch := time.Date(2025, 3, 11, 7, 30, 0, 0, time.UTC) // 100.5h before Now
	e, err := n.Instance(RawInstance{ID: "i-1", Class: "t2.micro", LaunchTime: launch}, "us-east-1")
	if err != nil {
		t.Fatalf("Instance failed: %v", err)
	}
	if e.Compute.RunningHours != 100.5 {
		t.Errorf("expected 100.5 running hours, got %v", e.Compute.RunningHours)
	}

	// Zero launch time means no hours derivation at all.
	e2, _ := n.Instance(RawInstance{ID: "i-2", Class: "t2.micro"}, "us-east-1")
	if e2.Compute.RunningHours != 0 {
		t.Errorf("expected 0 running hours for zero launch, got %v", e2.Compute.RunningHours)
	}
}

func TestInstanceMissingClassUsesUnknownSubtype(t *testing.T) {
	p := &stubPricer{fallback: 0.05}
	n := fixedNormalizer(p)

	e, err := n.Instance(RawInstance{ID: "i-1"}, "us-east-1")
	if err != nil {
		t.Fatalf("Instance failed: %v", err)
	}
	if e.Compute.InstanceClass != UnknownSubtype {
		t.Errorf("expected class %q, got %q", UnknownSubtype, e.Compute.InstanceClass)
	}
	if len(p.asked) != 1 || p.asked[0] != "ec2/unknown" {
		t.Errorf("expected pricer asked for ec2/unknown, got %v", p.asked)
	}
}

func TestVolumeCost(t *testing.T) {
	p := &stubPricer{rates: map[string]float64{"ebs/gp2": 0.10}}
	n := fixedNormalizer(p)

	e, err := n.Volume(RawVolume{ID: "vol-1", Subtype: "gp2", State: "available", SizeGB: 50}, "us-east-1")
	if err != nil {
		t.Fatalf("Volume failed: %v", err)
	}
	if e.HourlyCost != nil {
		t.Error("volumes should not carry an hourly cost")
	}
	if e.MonthlyCost != 5.0 {
		t.Errorf("expected monthly 5.0, got %v", e.MonthlyCost)
	}
}

func TestBucketSizeConversion(t *testing.T) {
	p := &stubPricer{rates: map[string]float64{"s3/standard": 0.023}}
	n := fixedNormalizer(p)

	e, err := n.Bucket(RawBucket{Name: "b", SizeBytes: 5 << 30, SizeKnown: true}, "eu-west-1")
	if err != nil {
		t.Fatalf("Bucket failed: %v", err)
	}
	if e.Bucket.StorageClass != DefaultStorageClass {
		t.Errorf("expected default storage class, got %q", e.Bucket.StorageClass)
	}
	if e.Bucket.SizeGB != 5.0 {
		t.Errorf("expected 5 GB, got %v", e.Bucket.SizeGB)
	}
	if e.MonthlyCost != 0.115 {
		t.Errorf("expected monthly 0.115, got %v", e.MonthlyCost)
	}
}

func TestBucketUnknownSizeStaysVisible(t *testing.T) {
	p := &stubPricer{rates: map[string]float64{"s3/standard": 0.023}}
	n := fixedNormalizer(p)

	e, err := n.Bucket(RawBucket{Name: "b"}, "eu-west-1")
	if err != nil {
		t.Fatalf("Bucket failed: %v", err)
	}
	if e.Bucket.SizeKnown {
		t.Error("expected unknown size")
	}
	if e.MonthlyCost != 0 {
		t.Errorf("expected zero cost for unsized bucket, got %v", e.MonthlyCost)
	}
}

func TestAddressPricing(t *testing.T) {
	p := &stubPricer{rates: map[string]float64{"eip/idle": 0.005}}
	n := fixedNormalizer(p)

	idle, err := n.Address(RawAddress{PublicIP: "198.51.100.8", AllocationID: "eipalloc-1"}, "us-east-1")
	if err != nil {
		t.Fatalf("Address failed: %v", err)
	}
	if idle.Address.Associated {
		t.Error("expected unassociated")
	}
	// 0.005 * 730
	if idle.MonthlyCost != 3.65 {
		t.Errorf("expected monthly 3.65, got %v", idle.MonthlyCost)
	}

	attached, err := n.Address(RawAddress{
		PublicIP: "198.51.100.9", AllocationID: "eipalloc-2", InstanceID: "i-1",
	}, "us-east-1")
	if err != nil {
		t.Fatalf("Address failed: %v", err)
	}
	if !attached.Address.Associated {
		t.Error("expected associated")
	}
	if attached.MonthlyCost != 0 {
		t.Errorf("associated address should cost 0, got %v", attached.MonthlyCost)
	}
}

func TestSnapshotCost(t *testing.T) {
	p := &stubPricer{rates: map[string]float64{"snapshot/standard": 0.05}}
	n := fixedNormalizer(p)

	e, err := n.Snapshot(RawSnapshot{ID: "snap-1", VolumeID: "vol-1", State: "completed", SizeGB: 100}, "eu-west-1")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if e.MonthlyCost != 5.0 {
		t.Errorf("expected monthly 5.0, got %v", e.MonthlyCost)
	}
	if e.Snapshot.SourceVolumeID != "vol-1" {
		t.Errorf("expected source volume vol-1, got %q", e.Snapshot.SourceVolumeID)
	}
}

func TestMissingIdentifierRejected(t *testing.T) {
	p := &stubPricer{fallback: 0.05}
	n := fixedNormalizer(p)

	if _, err := n.Instance(RawInstance{}, "r"); !errors.Is(err, ErrMissingIdentifier) {
		t.Errorf("expected ErrMissingIdentifier for instance without ID, got %v", err)
	}
	if _, err := n.Volume(RawVolume{}, "r"); !errors.Is(err, ErrMissingIdentifier) {
		t.Errorf("expected ErrMissingIdentifier for volume without ID, got %v", err)
	}
	if _, err := n.Bucket(RawBucket{}, "r"); !errors.Is(err, ErrMissingIdentifier) {
		t.Errorf("expected ErrMissingIdentifier for bucket without name, got %v", err)
	}
	if _, err := n.Address(RawAddress{}, "r"); !errors.Is(err, ErrMissingIdentifier) {
		t.Errorf("expected ErrMissingIdentifier for address without ID or IP, got %v", err)
	}
	if _, err := n.Snapshot(RawSnapshot{}, "r"); !errors.Is(err, ErrMissingIdentifier) {
		t.Errorf("expected ErrMissingIdentifier for snapshot without ID, got %v", err)
	}

	// The dropped record is not a configuration failure; it must never look
	// like one to the caller.
	var cfgErr *ConfigError
	if _, err := n.Instance(RawInstance{}, "r"); errors.As(err, &cfgErr) {
		t.Error("missing identifier should not surface as a ConfigError")
	}
}

func TestNormalizationDeterminism(t *testing.T) {
	p := &stubPricer{rates: map[string]float64{"ec2/t3.medium": 0.0416}}
	n := fixedNormalizer(p)

	raw := RawInstance{
		ID: "i-1", Class: "t3.medium", State: "running",
		LaunchTime: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
		Tags:       map[string]string{"Name": "api"},
	}
	a, _ := n.Instance(raw, "us-east-1")
	b, _ := n.Instance(raw, "us-east-1")
	if *a.HourlyCost != *b.HourlyCost || a.MonthlyCost != b.MonthlyCost || a.Compute.RunningHours != b.Compute.RunningHours {
		t.Error("normalization is not deterministic for identical input")
	}
}
