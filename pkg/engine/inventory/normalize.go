package inventory

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"
)

// Defaults applied when a raw record is missing a non-identifying field.
// Records degrade rather than drop; only a missing identifier is fatal for
// that one record.
const (
	UnknownSubtype      = "unknown"
	DefaultStorageClass = "standard"
)

const bytesPerGB = 1024 * 1024 * 1024

// Normalizer converts provider-shape records into canonical entries and
// attaches computed costs. Transforms are deterministic given the raw
// record, the pricer, and Now.
type Normalizer struct {
	Pricer Pricer
	Logger *slog.Logger

	// Now anchors running-hours derivation. Injectable for reproducibility.
	Now func() time.Time
}

// NewNormalizer builds a Normalizer with safe defaults.
func NewNormalizer(p Pricer, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Normalizer{Pricer: p, Logger: logger, Now: time.Now}
}

// Instance normalizes one compute record. Hourly cost is the class rate;
// monthly cost assumes the 730-hour average month regardless of state.
func (n *Normalizer) Instance(raw RawInstance, region string) (Entry, error) {
	if raw.ID == "" {
		return Entry{}, fmt.Errorf("instance record: %w", ErrMissingIdentifier)
	}

	class := raw.Class
	if class == "" {
		n.Logger.Debug("instance missing class, using default rate", "id", raw.ID)
		class = UnknownSubtype
	}

	row := n.Pricer.Rate(FamilyCompute, class, UnitPerHour)
	hourly := row.Rate

	var runningHours float64
	if !raw.LaunchTime.IsZero() {
		runningHours = round2(n.Now().Sub(raw.LaunchTime).Hours())
		if runningHours < 0 {
			runningHours = 0
		}
	}

	return Entry{
		Family:    FamilyCompute,
		Region:    region,
		ID:        raw.ID,
		Name:      raw.Tags["Name"],
		CreatedAt: raw.LaunchTime,
		Compute: &ComputeAttrs{
			InstanceClass: class,
			State:         raw.State,
			PublicIP:      raw.PublicIP,
			PrivateIP:     raw.PrivateIP,
			VPCID:         raw.VPCID,
			SubnetID:      raw.SubnetID,
			RunningHours:  runningHours,
		},
		HourlyCost:  &hourly,
		MonthlyCost: round4(hourly * HoursPerMonth),
	}, nil
}

// Volume normalizes one block-volume record. Billed purely per GB-month, so
// hourly cost stays nil.
func (n *Normalizer) Volume(raw RawVolume, region string) (Entry, error) {
	if raw.ID == "" {
		return Entry{}, fmt.Errorf("volume record: %w", ErrMissingIdentifier)
	}

	subtype := raw.Subtype
	if subtype == "" {
		subtype = UnknownSubtype
	}

	row := n.Pricer.Rate(FamilyBlockVolume, subtype, UnitPerGBMonth)

	return Entry{
		Family:    FamilyBlockVolume,
		Region:    region,
		ID:        raw.ID,
		Name:      raw.Tags["Name"],
		CreatedAt: raw.CreatedAt,
		Volume: &VolumeAttrs{
			Subtype:   subtype,
			State:     raw.State,
			SizeGB:    raw.SizeGB,
			Encrypted: raw.Encrypted,
		},
		MonthlyCost: round4(float64(raw.SizeGB) * row.Rate),
	}, nil
}

// Bucket normalizes one object-store record. Size is an estimate and may be
// absent entirely when sizing was skipped; the entry is still produced with
// zero size so the bucket stays visible.
func (n *Normalizer) Bucket(raw RawBucket, region string) (Entry, error) {
	if raw.Name == "" {
		return Entry{}, fmt.Errorf("bucket record: %w", ErrMissingIdentifier)
	}

	class := raw.StorageClass
	if class == "" {
		class = DefaultStorageClass
	}

	row := n.Pricer.Rate(FamilyObjectStore, class, UnitPerGBMonth)

	var sizeGB float64
	if raw.SizeKnown {
		sizeGB = round4(float64(raw.SizeBytes) / bytesPerGB)
	}

	return Entry{
		Family:    FamilyObjectStore,
		Region:    region,
		ID:        raw.Name,
		Name:      raw.Name,
		CreatedAt: raw.CreatedAt,
		Bucket: &BucketAttrs{
			StorageClass: class,
			SizeGB:       sizeGB,
			SizeKnown:    raw.SizeKnown,
			Versioning:   raw.Versioning,
			Encrypted:    raw.Encrypted,
		},
		MonthlyCost: round4(sizeGB * row.Rate),
	}, nil
}

// Address normalizes one reserved-address record. Only unassociated
// addresses accrue the idle rate; associated ones price at zero but are
// still listed.
func (n *Normalizer) Address(raw RawAddress, region string) (Entry, error) {
	if raw.AllocationID == "" && raw.PublicIP == "" {
		return Entry{}, fmt.Errorf("address record: %w", ErrMissingIdentifier)
	}

	id := raw.AllocationID
	if id == "" {
		id = raw.PublicIP
	}

	attachment := raw.AssociationID
	if attachment == "" {
		attachment = raw.InstanceID
	}
	if attachment == "" {
		attachment = raw.NetworkInterfaceID
	}
	associated := attachment != ""

	hourly := 0.0
	if !associated {
		hourly = n.Pricer.Rate(FamilyReservedAddress, "idle", UnitPerHour).Rate
	}

	return Entry{
		Family: FamilyReservedAddress,
		Region: region,
		ID:     id,
		Name:   raw.PublicIP,
		Address: &AddressAttrs{
			PublicIP:     raw.PublicIP,
			Associated:   associated,
			AttachmentID: attachment,
		},
		HourlyCost:  &hourly,
		MonthlyCost: round4(hourly * HoursPerMonth),
	}, nil
}

// Snapshot normalizes one snapshot record.
func (n *Normalizer) Snapshot(raw RawSnapshot, region string) (Entry, error) {
	if raw.ID == "" {
		return Entry{}, fmt.Errorf("snapshot record: %w", ErrMissingIdentifier)
	}

	row := n.Pricer.Rate(FamilySnapshot, "standard", UnitPerGBMonth)

	return Entry{
		Family:    FamilySnapshot,
		Region:    region,
		ID:        raw.ID,
		Name:      raw.Tags["Name"],
		CreatedAt: raw.StartedAt,
		Snapshot: &SnapshotAttrs{
			SourceVolumeID: raw.VolumeID,
			State:          raw.State,
			SizeGB:         raw.SizeGB,
		},
		MonthlyCost: round4(float64(raw.SizeGB) * row.Rate),
	}, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
