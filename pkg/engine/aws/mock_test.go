package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/idiya2016/cloud-resource-archaeologist/pkg/engine/inventory"
)

func TestMockAPIFixtureShape(t *testing.T) {
	m := NewMockAPI()
	ctx := context.Background()

	regions, err := m.ListRegions(ctx)
	if err != nil || len(regions) != 2 {
		t.Fatalf("expected 2 regions, got %v (%v)", regions, err)
	}

	instances, _ := m.ListInstances(ctx, "us-east-1")
	if len(instances) != 2 {
		t.Errorf("expected 2 instances in us-east-1, got %d", len(instances))
	}
	if empty, _ := m.ListInstances(ctx, "eu-west-1"); len(empty) != 0 {
		t.Errorf("expected no instances in eu-west-1, got %d", len(empty))
	}

	buckets, _ := m.ListBuckets(ctx, "eu-west-1")
	if len(buckets) != 1 || !buckets[0].SizeKnown {
		t.Errorf("expected one sized bucket in eu-west-1, got %+v", buckets)
	}
}

func TestMockAPIInjectedFailureCountdown(t *testing.T) {
	m := NewMockAPI()
	m.Fail = map[string]*InjectedFailure{
		"us-east-1/ec2": {Kind: inventory.KindThrottled, Err: errors.New("Throttling"), Count: 1},
	}
	ctx := context.Background()

	_, err := m.ListInstances(ctx, "us-east-1")
	var fe *inventory.FetchError
	if !errors.As(err, &fe) || fe.Kind != inventory.KindThrottled {
		t.Fatalf("expected throttled FetchError, got %v", err)
	}

	// Count exhausted: the next call succeeds.
	if _, err := m.ListInstances(ctx, "us-east-1"); err != nil {
		t.Errorf("expected success after countdown, got %v", err)
	}

	// Other scopes are unaffected throughout.
	if _, err := m.ListVolumes(ctx, "us-east-1"); err != nil {
		t.Errorf("volume scope should be unaffected, got %v", err)
	}
}

func TestMockAPIPersistentFailure(t *testing.T) {
	m := NewMockAPI()
	m.Fail = map[string]*InjectedFailure{
		"eu-west-1/s3": {Kind: inventory.KindUnauthorized, Err: errors.New("AccessDenied"), Count: -1},
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := m.ListBuckets(ctx, "eu-west-1"); err == nil {
			t.Fatalf("call %d: expected persistent failure", i)
		}
	}
}
