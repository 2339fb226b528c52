package inventory

import "testing"

func TestParseFamilies(t *testing.T) {
	all, err := ParseFamilies("all")
	if err != nil || len(all) != 5 {
		t.Fatalf("expected all 5 families, got %v (%v)", all, err)
	}
	empty, err := ParseFamilies("")
	if err != nil || len(empty) != 5 {
		t.Fatalf("empty input should select everything, got %v (%v)", empty, err)
	}

	subset, err := ParseFamilies("ec2, snapshots ,ebs")
	if err != nil {
		t.Fatalf("ParseFamilies failed: %v", err)
	}
	want := []Family{FamilyCompute, FamilySnapshot, FamilyBlockVolume}
	if len(subset) != len(want) {
		t.Fatalf("expected %v, got %v", want, subset)
	}
	for i := range want {
		if subset[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], subset[i])
		}
	}

	deduped, err := ParseFamilies("ec2,ec2,instances")
	if err != nil || len(deduped) != 1 {
		t.Errorf("expected aliases deduplicated to one family, got %v (%v)", deduped, err)
	}

	if _, err := ParseFamilies("ec2,lambda"); err == nil {
		t.Error("expected error for unknown service")
	}
}

func TestFetchKindRetryable(t *testing.T) {
	if !KindThrottled.Retryable() || !KindTransientNetwork.Retryable() {
		t.Error("throttled and transient-network should be retryable")
	}
	if KindUnauthorized.Retryable() || KindUnknown.Retryable() {
		t.Error("unauthorized and unknown should not be retryable")
	}
}

func TestScopeErrorScope(t *testing.T) {
	s := ScopeError{Region: "us-east-1", Family: FamilyBlockVolume}
	if s.Scope() != "us-east-1/ebs" {
		t.Errorf("unexpected scope %q", s.Scope())
	}
}
