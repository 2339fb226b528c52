package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/smithy-go"

	"github.com/idiya2016/cloud-resource-archaeologist/pkg/engine/inventory"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want inventory.FetchKind
	}{
		{"throttling", &smithy.GenericAPIError{Code: "Throttling"}, inventory.KindThrottled},
		{"request limit", &smithy.GenericAPIError{Code: "RequestLimitExceeded"}, inventory.KindThrottled},
		{"s3 slowdown", &smithy.GenericAPIError{Code: "SlowDown"}, inventory.KindThrottled},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, inventory.KindUnauthorized},
		{"unauthorized op", &smithy.GenericAPIError{Code: "UnauthorizedOperation"}, inventory.KindUnauthorized},
		{"net timeout", timeoutErr{}, inventory.KindTransientNetwork},
		{"deadline", context.DeadlineExceeded, inventory.KindTransientNetwork},
		{"other api error", &smithy.GenericAPIError{Code: "ValidationError"}, inventory.KindUnknown},
		{"plain error", errors.New("boom"), inventory.KindUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != tc.want {
				t.Errorf("Classify(%v) = %s, want %s", tc.err, got, tc.want)
			}
		})
	}
}

func TestWrapBuildsFetchError(t *testing.T) {
	inner := &smithy.GenericAPIError{Code: "Throttling"}
	err := wrap(inner, "us-east-1", inventory.FamilyCompute)

	var fe *inventory.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %T", err)
	}
	if fe.Kind != inventory.KindThrottled || fe.Region != "us-east-1" || fe.Family != inventory.FamilyCompute {
		t.Errorf("unexpected FetchError: %+v", fe)
	}
	if !errors.Is(err, inner) {
		t.Error("wrapped error should unwrap to the SDK error")
	}

	if wrap(nil, "us-east-1", inventory.FamilyCompute) != nil {
		t.Error("wrap(nil) should be nil")
	}
}
