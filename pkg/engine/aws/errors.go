package aws

import (
	"context"
	"errors"
	"net"

	"github.com/aws/smithy-go"

	"github.com/idiya2016/cloud-resource-archaeologist/pkg/engine/inventory"
)

// API error codes that signal rate limiting.
var throttleCodes = map[string]bool{
	"Throttling":                             true,
	"ThrottlingException":                    true,
	"RequestLimitExceeded":                   true,
	"TooManyRequestsException":               true,
	"SlowDown":                               true,
	"ProvisionedThroughputExceededException": true,
}

// API error codes that signal missing permissions for the call.
var unauthorizedCodes = map[string]bool{
	"UnauthorizedOperation": true,
	"AccessDenied":          true,
	"AccessDeniedException": true,
	"AuthFailure":           true,
	"OptInRequired":         true,
}

// Classify maps an SDK error onto the retry taxonomy. Throttled and
// TransientNetwork are retry-eligible; Unauthorized is recorded without
// retrying.
func Classify(err error) inventory.FetchKind {
	if err == nil {
		return inventory.KindUnknown
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		switch {
		case throttleCodes[code]:
			return inventory.KindThrottled
		case unauthorizedCodes[code]:
			return inventory.KindUnauthorized
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return inventory.KindTransientNetwork
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return inventory.KindTransientNetwork
	}

	return inventory.KindUnknown
}

// wrap builds the typed FetchError the orchestrator consumes.
func wrap(err error, region string, family inventory.Family) error {
	if err == nil {
		return nil
	}
	return &inventory.FetchError{
		Kind:   Classify(err),
		Region: region,
		Family: family,
		Err:    err,
	}
}
