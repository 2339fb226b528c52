package aws

import (
	"log/slog"
	"sync"

	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/idiya2016/cloud-resource-archaeologist/pkg/engine/inventory"
)

// LiveAPI implements inventory.API against real AWS endpoints. Regional
// clients are created lazily and reused across (region, family) units.
type LiveAPI struct {
	base   *Client
	logger *slog.Logger

	// Sizer estimates bucket sizes; swap for SkipEstimator under a scan
	// budget.
	Sizer SizeEstimator

	mu         sync.Mutex
	ec2Clients map[string]EC2Client
	s3Clients  map[string]S3Client

	bucketsOnce sync.Once
	bucketsErr  error
	buckets     map[string][]bucketStub
}

// NewLiveAPI wraps an authenticated session.
func NewLiveAPI(client *Client, logger *slog.Logger) *LiveAPI {
	if logger == nil {
		logger = slog.Default()
	}
	return &LiveAPI{
		base:       client,
		logger:     logger,
		Sizer:      &ListObjectsEstimator{MaxPages: 1},
		ec2Clients: make(map[string]EC2Client),
		s3Clients:  make(map[string]S3Client),
	}
}

var _ inventory.API = (*LiveAPI)(nil)

func (a *LiveAPI) s3Regional(region string) S3Client {
	a.mu.Lock()
	defer a.mu.Unlock()
	if c, ok := a.s3Clients[region]; ok {
		return c
	}
	cfg := a.base.Config
	if region != "" {
		cfg = a.base.ConfigForRegion(region)
	}
	c := s3.NewFromConfig(cfg)
	a.s3Clients[region] = c
	return c
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func tagMap(tags []ec2types.Tag) map[string]string {
	out := make(map[string]string)
	for _, t := range tags {
		if t.Key != nil && t.Value != nil {
			out[*t.Key] = *t.Value
		}
	}
	return out
}
