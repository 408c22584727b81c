//go:build !protogen

package grpcsource

import (
	"github.com/meetwise-labs/meetwise/services/availability-service/internal/search"
)

// New returns nil in builds without generated protos; callers fall back to the
// HTTP calendar client.
func New(_ string) (search.Source, error) {
	return nil, nil
}
