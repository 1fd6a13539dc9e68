package assistant

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
)

const (
	trackingCodePrefix = "ORD-"
	// trackingCodeAlphabet leaves out 0/O and 1/I so codes read well aloud.
	trackingCodeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	trackingRandomLength = 5
	maxMintAttempts      = 5
)

// NewTrackingCode mints ORD-<base36 milliseconds><random>, all uppercase.
func NewTrackingCode(now time.Time) string {
	random := shortuuid.NewWithAlphabet(trackingCodeAlphabet)
	if len(random) > trackingRandomLength {
		random = random[len(random)-trackingRandomLength:]
	}
	return trackingCodePrefix + strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)) + random
}

// mintTrackingCode returns a code no stored order uses yet. The unique index
// still guards against a concurrent insert of the same code.
func (s *Service) mintTrackingCode(ctx context.Context, now time.Time) (string, error) {
	for attempt := 0; attempt < maxMintAttempts; attempt++ {
		code := s.newCode(now)
		existing, err := s.store.GetOrderByTrackingCode(ctx, code)
		if err != nil {
			return "", storeError("check tracking code", err)
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", storeError("mint tracking code", errors.Errorf("no free code after %d attempts", maxMintAttempts))
}
