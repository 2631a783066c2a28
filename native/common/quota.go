package common

import (
	"errors"
	"math"
)

var (
	ErrQuotaExceeded        = errors.New("operations quota exceeded")
	ErrQuotaCounterOverflow = errors.New("quota counter overflow")
)

// Quota limits how many top-level operations an address may start per epoch.
// A zero MaxOpsPerEpoch disables the limit.
type Quota struct {
	MaxOpsPerEpoch uint32
	EpochSeconds   uint32
}

// Enabled reports whether the quota enforces anything.
func (q Quota) Enabled() bool {
	return q.MaxOpsPerEpoch > 0 && q.EpochSeconds > 0
}

// QuotaNow captures an address's usage counters within the current epoch.
type QuotaNow struct {
	OpCount uint32
	EpochID uint64
}

// CheckQuota verifies whether addOps additional operations fit within the
// quota for the epoch identified by nowEpoch. Counters reset when the epoch
// rolls over. The returned QuotaNow reflects the updated counters when the
// quota is not exceeded; on failure the previous counters are returned
// unchanged.
func CheckQuota(q Quota, nowEpoch uint64, prev QuotaNow, addOps uint32) (QuotaNow, error) {
	next := prev
	if prev.EpochID != nowEpoch {
		next = QuotaNow{EpochID: nowEpoch}
	}
	if addOps > 0 {
		if next.OpCount > math.MaxUint32-addOps {
			return prev, ErrQuotaCounterOverflow
		}
		next.OpCount += addOps
	}
	if q.MaxOpsPerEpoch > 0 && next.OpCount > q.MaxOpsPerEpoch {
		return prev, ErrQuotaExceeded
	}
	return next, nil
}
