// Credibility penalty policy for ride cancellations.
package penalty

import (
	"math"

	"campool/internal/types"
)

// LateThresholdHours separates the steep late tier from the lenient one.
const LateThresholdHours = 3.0

const (
	latePoints  = 5.0
	earlyPoints = 2.0
)

// Driver returns the credibility points deducted from a driver who cancels
// hoursToStart hours before the scheduled departure.
func Driver(hoursToStart float64) float64 {
	if hoursToStart < LateThresholdHours {
		return latePoints
	}
	return earlyPoints
}

// Rider returns the credibility points deducted from a cancelling participant
// and the monetary late fee on their share. The fee is a quarter of the share,
// rounded half-up, and applies only inside the late window; it is reported to
// the caller but never deducted from credibility.
func Rider(hoursToStart float64, share types.Money) (float64, types.Money) {
	fee := types.Money{Currency: share.Currency}
	if hoursToStart < LateThresholdHours {
		fee.Amount = int64(math.Round(float64(share.Amount) * 0.25))
	}
	if fee.Amount > 0 {
		return latePoints, fee
	}
	return earlyPoints, fee
}
