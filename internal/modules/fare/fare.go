// Fare math: per-rider share split and suggested total fares.
package fare

import (
	"math"

	"campool/internal/types"
)

// Currency is the smallest-unit currency all fares are denominated in.
const Currency = "INR"

// Rate drives fare suggestions for a route distance.
type Rate struct {
	BaseFare int64
	PerKm    int64
}

// DefaultRate is tuned for short campus hops.
var DefaultRate = Rate{BaseFare: 2000, PerKm: 800}

// Split returns one rider's portion of the total fare given the headcount at
// the moment of joining (booked riders + host + the joining rider). The result
// is rounded half-up to the smallest currency unit; shares of earlier riders
// are never rebalanced, so the sum of all shares may differ from the total.
func Split(total types.Money, headcount int) types.Money {
	if headcount <= 1 {
		return total
	}
	n := int64(headcount)
	q := total.Amount / n
	if 2*(total.Amount%n) >= n {
		q++
	}
	return types.Money{Amount: q, Currency: total.Currency}
}

// Suggest converts a driving distance into a suggested total fare.
func Suggest(distanceKm float64, rate Rate) types.Money {
	amount := rate.BaseFare + int64(math.Round(distanceKm*float64(rate.PerKm)))
	return types.Money{Amount: amount, Currency: Currency}
}
