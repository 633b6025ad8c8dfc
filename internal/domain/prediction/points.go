package prediction

// Point values awarded per settled prediction.
const (
	PointsExact   = 5
	PointsDiff    = 3
	PointsOutcome = 2
	PointsNone    = 0
)

// Points scores a prediction against the full-time result:
// exact scoreline 5, correct outcome with correct goal difference 3,
// correct outcome alone 2, otherwise 0.
//
// Pure and validation-free; callers reject out-of-range input before
// settlement ever sees it.
func Points(predHome, predAway, actualHome, actualAway int) int {
	if predHome == actualHome && predAway == actualAway {
		return PointsExact
	}

	predDiff := predHome - predAway
	actualDiff := actualHome - actualAway
	if sign(predDiff) != sign(actualDiff) {
		return PointsNone
	}
	// Same outcome. A matching goal difference also covers two distinct
	// drawn scorelines, where both differences are zero.
	if predDiff == actualDiff {
		return PointsDiff
	}
	return PointsOutcome
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
