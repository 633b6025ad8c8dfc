package prediction

import "testing"

func TestPoints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                   string
		predHome, predAway     int
		actualHome, actualAway int
		want                   int
	}{
		{"exact home win", 2, 1, 2, 1, PointsExact},
		{"exact draw", 1, 1, 1, 1, PointsExact},
		{"exact goalless draw", 0, 0, 0, 0, PointsExact},
		{"correct difference wrong score", 3, 2, 2, 1, PointsDiff},
		{"different draw scoreline", 1, 1, 2, 2, PointsDiff},
		{"correct winner wrong margin", 2, 0, 3, 2, PointsOutcome},
		{"correct away winner wrong margin", 0, 1, 1, 3, PointsOutcome},
		{"wrong outcome", 2, 0, 0, 1, PointsNone},
		{"predicted draw actual home win", 1, 1, 2, 0, PointsNone},
		{"predicted home win actual draw", 2, 1, 0, 0, PointsNone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := Points(tc.predHome, tc.predAway, tc.actualHome, tc.actualAway)
			if got != tc.want {
				t.Fatalf("Points(%d:%d vs %d:%d) = %d, want %d",
					tc.predHome, tc.predAway, tc.actualHome, tc.actualAway, got, tc.want)
			}
		})
	}
}

func TestPoints_MirrorSymmetry(t *testing.T) {
	t.Parallel()

	for predHome := 0; predHome <= 4; predHome++ {
		for predAway := 0; predAway <= 4; predAway++ {
			for actualHome := 0; actualHome <= 4; actualHome++ {
				for actualAway := 0; actualAway <= 4; actualAway++ {
					direct := Points(predHome, predAway, actualHome, actualAway)
					mirrored := Points(predAway, predHome, actualAway, actualHome)
					if direct != mirrored {
						t.Fatalf("mirror asymmetry: pred=%d:%d actual=%d:%d direct=%d mirrored=%d",
							predHome, predAway, actualHome, actualAway, direct, mirrored)
					}
				}
			}
		}
	}
}

func TestPoints_CorrectOutcomeWrongDifferenceNeverExceedsTwo(t *testing.T) {
	t.Parallel()

	for predHome := 0; predHome <= 5; predHome++ {
		for predAway := 0; predAway <= 5; predAway++ {
			for actualHome := 0; actualHome <= 5; actualHome++ {
				for actualAway := 0; actualAway <= 5; actualAway++ {
					sameOutcome := sign(predHome-predAway) == sign(actualHome-actualAway)
					sameDiff := predHome-predAway == actualHome-actualAway
					if !sameOutcome || sameDiff {
						continue
					}
					if got := Points(predHome, predAway, actualHome, actualAway); got != PointsOutcome {
						t.Fatalf("pred=%d:%d actual=%d:%d = %d, want %d",
							predHome, predAway, actualHome, actualAway, got, PointsOutcome)
					}
				}
			}
		}
	}
}
