package analyzer

// Rating classifies a payload's safety. The three values are totally
// ordered: SAFE < CAUTION < DANGEROUS.
type Rating string

const (
	RatingSafe      Rating = "SAFE"
	RatingCaution   Rating = "CAUTION"
	RatingDangerous Rating = "DANGEROUS"
)

// weight maps a rating onto the total order used for comparisons
func (r Rating) weight() int {
	switch r {
	case RatingCaution:
		return 1
	case RatingDangerous:
		return 2
	default:
		return 0
	}
}

// WorseThan reports whether r is strictly more severe than other
func (r Rating) WorseThan(other Rating) bool {
	return r.weight() > other.weight()
}

// maxRating returns the more severe of two ratings
func maxRating(a, b Rating) Rating {
	if b.WorseThan(a) {
		return b
	}
	return a
}

// Result holds the outcome of one payload analysis
type Result struct {
	// IsSafe is true only when Rating is SAFE
	IsSafe bool `json:"is_safe"`

	// Rating is the final severity classification
	Rating Rating `json:"rating"`

	// Score is the numeric safety score, clamped to [0, 100]
	Score int `json:"score"`

	// Issues lists every detected condition in detection order,
	// with any reputation threat labels appended at the end
	Issues []string `json:"issues"`

	// Threats lists only the labels returned by the reputation lookup
	Threats []string `json:"threats"`
}
