package analyzer

import (
	"math"
	"regexp"
)

// Entropy thresholds for flagging algorithmically generated hostnames.
// Hostnames only qualify when they are purely alphanumeric and at least
// six characters long; shorter or dotted names produce too much noise.
const (
	entropyHighThreshold   = 3.8
	entropyMediumThreshold = 3.6
	entropyLowThreshold    = 3.2
	entropyMinHostLength   = 6
)

var alnumHostPattern = regexp.MustCompile(`^[a-z0-9]+$`)

// ShannonEntropy computes the character-distribution entropy of s in
// bits per character. An empty string has zero entropy.
func ShannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}

	counts := make(map[rune]int)
	total := 0
	for _, r := range s {
		counts[r]++
		total++
	}

	entropy := 0.0
	for _, count := range counts {
		p := float64(count) / float64(total)
		entropy -= p * math.Log2(p)
	}

	return entropy
}

// entropyEligible reports whether a hostname qualifies for the
// DGA-style randomness check
func entropyEligible(host string) bool {
	return len(host) >= entropyMinHostLength && alnumHostPattern.MatchString(host)
}
