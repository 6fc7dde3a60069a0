package detectors

import (
	"math"
	"unicode"
)

const (
	entropyThreshold = 3.5
	minEntropyLen    = 16
	zeroDensityLimit = 0.4
)

// Entropy computes Shannon entropy over the character-frequency
// distribution of s.
func Entropy(s string) float64 {
	if s == "" {
		return 0
	}
	count := map[rune]int{}
	total := 0
	for _, r := range s {
		count[r]++
		total++
	}
	h := 0.0
	n := float64(total)
	for _, c := range count {
		p := float64(c) / n
		h -= p * math.Log2(p)
	}
	return h
}

// DistributionScore measures how evenly the characters of s spread across
// the four classes lowercase/uppercase/digit/other. Real keys tend toward
// an even spread; prose and repeated filler do not. The score is
// 1 - average(|class_fraction - 1/k|) over the k classes present, with a
// fixed 0.3 when only one class appears.
func DistributionScore(s string) float64 {
	if len(s) < 8 {
		return 0
	}
	var lower, upper, digit, other int
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower++
		case unicode.IsUpper(r):
			upper++
		case unicode.IsDigit(r):
			digit++
		default:
			other++
		}
	}
	total := float64(len([]rune(s)))
	var fracs []float64
	for _, c := range []int{lower, upper, digit, other} {
		if c > 0 {
			fracs = append(fracs, float64(c)/total)
		}
	}
	if len(fracs) == 1 {
		return 0.3
	}
	ideal := 1.0 / float64(len(fracs))
	dev := 0.0
	for _, f := range fracs {
		dev += math.Abs(f - ideal)
	}
	return 1.0 - dev/float64(len(fracs))
}

// IsHighEntropy reports whether s looks like random credential material.
// Strings under 16 chars are never high-entropy; neither are strings where
// more than 40% of the characters are '0' (placeholder filler). The
// combined score entropy*0.7 + evenness*2.0 and the 3.5 threshold are load
// bearing for reproducible classification and must not be re-tuned.
func IsHighEntropy(s string) bool {
	if len(s) < minEntropyLen {
		return false
	}
	if ZeroDensity(s) > zeroDensityLimit {
		return false
	}
	combined := Entropy(s)*0.7 + DistributionScore(s)*2.0
	return combined > entropyThreshold
}

// ZeroDensity is the fraction of bytes in s that are the digit zero.
func ZeroDensity(s string) float64 {
	if s == "" {
		return 0
	}
	zeros := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '0' {
			zeros++
		}
	}
	return float64(zeros) / float64(len(s))
}

func distinctChars(s string) int {
	seen := map[rune]bool{}
	for _, r := range s {
		seen[r] = true
	}
	return len(seen)
}
