// Package tokens estimates the size of content in abstract token units.
package tokens

// BytesPerToken is the approximation used by Estimate: roughly four bytes of
// source text per model token.
const BytesPerToken = 4

// Estimator maps raw content to a token estimate.
type Estimator func(content []byte) int

// Estimate returns len(content)/BytesPerToken. It is pure and monotonic in
// content length.
func Estimate(content []byte) int {
	return len(content) / BytesPerToken
}

// EstimateString is Estimate for string content.
func EstimateString(s string) int {
	return len(s) / BytesPerToken
}
