// Package sizing maps WAN user counts to bandwidth and hardware recommendations.
package sizing

import "math"

type band struct {
	upper int64
	label string
	model string
}

var bands = []band{
	{upper: 10, label: "<10", model: "MX67"},
	{upper: 20, label: "10<20", model: "MX67"},
	{upper: 50, label: "20<50", model: "MX68"},
	{upper: 100, label: "50<100", model: "MX85"},
	{upper: 200, label: "100<200", model: "MX95"},
	{upper: 500, label: "200<500", model: "MX95"},
}

const (
	topLabel = ">500"
	topModel = "MX250"
)

// BandwidthBucket returns the site-size label and the hardware model for bw.
// Bands are strict upper bounds, evaluated in ascending order.
func BandwidthBucket(bw int64) (label string, model string) {
	for _, b := range bands {
		if bw < b.upper {
			return b.label, b.model
		}
	}
	return topLabel, topModel
}

// RecommendedBandwidth returns the recommended WAN bandwidth in Mbps.
func RecommendedBandwidth(wanUsers int64) int64 {
	var factor float64
	switch {
	case wanUsers > 100:
		factor = 2.5
	case wanUsers > 50:
		factor = 3
	case wanUsers > 10:
		factor = 4
	default:
		factor = 5
	}
	return int64(math.Round(float64(wanUsers) * factor))
}

// Labels lists every site-size label in ascending order.
func Labels() []string {
	labels := make([]string, 0, len(bands)+1)
	for _, b := range bands {
		labels = append(labels, b.label)
	}
	return append(labels, topLabel)
}
