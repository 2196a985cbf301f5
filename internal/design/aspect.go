package design

import "strings"

type AspectRatio string

const (
	Ratio1x1  AspectRatio = "1:1"
	Ratio2x3  AspectRatio = "2:3"
	Ratio3x2  AspectRatio = "3:2"
	Ratio4x5  AspectRatio = "4:5"
	Ratio5x4  AspectRatio = "5:4"
	Ratio9x16 AspectRatio = "9:16"
	Ratio9x21 AspectRatio = "9:21"
	Ratio16x9 AspectRatio = "16:9"
	Ratio21x9 AspectRatio = "21:9"
)

func (r AspectRatio) Valid() bool {
	switch r {
	case Ratio1x1, Ratio2x3, Ratio3x2, Ratio4x5, Ratio5x4, Ratio9x16, Ratio9x21, Ratio16x9, Ratio21x9:
		return true
	}
	return false
}

func (r AspectRatio) String() string {
	return string(r)
}

type placementRule struct {
	keywords []string
	ratio    AspectRatio
}

// Evaluated top to bottom, first match wins. "back" sits above the sleeve
// rules, so keep the order when adding entries.
var placementRules = []placementRule{
	{keywords: []string{"forearm", "calf", "spine"}, ratio: Ratio2x3},
	{keywords: []string{"shoulder", "chest", "back"}, ratio: Ratio3x2},
	{keywords: []string{"wrist", "ankle", "hand", "foot"}, ratio: Ratio1x1},
	{keywords: []string{"full sleeve"}, ratio: Ratio9x16},
	{keywords: []string{"half sleeve", "quarter sleeve"}, ratio: Ratio2x3},
	{keywords: []string{"thigh", "ribcage", "hip"}, ratio: Ratio4x5},
}

// ResolveAspectRatio maps a free-text body placement to the canvas ratio the
// design is rendered at. Unknown or empty placements get 1:1.
func ResolveAspectRatio(placement string) AspectRatio {
	p := strings.ToLower(strings.TrimSpace(placement))
	if p == "" {
		return Ratio1x1
	}

	for _, rule := range placementRules {
		for _, kw := range rule.keywords {
			if strings.Contains(p, kw) {
				return rule.ratio
			}
		}
	}
	return Ratio1x1
}
