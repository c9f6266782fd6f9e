package classify

import "strings"

// Keyword rosters for the Safety and Housekeeping report paths. Matching is
// a case-insensitive substring check against the cleaned description.

var housekeepingKeywords = []string{
	"housekeeping", "cleaning", "cleanliness", "waste disposal", "waste management",
	"garbage", "trash", "rubbish", "debris", "litter", "dust", "untidy", "cluttered",
	"accumulation of waste", "construction waste", "pile of garbage", "poor housekeeping",
	"material storage", "construction debris", "cleaning schedule", "garbage collection",
	"waste bins", "dirty", "mess", "unclean", "disorderly", "dirty floor",
	"waste disposal area", "waste collection", "cleaning protocol", "sanitation",
	"trash removal", "waste accumulation", "unkept area", "refuse collection",
	"workplace cleanliness",
}

var safetyKeywords = []string{
	"safety precautions", "temporary electricity",
	"on-site labor is working without wearing safety belt", "safety norms",
	"missing cabin glass", "crane operator cabin front glass",
	"lifeline is not fixed at the working place",
	"crane operated without tpic",
	"no barrier around", "lock and key arrangement",
	"firecase", "health and safety plan",
	"submission of statistics report is regularly delayed",
	"labor is working without wearing safety belt", "barricading", "tank",
	"safety shoes", "safety belt", "helmet", "lifeline", "guard rails",
	"fall protection", "ppe", "electrical hazard", "unsafe platform", "catch net",
	"edge protection", "tpi", "scaffold", "lifting equipment", "dust suppression",
	"debris chute", "spill control", "crane operator", "halogen lamps",
	"fall catch net", "environmental contamination", "fire hazard",
	"continuous down slope movement of soil", "continuous collapse of soil",
}

func IsHousekeeping(description string) bool {
	return containsAny(description, housekeepingKeywords)
}

func IsSafety(description string) bool {
	return containsAny(description, safetyKeywords)
}

func containsAny(description string, keywords []string) bool {
	if description == "" {
		return false
	}
	desc := strings.ToLower(description)
	for _, kw := range keywords {
		if strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}
