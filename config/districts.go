package config

import "regexp"

// DistrictRule collapses sigungu names of one province into city-level groups
type DistrictRule struct {
	Sido    string
	Pattern *regexp.Regexp
}

// DistrictRules holds the grouping rules; provinces without a rule group 1:1 by sigungu name.
// 경기 merges "<city>시 <ward>구" sigungus into their parent city.
var DistrictRules = []DistrictRule{
	{Sido: "경기", Pattern: regexp.MustCompile(`^(.+시).+[구군]$`)},
}

// DistrictGroup returns the district group a sigungu belongs to
func DistrictGroup(sido, sigungu string) string {
	for _, rule := range DistrictRules {
		if rule.Sido != sido {
			continue
		}
		if m := rule.Pattern.FindStringSubmatch(sigungu); m != nil {
			return m[1]
		}
	}
	return sigungu
}

// GroupDistricts groups LAWD codes of one province by district, keeping first-seen order
func GroupDistricts(sido string, codes []string) (map[string][]string, []string) {
	groups := make(map[string][]string)
	var order []string
	for _, code := range codes {
		group := DistrictGroup(sido, LawdName(code))
		if _, ok := groups[group]; !ok {
			order = append(order, group)
		}
		groups[group] = append(groups[group], code)
	}
	return groups, order
}
