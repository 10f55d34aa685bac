package ranking

import "aptsurge/server/internal/models"

// CohortKey identifies comparable sales: same apartment name and exclusive area
type CohortKey struct {
	AptName string
	AreaM2  float64
}

type Cohort struct {
	Key  CohortKey
	Txns []models.Transaction
}

// GroupCohorts buckets records by cohort key, keeping first-appearance order of
// both cohorts and records.
func GroupCohorts(records []models.Transaction) []Cohort {
	index := make(map[CohortKey]int)
	var cohorts []Cohort
	for _, r := range records {
		key := CohortKey{AptName: r.AptName, AreaM2: r.AreaM2}
		i, ok := index[key]
		if !ok {
			i = len(cohorts)
			index[key] = i
			cohorts = append(cohorts, Cohort{Key: key})
		}
		cohorts[i].Txns = append(cohorts[i].Txns, r)
	}
	return cohorts
}

func indexCohorts(cohorts []Cohort) map[CohortKey]int {
	index := make(map[CohortKey]int, len(cohorts))
	for i, c := range cohorts {
		index[c.Key] = i
	}
	return index
}
