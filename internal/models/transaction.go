package models

import (
	"strings"
)

// Transaction is one normalized apartment sale
type Transaction struct {
	LawdCd    string  `json:"lawd_cd"`
	DealYm    string  `json:"deal_ym"`
	AptName   string  `json:"apt_name"`
	DealDate  string  `json:"deal_date"`
	PriceMan  int64   `json:"price_man"`
	AreaM2    float64 `json:"area_m2"`
	Floor     int     `json:"floor"`
	BuildYear int     `json:"build_year"`
	DongName  string  `json:"dong_name"`
	Jibun     string  `json:"jibun"`
	DealType  string  `json:"deal_type"`

	// Sigungu is resolved from LawdCd when records are loaded for reporting
	Sigungu string `json:"-"`
}

// DedupeKey identifies a transaction across refreshes
type DedupeKey struct {
	AptName  string
	DealDate string
	PriceMan int64
	AreaM2   float64
	Floor    int
	Jibun    string
}

func (t Transaction) Key() DedupeKey {
	return DedupeKey{
		AptName:  t.AptName,
		DealDate: t.DealDate,
		PriceMan: t.PriceMan,
		AreaM2:   t.AreaM2,
		Floor:    t.Floor,
		Jibun:    t.Jibun,
	}
}

// Period returns the YYYYMM month of the deal date, or "" for malformed dates
func (t Transaction) Period() string {
	if len(t.DealDate) < 7 {
		return ""
	}
	return strings.ReplaceAll(t.DealDate[:7], "-", "")
}
