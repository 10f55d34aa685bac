package models

import (
	"encoding/json"
	"fmt"
)

// PricePoint is one (date, price) sample of an apartment history, encoded as a JSON pair
type PricePoint struct {
	Date  string
	Price int64
}

func (p PricePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{p.Date, p.Price})
}

func (p *PricePoint) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("price point must have 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &p.Date); err != nil {
		return fmt.Errorf("invalid price point date: %w", err)
	}
	if err := json.Unmarshal(pair[1], &p.Price); err != nil {
		return fmt.Errorf("invalid price point price: %w", err)
	}
	return nil
}

// Comparison is a ranked entry: the latest sale of a cohort against its baseline
type Comparison struct {
	ID          string       `json:"id"`
	AptName     string       `json:"apt_name"`
	Sigungu     string       `json:"sigungu"`
	DongName    string       `json:"dong_name"`
	AreaM2      float64      `json:"area_m2"`
	LatestDate  string       `json:"latest_date"`
	LatestPrice int64        `json:"latest_price"`
	PrevDate    string       `json:"prev_date,omitempty"`
	PrevPrice   int64        `json:"prev_price"`
	Change      int64        `json:"change"`
	Pct         float64      `json:"pct"`
	Floor       int          `json:"floor"`
	DealType    string       `json:"deal_type"`
	TotalTrades int          `json:"total_trades,omitempty"`
	History     []PricePoint `json:"history,omitempty"`
	District    string       `json:"district,omitempty"`
}

type Report struct {
	Title string       `json:"title"`
	Top3  []Comparison `json:"top3"`
}

// ReportSet is the set of reports computed for one scope (province or district)
type ReportSet struct {
	Section1 Report `json:"section1"`
	Section2 Report `json:"section2"`
	Section3 Report `json:"section3"`
	Section4 Report `json:"section4"`
	Recent   Report `json:"recent"`
}
