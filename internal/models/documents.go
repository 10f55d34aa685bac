package models

// SummaryDocument is written to summary.json
type SummaryDocument struct {
	UpdatedAt    string                 `json:"updated_at"`
	MonthsKept   int                    `json:"months_kept"`
	TotalTxns    int                    `json:"total_txns"`
	CurrentMonth string                 `json:"current_month"`
	SidoOrder    []string               `json:"sido_order"`
	Sidos        map[string]SidoSummary `json:"sidos"`
}

type SidoSummary struct {
	ReportSet
	DistrictOrder []string                   `json:"district_order"`
	Districts     map[string]DistrictSummary `json:"districts"`
}

type DistrictSummary struct {
	ReportSet
	DongOrder []string `json:"dong_order"`
}

// SearchIndexDocument is written to search_index.json
type SearchIndexDocument struct {
	UpdatedAt string                `json:"updated_at"`
	SidoOrder []string              `json:"sido_order"`
	Sidos     map[string]SearchSido `json:"sidos"`
}

type SearchSido struct {
	DistrictOrder []string     `json:"district_order"`
	Items         []Comparison `json:"items"`
}

// IndexDocument is written to index.json and lists the stored partitions
type IndexDocument struct {
	UpdatedAt  string      `json:"updated_at"`
	MonthsKept int         `json:"months_kept"`
	LawdList   []string    `json:"lawd_list"`
	Files      []IndexFile `json:"files"`
}

type IndexFile struct {
	LawdCd string `json:"lawd_cd"`
	DealYm string `json:"deal_ym"`
	Count  int    `json:"count"`
	Path   string `json:"path,omitempty"`
}
