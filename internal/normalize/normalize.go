package normalize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"aptsurge/server/internal/models"
)

// RawItem is one <item> element of an API response, tag name to text
type RawItem map[string]string

// FieldMapping names the upstream tags of a canonical field. The API has used
// both English and Korean tag names.
type FieldMapping struct {
	Field    string
	Primary  string
	Fallback string
}

var FieldMappings = []FieldMapping{
	{Field: "apt_name", Primary: "aptNm", Fallback: "아파트"},
	{Field: "deal_year", Primary: "dealYear", Fallback: "년"},
	{Field: "deal_month", Primary: "dealMonth", Fallback: "월"},
	{Field: "deal_day", Primary: "dealDay", Fallback: "일"},
	{Field: "deal_amount", Primary: "dealAmount", Fallback: "거래금액"},
	{Field: "area_m2", Primary: "excluUseAr", Fallback: "전용면적"},
	{Field: "floor", Primary: "floor", Fallback: "층"},
	{Field: "build_year", Primary: "buildYear", Fallback: "건축년도"},
	{Field: "dong_name", Primary: "umdNm", Fallback: "법정동"},
	{Field: "jibun", Primary: "jibun", Fallback: "지번"},
	{Field: "deal_type", Primary: "dealType", Fallback: "거래유형"},
}

// Resolve maps a raw item onto canonical field names. The primary tag wins when
// it holds a non-empty value.
func Resolve(raw RawItem) map[string]string {
	fields := make(map[string]string, len(FieldMappings))
	for _, m := range FieldMappings {
		value := strings.TrimSpace(raw[m.Primary])
		if value == "" {
			value = strings.TrimSpace(raw[m.Fallback])
		}
		fields[m.Field] = value
	}
	return fields
}

// Normalize converts a raw item of the (lawdCd, dealYm) bucket into a transaction.
// Missing or malformed numbers become 0; a missing deal year or month is taken
// from the bucket and a missing day becomes 1.
func Normalize(raw RawItem, lawdCd, dealYm string) models.Transaction {
	f := Resolve(raw)

	year := parseInt(f["deal_year"])
	if year == 0 && len(dealYm) >= 4 {
		year = parseInt(dealYm[:4])
	}
	month := parseInt(f["deal_month"])
	if month == 0 && len(dealYm) >= 6 {
		month = parseInt(dealYm[4:6])
	}
	day := parseInt(f["deal_day"])
	if day == 0 {
		day = 1
	}

	return models.Transaction{
		LawdCd:    lawdCd,
		DealYm:    dealYm,
		AptName:   f["apt_name"],
		DealDate:  fmt.Sprintf("%04d-%02d-%02d", year, month, day),
		PriceMan:  ParsePrice(f["deal_amount"]),
		AreaM2:    parseFloat(f["area_m2"]),
		Floor:     parseInt(f["floor"]),
		BuildYear: parseInt(f["build_year"]),
		DongName:  f["dong_name"],
		Jibun:     f["jibun"],
		DealType:  f["deal_type"],
	}
}

// ParsePrice parses an amount in 만원 such as "12,345"
func ParsePrice(s string) int64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// Deduper drops transactions whose dedupe key was already seen
type Deduper struct {
	seen map[models.DedupeKey]struct{}
}

func NewDeduper() *Deduper {
	return &Deduper{seen: make(map[models.DedupeKey]struct{})}
}

// Add reports whether the transaction is new and records it
func (d *Deduper) Add(t models.Transaction) bool {
	key := t.Key()
	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}

func (d *Deduper) Len() int {
	return len(d.seen)
}

// SortPartition orders records by deal date, apartment name and floor
func SortPartition(records []models.Transaction) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.DealDate != b.DealDate {
			return a.DealDate < b.DealDate
		}
		if a.AptName != b.AptName {
			return a.AptName < b.AptName
		}
		return a.Floor < b.Floor
	})
}
