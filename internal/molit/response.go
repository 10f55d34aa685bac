package molit

import (
	"encoding/xml"
	"fmt"
	"strings"

	"aptsurge/server/internal/normalize"
)

type responseHeader struct {
	ResultCode string `xml:"resultCode"`
	ResultMsg  string `xml:"resultMsg"`
}

type itemField struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type responseItem struct {
	Fields []itemField `xml:",any"`
}

type response struct {
	Header responseHeader `xml:"header"`
	Items  []responseItem `xml:"body>items>item"`
}

// ParseResponse decodes one page of the trade API. A result code other than
// "00"/"000" yields ErrAPIResult; a response without a header is accepted as is.
func ParseResponse(data []byte) ([]normalize.RawItem, error) {
	var resp response
	if err := xml.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	code := strings.TrimSpace(resp.Header.ResultCode)
	if code != "" && code != "00" && code != "000" {
		return nil, fmt.Errorf("%w: %s %s", ErrAPIResult, code, strings.TrimSpace(resp.Header.ResultMsg))
	}

	items := make([]normalize.RawItem, 0, len(resp.Items))
	for _, it := range resp.Items {
		raw := make(normalize.RawItem, len(it.Fields))
		for _, f := range it.Fields {
			raw[f.XMLName.Local] = strings.TrimSpace(f.Value)
		}
		items = append(items, raw)
	}
	return items, nil
}
