package config

// Region is one LAWD (legal-dong sigungu) code of the transaction API
type Region struct {
	Code string `json:"code"`
	Sido string `json:"sido"`
	Name string `json:"name"`
}

// SidoOrder is the display order of provinces on the site
var SidoOrder = []string{
	"서울", "경기", "인천", "부산", "대구", "광주", "대전", "울산", "세종",
	"강원", "충북", "충남", "전북", "전남", "경북", "경남", "제주",
}

// sidoPrefixes maps the first two digits of a LAWD code to its province
var sidoPrefixes = map[string]string{
	"11": "서울",
	"26": "부산",
	"27": "대구",
	"28": "인천",
	"29": "광주",
	"30": "대전",
	"31": "울산",
	"36": "세종",
	"41": "경기",
	"42": "강원",
	"51": "강원",
	"43": "충북",
	"44": "충남",
	"45": "전북",
	"52": "전북",
	"46": "전남",
	"47": "경북",
	"48": "경남",
	"50": "제주",
}

// Regions lists every supported sigungu
var Regions = []Region{
	// 서울
	{"11110", "서울", "종로구"}, {"11140", "서울", "중구"}, {"11170", "서울", "용산구"},
	{"11200", "서울", "성동구"}, {"11215", "서울", "광진구"}, {"11230", "서울", "동대문구"},
	{"11260", "서울", "중랑구"}, {"11290", "서울", "성북구"}, {"11305", "서울", "강북구"},
	{"11320", "서울", "도봉구"}, {"11350", "서울", "노원구"}, {"11380", "서울", "은평구"},
	{"11410", "서울", "서대문구"}, {"11440", "서울", "마포구"}, {"11470", "서울", "양천구"},
	{"11500", "서울", "강서구"}, {"11530", "서울", "구로구"}, {"11545", "서울", "금천구"},
	{"11560", "서울", "영등포구"}, {"11590", "서울", "동작구"}, {"11620", "서울", "관악구"},
	{"11650", "서울", "서초구"}, {"11680", "서울", "강남구"}, {"11710", "서울", "송파구"},
	{"11740", "서울", "강동구"},

	// 경기
	{"41111", "경기", "수원시 장안구"}, {"41113", "경기", "수원시 권선구"}, {"41115", "경기", "수원시 팔달구"},
	{"41117", "경기", "수원시 영통구"}, {"41131", "경기", "성남시 수정구"}, {"41133", "경기", "성남시 중원구"},
	{"41135", "경기", "성남시 분당구"}, {"41150", "경기", "의정부시"}, {"41171", "경기", "안양시 만안구"},
	{"41173", "경기", "안양시 동안구"}, {"41190", "경기", "부천시"}, {"41210", "경기", "광명시"},
	{"41220", "경기", "평택시"}, {"41250", "경기", "동두천시"}, {"41271", "경기", "안산시 상록구"},
	{"41273", "경기", "안산시 단원구"}, {"41281", "경기", "고양시 덕양구"}, {"41285", "경기", "고양시 일산동구"},
	{"41287", "경기", "고양시 일산서구"}, {"41290", "경기", "과천시"}, {"41310", "경기", "구리시"},
	{"41360", "경기", "남양주시"}, {"41370", "경기", "오산시"}, {"41390", "경기", "시흥시"},
	{"41410", "경기", "군포시"}, {"41430", "경기", "의왕시"}, {"41450", "경기", "하남시"},
	{"41461", "경기", "용인시 처인구"}, {"41463", "경기", "용인시 기흥구"}, {"41465", "경기", "용인시 수지구"},
	{"41480", "경기", "파주시"}, {"41500", "경기", "이천시"}, {"41550", "경기", "안성시"},
	{"41570", "경기", "김포시"}, {"41590", "경기", "화성시"}, {"41610", "경기", "광주시"},
	{"41630", "경기", "양주시"}, {"41650", "경기", "포천시"}, {"41670", "경기", "여주시"},
	{"41800", "경기", "연천군"}, {"41820", "경기", "가평군"}, {"41830", "경기", "양평군"},

	// 인천
	{"28110", "인천", "중구"}, {"28140", "인천", "동구"}, {"28177", "인천", "미추홀구"},
	{"28185", "인천", "연수구"}, {"28200", "인천", "남동구"}, {"28237", "인천", "부평구"},
	{"28245", "인천", "계양구"}, {"28260", "인천", "서구"}, {"28710", "인천", "강화군"},
	{"28720", "인천", "옹진군"},

	// 부산
	{"26110", "부산", "중구"}, {"26140", "부산", "서구"}, {"26170", "부산", "동구"},
	{"26200", "부산", "영도구"}, {"26230", "부산", "부산진구"}, {"26260", "부산", "동래구"},
	{"26290", "부산", "남구"}, {"26320", "부산", "북구"}, {"26350", "부산", "해운대구"},
	{"26380", "부산", "사하구"}, {"26410", "부산", "금정구"}, {"26440", "부산", "강서구"},
	{"26470", "부산", "연제구"}, {"26500", "부산", "수영구"}, {"26530", "부산", "사상구"},
	{"26710", "부산", "기장군"},

	// 대구
	{"27110", "대구", "중구"}, {"27140", "대구", "동구"}, {"27170", "대구", "서구"},
	{"27200", "대구", "남구"}, {"27230", "대구", "북구"}, {"27260", "대구", "수성구"},
	{"27290", "대구", "달서구"}, {"27710", "대구", "달성군"}, {"27720", "대구", "군위군"},

	// 광주
	{"29110", "광주", "동구"}, {"29140", "광주", "서구"}, {"29155", "광주", "남구"},
	{"29170", "광주", "북구"}, {"29200", "광주", "광산구"},

	// 대전
	{"30110", "대전", "동구"}, {"30140", "대전", "중구"}, {"30170", "대전", "서구"},
	{"30200", "대전", "유성구"}, {"30230", "대전", "대덕구"},

	// 울산
	{"31110", "울산", "중구"}, {"31140", "울산", "남구"}, {"31170", "울산", "동구"},
	{"31200", "울산", "북구"}, {"31710", "울산", "울주군"},

	// 세종
	{"36110", "세종", "세종시"},

	// 강원
	{"51110", "강원", "춘천시"}, {"51130", "강원", "원주시"}, {"51150", "강원", "강릉시"},
	{"51170", "강원", "동해시"}, {"51190", "강원", "태백시"}, {"51210", "강원", "속초시"},
	{"51230", "강원", "삼척시"}, {"51720", "강원", "홍천군"}, {"51730", "강원", "횡성군"},
	{"51750", "강원", "영월군"}, {"51760", "강원", "평창군"}, {"51770", "강원", "정선군"},
	{"51780", "강원", "철원군"}, {"51790", "강원", "화천군"}, {"51800", "강원", "양구군"},
	{"51810", "강원", "인제군"}, {"51820", "강원", "고성군"}, {"51830", "강원", "양양군"},

	// 충북
	{"43111", "충북", "청주시 상당구"}, {"43112", "충북", "청주시 서원구"}, {"43113", "충북", "청주시 흥덕구"},
	{"43114", "충북", "청주시 청원구"}, {"43130", "충북", "충주시"}, {"43150", "충북", "제천시"},
	{"43720", "충북", "보은군"}, {"43730", "충북", "옥천군"}, {"43740", "충북", "영동군"},
	{"43745", "충북", "증평군"}, {"43750", "충북", "진천군"}, {"43760", "충북", "괴산군"},
	{"43770", "충북", "음성군"}, {"43800", "충북", "단양군"},

	// 충남
	{"44131", "충남", "천안시 동남구"}, {"44133", "충남", "천안시 서북구"}, {"44150", "충남", "공주시"},
	{"44180", "충남", "보령시"}, {"44200", "충남", "아산시"}, {"44210", "충남", "서산시"},
	{"44230", "충남", "논산시"}, {"44250", "충남", "계룡시"}, {"44270", "충남", "당진시"},
	{"44710", "충남", "금산군"}, {"44760", "충남", "부여군"}, {"44770", "충남", "서천군"},
	{"44790", "충남", "청양군"}, {"44800", "충남", "홍성군"}, {"44810", "충남", "예산군"},
	{"44825", "충남", "태안군"},

	// 전북
	{"52111", "전북", "전주시 완산구"}, {"52113", "전북", "전주시 덕진구"}, {"52130", "전북", "군산시"},
	{"52140", "전북", "익산시"}, {"52180", "전북", "정읍시"}, {"52190", "전북", "남원시"},
	{"52210", "전북", "김제시"}, {"52710", "전북", "완주군"}, {"52720", "전북", "진안군"},
	{"52730", "전북", "무주군"}, {"52740", "전북", "장수군"}, {"52750", "전북", "임실군"},
	{"52770", "전북", "순창군"}, {"52790", "전북", "고창군"}, {"52800", "전북", "부안군"},

	// 전남
	{"46110", "전남", "목포시"}, {"46130", "전남", "여수시"}, {"46150", "전남", "순천시"},
	{"46170", "전남", "나주시"}, {"46230", "전남", "광양시"}, {"46710", "전남", "담양군"},
	{"46720", "전남", "곡성군"}, {"46730", "전남", "구례군"}, {"46770", "전남", "고흥군"},
	{"46780", "전남", "보성군"}, {"46790", "전남", "화순군"}, {"46800", "전남", "장흥군"},
	{"46810", "전남", "강진군"}, {"46820", "전남", "해남군"}, {"46830", "전남", "영암군"},
	{"46840", "전남", "무안군"}, {"46860", "전남", "함평군"}, {"46870", "전남", "영광군"},
	{"46880", "전남", "장성군"}, {"46890", "전남", "완도군"}, {"46900", "전남", "진도군"},
	{"46910", "전남", "신안군"},

	// 경북
	{"47111", "경북", "포항시 남구"}, {"47113", "경북", "포항시 북구"}, {"47130", "경북", "경주시"},
	{"47150", "경북", "김천시"}, {"47170", "경북", "안동시"}, {"47190", "경북", "구미시"},
	{"47210", "경북", "영주시"}, {"47230", "경북", "영천시"}, {"47250", "경북", "상주시"},
	{"47280", "경북", "문경시"}, {"47290", "경북", "경산시"}, {"47730", "경북", "의성군"},
	{"47750", "경북", "청송군"}, {"47760", "경북", "영양군"}, {"47770", "경북", "영덕군"},
	{"47820", "경북", "청도군"}, {"47830", "경북", "고령군"}, {"47840", "경북", "성주군"},
	{"47850", "경북", "칠곡군"}, {"47900", "경북", "예천군"}, {"47920", "경북", "봉화군"},
	{"47930", "경북", "울진군"}, {"47940", "경북", "울릉군"},

	// 경남
	{"48121", "경남", "창원시 의창구"}, {"48123", "경남", "창원시 성산구"}, {"48125", "경남", "창원시 마산합포구"},
	{"48127", "경남", "창원시 마산회원구"}, {"48129", "경남", "창원시 진해구"}, {"48170", "경남", "진주시"},
	{"48220", "경남", "통영시"}, {"48240", "경남", "사천시"}, {"48250", "경남", "김해시"},
	{"48270", "경남", "밀양시"}, {"48310", "경남", "거제시"}, {"48330", "경남", "양산시"},
	{"48720", "경남", "의령군"}, {"48730", "경남", "함안군"}, {"48740", "경남", "창녕군"},
	{"48820", "경남", "고성군"}, {"48840", "경남", "남해군"}, {"48850", "경남", "하동군"},
	{"48860", "경남", "산청군"}, {"48870", "경남", "함양군"}, {"48880", "경남", "거창군"},
	{"48890", "경남", "합천군"},

	// 제주
	{"50110", "제주", "제주시"}, {"50130", "제주", "서귀포시"},
}

var regionsByCode = func() map[string]Region {
	m := make(map[string]Region, len(Regions))
	for _, r := range Regions {
		m[r.Code] = r
	}
	return m
}()

// AllLawdList returns every known LAWD code in table order
func AllLawdList() []string {
	codes := make([]string, len(Regions))
	for i, r := range Regions {
		codes[i] = r.Code
	}
	return codes
}

// LawdName returns the sigungu display name of a code, or the code itself when unknown
func LawdName(code string) string {
	if r, ok := regionsByCode[code]; ok {
		return r.Name
	}
	return code
}

// SidoForLawd returns the province of a code, or "" when it cannot be determined
func SidoForLawd(code string) string {
	if r, ok := regionsByCode[code]; ok {
		return r.Sido
	}
	if len(code) < 2 {
		return ""
	}
	return sidoPrefixes[code[:2]]
}

// OrderedSidos filters SidoOrder down to the provinces present in the set
func OrderedSidos(present map[string]bool) []string {
	order := make([]string, 0, len(present))
	for _, sido := range SidoOrder {
		if present[sido] {
			order = append(order, sido)
		}
	}
	return order
}
