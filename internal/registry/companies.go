package registry

// Default returns the built-in global game company table (KR/CN/JP/US/EU).
// Korean codes are KRX tickers; the rest use each exchange's native symbol.
func Default() *Registry {
	return New(defaultCompanies)
}

var defaultCompanies = []Company{
	// Korea
	{Code: "035420", Name: "네이버", Country: "KR"},
	{Code: "035720", Name: "카카오", Country: "KR"},
	{Code: "259960", Name: "크래프톤", Country: "KR"},
	{Code: "036570", Name: "엔씨소프트", Country: "KR"},
	{Code: "251270", Name: "넷마블", Country: "KR"},
	{Code: "263750", Name: "펄어비스", Country: "KR"},
	{Code: "293490", Name: "카카오게임즈", Country: "KR"},
	{Code: "225570", Name: "넥슨게임즈", Country: "KR"},
	{Code: "112040", Name: "위메이드", Country: "KR"},
	{Code: "095660", Name: "네오위즈", Country: "KR"},
	{Code: "181710", Name: "NHN", Country: "KR"},
	{Code: "078340", Name: "컴투스", Country: "KR"},
	{Code: "192080", Name: "더블유게임즈", Country: "KR"},
	{Code: "145720", Name: "더블다운인터액티브", Country: "KR"},
	{Code: "089500", Name: "그라비티", Country: "KR"},
	{Code: "194480", Name: "데브시스터즈", Country: "KR"},
	{Code: "069080", Name: "웹젠", Country: "KR"},
	{Code: "217270", Name: "넵튠", Country: "KR"},
	{Code: "101730", Name: "위메이드맥스", Country: "KR"},
	{Code: "063080", Name: "컴투스홀딩스", Country: "KR"},
	{Code: "067000", Name: "조이시티", Country: "KR"},
	{Code: "950190", Name: "미투젠", Country: "KR"},
	{Code: "123420", Name: "위메이드플레이", Country: "KR"},
	{Code: "201490", Name: "미투온", Country: "KR"},
	{Code: "348030", Name: "모비릭스", Country: "KR"},
	{Code: "052790", Name: "액토즈소프트", Country: "KR"},
	{Code: "331520", Name: "밸로프", Country: "KR"},
	{Code: "205500", Name: "넥써쓰", Country: "KR"},
	{Code: "462870", Name: "시프트업", Country: "KR"},
	// China (Hong Kong / US listings / mainland)
	{Code: "00700", Name: "Tencent", Country: "CN"},
	{Code: "09999", Name: "Netease", Country: "CN"},
	{Code: "09888", Name: "Baidu", Country: "CN"},
	{Code: "03888", Name: "Kingsoft", Country: "CN"},
	{Code: "002624", Name: "Perfect World", Country: "CN"},
	{Code: "00777", Name: "Netdragon", Country: "CN"},
	{Code: "SOHU", Name: "Sohu", Country: "CN"},
	{Code: "CMCM", Name: "Cheetah Mobile", Country: "CN"},
	// Japan (Tokyo)
	{Code: "7974", Name: "Nintendo", Country: "JP"},
	{Code: "3659", Name: "Nexon", Country: "JP"},
	{Code: "7832", Name: "Bandai-Namco", Country: "JP"},
	{Code: "9697", Name: "Capcom", Country: "JP"},
	{Code: "9766", Name: "KONAMI", Country: "JP"},
	{Code: "9684", Name: "Square-Enix", Country: "JP"},
	{Code: "6460", Name: "Sega", Country: "JP"},
	{Code: "3765", Name: "Gungho", Country: "JP"},
	{Code: "2432", Name: "DeNA", Country: "JP"},
	{Code: "3632", Name: "Gree", Country: "JP"},
	{Code: "3668", Name: "COLOPL", Country: "JP"},
	{Code: "3656", Name: "Klab", Country: "JP"},
	// United States
	{Code: "EA", Name: "Electronic-Arts", Country: "US"},
	{Code: "RBLX", Name: "Roblox", Country: "US"},
	{Code: "TTWO", Name: "Take-Two", Country: "US"},
	{Code: "PLTK", Name: "Playtika", Country: "US"},
	{Code: "SCPL", Name: "Sciplay", Country: "US"},
	// Europe (Warsaw / Paris)
	{Code: "CDR", Name: "CD Projekt SA", Country: "EU"},
	{Code: "UBI", Name: "Ubisoft", Country: "EU"},
}
