package dashscope

import "testing"

func TestMapLanguage(t *testing.T) {
	cases := []struct {
		tag  string
		want string
	}{
		{"en", "en"},
		{"en-US", "en"},
		{"EN-GB", "en"},
		{"ja", "ja"},
		{"ja_JP", "ja"},
		{"ko", "ko"},
		{"kr", "ko"},
		{"KR-kr", "ko"},
		{"es-MX", "es"},
		{"fr", "fr"},
		{"de-AT", "de"},
		{"zh", "zh"},
		{"zh-Hant", "zh"},
		{"", "zh"},
		{"  en  ", "en"},
		{"ru", "zh"},
		{"pt-BR", "zh"},
	}
	for _, tc := range cases {
		if got := mapLanguage(tc.tag); got != tc.want {
			t.Errorf("mapLanguage(%q) = %q, want %q", tc.tag, got, tc.want)
		}
	}
}
