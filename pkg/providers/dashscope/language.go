package dashscope

import "strings"

// defaultLanguage is what the service assumes when no recognizable tag is
// configured.
const defaultLanguage = "zh"

// languagePrefixes maps configured tag prefixes ("en-US", "ja_JP", "kr")
// to the language codes the transcription API accepts.
var languagePrefixes = []struct {
	prefix string
	code   string
}{
	{"en", "en"},
	{"ja", "ja"},
	{"ko", "ko"},
	{"kr", "ko"},
	{"es", "es"},
	{"fr", "fr"},
	{"de", "de"},
	{"zh", "zh"},
}

// mapLanguage normalizes a language tag to a code the service understands.
// Matching is case-insensitive and by prefix, so regional variants collapse
// onto their base language. Unknown tags fall back to Chinese.
func mapLanguage(tag string) string {
	t := strings.ToLower(strings.TrimSpace(tag))
	for _, p := range languagePrefixes {
		if strings.HasPrefix(t, p.prefix) {
			return p.code
		}
	}
	return defaultLanguage
}
