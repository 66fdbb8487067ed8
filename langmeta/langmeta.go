// Package langmeta is the built-in language registry: English names
// (handed to the translation capability, which expects "Traditional
// Chinese" rather than "繁體中文"), native names and flags for CLI
// display.
package langmeta

import "strings"

// Meta describes one language.
type Meta struct {
	// Name is the English language name, used in translator prompts.
	Name string
	// Native is the self-name, used in CLI output.
	Native string
	// Flag is a display emoji.
	Flag string
}

// Registry contains canonical language metadata. Variants (pt_BR,
// zh-Hant) are resolved in Resolve via normalization and base
// fallback.
var Registry = map[string]Meta{
	"ar":      {Name: "Arabic", Native: "العربية", Flag: "🇸🇦"},
	"bg":      {Name: "Bulgarian", Native: "Български", Flag: "🇧🇬"},
	"ca":      {Name: "Catalan", Native: "Català", Flag: "🇪🇸"},
	"cs":      {Name: "Czech", Native: "Čeština", Flag: "🇨🇿"},
	"da":      {Name: "Danish", Native: "Dansk", Flag: "🇩🇰"},
	"de":      {Name: "German", Native: "Deutsch", Flag: "🇩🇪"},
	"el":      {Name: "Greek", Native: "Ελληνικά", Flag: "🇬🇷"},
	"en":      {Name: "English", Native: "English", Flag: "🇺🇸"},
	"en-GB":   {Name: "English (UK)", Native: "English (UK)", Flag: "🇬🇧"},
	"es":      {Name: "Spanish", Native: "Español", Flag: "🇪🇸"},
	"et":      {Name: "Estonian", Native: "Eesti", Flag: "🇪🇪"},
	"fa":      {Name: "Persian", Native: "فارسی", Flag: "🇮🇷"},
	"fi":      {Name: "Finnish", Native: "Suomi", Flag: "🇫🇮"},
	"fr":      {Name: "French", Native: "Français", Flag: "🇫🇷"},
	"he":      {Name: "Hebrew", Native: "עברית", Flag: "🇮🇱"},
	"hi":      {Name: "Hindi", Native: "हिन्दी", Flag: "🇮🇳"},
	"hr":      {Name: "Croatian", Native: "Hrvatski", Flag: "🇭🇷"},
	"hu":      {Name: "Hungarian", Native: "Magyar", Flag: "🇭🇺"},
	"id":      {Name: "Indonesian", Native: "Bahasa Indonesia", Flag: "🇮🇩"},
	"it":      {Name: "Italian", Native: "Italiano", Flag: "🇮🇹"},
	"ja":      {Name: "Japanese", Native: "日本語", Flag: "🇯🇵"},
	"ko":      {Name: "Korean", Native: "한국어", Flag: "🇰🇷"},
	"lt":      {Name: "Lithuanian", Native: "Lietuvių", Flag: "🇱🇹"},
	"lv":      {Name: "Latvian", Native: "Latviešu", Flag: "🇱🇻"},
	"ms":      {Name: "Malay", Native: "Bahasa Melayu", Flag: "🇲🇾"},
	"nb":      {Name: "Norwegian Bokmål", Native: "Norsk bokmål", Flag: "🇳🇴"},
	"nl":      {Name: "Dutch", Native: "Nederlands", Flag: "🇳🇱"},
	"pl":      {Name: "Polish", Native: "Polski", Flag: "🇵🇱"},
	"pt":      {Name: "Portuguese", Native: "Português", Flag: "🇵🇹"},
	"pt-BR":   {Name: "Brazilian Portuguese", Native: "Português (Brasil)", Flag: "🇧🇷"},
	"ro":      {Name: "Romanian", Native: "Română", Flag: "🇷🇴"},
	"ru":      {Name: "Russian", Native: "Русский", Flag: "🇷🇺"},
	"sk":      {Name: "Slovak", Native: "Slovenčina", Flag: "🇸🇰"},
	"sl":      {Name: "Slovenian", Native: "Slovenščina", Flag: "🇸🇮"},
	"sr":      {Name: "Serbian", Native: "Српски", Flag: "🇷🇸"},
	"sv":      {Name: "Swedish", Native: "Svenska", Flag: "🇸🇪"},
	"th":      {Name: "Thai", Native: "ไทย", Flag: "🇹🇭"},
	"tr":      {Name: "Turkish", Native: "Türkçe", Flag: "🇹🇷"},
	"uk":      {Name: "Ukrainian", Native: "Українська", Flag: "🇺🇦"},
	"vi":      {Name: "Vietnamese", Native: "Tiếng Việt", Flag: "🇻🇳"},
	"zh":      {Name: "Chinese", Native: "中文", Flag: "🇨🇳"},
	"zh-Hans": {Name: "Simplified Chinese", Native: "简体中文", Flag: "🇨🇳"},
	"zh-Hant": {Name: "Traditional Chinese", Native: "繁體中文", Flag: "🇹🇼"},
	"zh-CN":   {Name: "Simplified Chinese", Native: "简体中文", Flag: "🇨🇳"},
	"zh-TW":   {Name: "Traditional Chinese", Native: "繁體中文", Flag: "🇹🇼"},
}

// canonicalize maps pt_br → pt-BR and zh_hant → zh-Hant.
func canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	for i := 1; i < len(parts); i++ {
		switch len(parts[i]) {
		case 2: // region
			parts[i] = strings.ToUpper(parts[i])
		case 4: // script
			parts[i] = strings.ToUpper(parts[i][:1]) + strings.ToLower(parts[i][1:])
		}
	}
	return strings.Join(parts, "-")
}

// Resolve returns best-effort metadata for a language code, accepting
// pt_BR, pt-BR and similar variants, falling back to the base
// language, and finally echoing the code itself as the name.
func Resolve(lang string) Meta {
	if m, ok := Registry[lang]; ok {
		return m
	}
	normalized := canonicalize(lang)
	if m, ok := Registry[normalized]; ok {
		return m
	}
	if parts := strings.SplitN(normalized, "-", 2); len(parts) == 2 {
		if m, ok := Registry[parts[0]]; ok {
			return m
		}
	}
	return Meta{Name: lang, Native: lang}
}
