// internal/dialogue/language.go
package dialogue

// Language selects the reply template set for a single turn.
type Language string

const (
	LangChinese Language = "zh"
	LangEnglish Language = "en"
)

// SelectLanguage picks the reply language from the current turn's text
// alone. Any code point in the CJK Unified Ideographs block selects
// Chinese. The choice is recomputed every turn and never persisted in
// conversation state.
func SelectLanguage(text string) Language {
	for _, r := range text {
		if r >= 0x4E00 && r <= 0x9FFF {
			return LangChinese
		}
	}
	return LangEnglish
}

// pick returns the reply variant for the selected language.
func pick(lang Language, zh, en string) string {
	if lang == LangChinese {
		return zh
	}
	return en
}
