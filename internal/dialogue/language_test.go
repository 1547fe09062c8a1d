// internal/dialogue/language_test.go
package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectLanguage(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected Language
	}{
		{"plain english", "my laptop is broken", LangEnglish},
		{"empty text", "", LangEnglish},
		{"pure chinese", "我的电脑坏了", LangChinese},
		{"single cjk char among english", "check 票 status", LangChinese},
		{"ticket id only", "INC0010001", LangEnglish},
		{"japanese kana without kanji", "こんにちは", LangEnglish},
		{"kanji shared with cjk block", "電脳", LangChinese},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SelectLanguage(tt.text))
		})
	}
}
