package chat

import "testing"

func TestFoldStripsDiacritics(t *testing.T) {
	if got := fold("Pleť je DNES lepší"); got != "plet je dnes lepsi" {
		t.Fatalf("unexpected fold result %q", got)
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name      string
		prompt    string
		history   []Message
		preferred string
		want      string
	}{
		{"czech letters", "Mám suchou pleť", nil, languageEnglish, languageCzech},
		{"czech without diacritics", "ahoj, jak mam pecovat o plet?", nil, languageEnglish, languageCzech},
		{"english", "How should I treat my skin today?", nil, languageCzech, languageEnglish},
		{"history decides", "ok", []Message{{Author: AuthorUser, Text: "what cream should I use for my acne"}}, languageCzech, languageEnglish},
		{"coach history ignored", "ok", []Message{{Author: AuthorCoach, Text: "how are you today"}}, languageCzech, languageCzech},
		{"tie uses preference", "ok", nil, languageEnglish, languageEnglish},
		{"default czech", "👍", nil, "", languageCzech},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectLanguage(tt.prompt, tt.history, tt.preferred); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
