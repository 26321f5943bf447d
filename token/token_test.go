package token

import "testing"

func TestCreateToken(t *testing.T) {
	tests := []struct {
		name      string
		tokenType TokenType
		lexeme    string
		want      Token
	}{
		{
			name:      "LPAREN token",
			tokenType: LPAREN,
			lexeme:    "(",
			want:      Token{TokenType: LPAREN, Lexeme: "(", Line: 3, Column: 5},
		},
		{
			name:      "keyword token",
			tokenType: SAY,
			lexeme:    "SAY",
			want:      Token{TokenType: SAY, Lexeme: "SAY", Line: 3, Column: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CreateToken(tt.tokenType, tt.lexeme, 3, 5)
			if got != tt.want {
				t.Errorf("CreateToken() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreateLiteralToken(t *testing.T) {
	got := CreateLiteralToken(NUMBER, 3.5, "3.5", 1, 1)
	if got.Literal != 3.5 {
		t.Errorf("Literal = %v, want 3.5", got.Literal)
	}
	if got.TokenType != NUMBER {
		t.Errorf("TokenType = %v, want NUMBER", got.TokenType)
	}
}

func TestKeywordsCoverSurfaceVocabulary(t *testing.T) {
	for _, kw := range []string{
		"LOCK", "IN", "ITS", "OVER", "TRALALERO", "TRALALA",
		"FANUMTAX", "FR", "DIDDLE", "SAY", "TOUCHY", "RETREAT",
		"YOUSHALLNOTPASS", "ONGOD", "NO", "CAP", "DEADASS",
		"SKIBIDI", "RIZZUP", "RING", "YAS",
	} {
		if _, ok := Keywords[kw]; !ok {
			t.Errorf("missing keyword entry for %q", kw)
		}
	}
}

func TestBraincellIndices(t *testing.T) {
	for name, idx := range Braincells {
		if BraincellNames[idx] != name {
			t.Errorf("BraincellNames[%d] = %q, want %q", idx, BraincellNames[idx], name)
		}
	}
}

func TestGlyphOperator(t *testing.T) {
	cases := map[rune]TokenType{'💀': ADD, '😭': SUB, '😏': MUL, '🚡': DIV}
	for r, want := range cases {
		got, ok := GlyphOperator(r)
		if !ok || got != want {
			t.Errorf("GlyphOperator(%q) = %v, %v, want %v, true", r, got, ok, want)
		}
	}
	if _, ok := GlyphOperator('x'); ok {
		t.Errorf("GlyphOperator('x') should not be found")
	}
}
