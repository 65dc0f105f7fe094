package shader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize_RoundTrip(t *testing.T) {
	src := "#version 100\n#define SCALE \\\n  2.0\n/* block */ uniform mat4 u_m; // tail\nvoid main() { float x = 1.5e-3f + 0x1F; }\n"
	tokens := Tokenize(src)
	assert.Equal(t, src, Join(tokens))
}

func TestTokenize_Kinds(t *testing.T) {
	tokens := Tokenize("#define A \\\n 1\nx.y = .5;")

	var kinds []TokenKind
	var texts []string
	for _, tok := range tokens {
		kinds = append(kinds, tok.Kind)
		texts = append(texts, tok.Text)
	}
	assert.Equal(t, []TokenKind{
		TokenDirective, TokenNewline,
		TokenIdent, TokenPunct, TokenIdent, TokenSpace, TokenPunct, TokenSpace, TokenNumber, TokenPunct,
	}, kinds)
	assert.Equal(t, "#define A \\\n 1", texts[0])
	assert.Equal(t, ".5", texts[8])
}

func TestTokenize_HashOnlyAtLineStart(t *testing.T) {
	tokens := Tokenize("a # b")
	for _, tok := range tokens {
		assert.NotEqual(t, TokenDirective, tok.Kind)
	}
}
