package shader

import "strings"

// TokenKind classifies a source token.
type TokenKind int

const (
	TokenIdent TokenKind = iota
	TokenNumber
	TokenPunct
	TokenSpace
	TokenNewline
	TokenComment
	// TokenDirective is a whole preprocessor line, without its trailing newline.
	TokenDirective
)

// Token is one lexical element of shader source. Joining the Text of every token
// reproduces the source exactly.
type Token struct {
	Kind TokenKind
	Text string
}

// Tokenize splits shading-language source into typed tokens.
//
// Parameters:
//   - src: the source text
//
// Returns:
//   - []Token: the token sequence
func Tokenize(src string) []Token {
	var tokens []Token
	lineStart := true
	for i := 0; i < len(src); {
		c := src[i]
		start := i
		switch {
		case c == '\n':
			i++
			tokens = append(tokens, Token{TokenNewline, src[start:i]})
			lineStart = true
			continue
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			for i < len(src) && (src[i] == ' ' || src[i] == '\t' || src[i] == '\r' || src[i] == '\f' || src[i] == '\v') {
				i++
			}
			tokens = append(tokens, Token{TokenSpace, src[start:i]})
			continue
		case c == '#' && lineStart:
			i = directiveEnd(src, i)
			tokens = append(tokens, Token{TokenDirective, src[start:i]})
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			tokens = append(tokens, Token{TokenComment, src[start:i]})
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				i = len(src)
			} else {
				i += 2 + end + 2
			}
			tokens = append(tokens, Token{TokenComment, src[start:i]})
		case isIdentStart(c):
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			tokens = append(tokens, Token{TokenIdent, src[start:i]})
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			i = numberEnd(src, i)
			tokens = append(tokens, Token{TokenNumber, src[start:i]})
		default:
			i++
			tokens = append(tokens, Token{TokenPunct, src[start:i]})
		}
		lineStart = false
	}
	return tokens
}

// Join concatenates token text.
func Join(tokens []Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(t.Text)
	}
	return sb.String()
}

// directiveEnd returns the end of a preprocessor line, following backslash continuations.
func directiveEnd(src string, i int) int {
	for i < len(src) {
		if src[i] == '\n' {
			if i > 0 && src[i-1] == '\\' {
				i++
				continue
			}
			return i
		}
		i++
	}
	return i
}

func numberEnd(src string, i int) int {
	if src[i] == '0' && i+1 < len(src) && (src[i+1] == 'x' || src[i+1] == 'X') {
		i += 2
		for i < len(src) && isHexDigit(src[i]) {
			i++
		}
	} else {
		for i < len(src) && (isDigit(src[i]) || src[i] == '.') {
			i++
		}
		if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
			j := i + 1
			if j < len(src) && (src[j] == '+' || src[j] == '-') {
				j++
			}
			if j < len(src) && isDigit(src[j]) {
				i = j
				for i < len(src) && isDigit(src[i]) {
					i++
				}
			}
		}
	}
	for i < len(src) && (src[i] == 'f' || src[i] == 'F' || src[i] == 'u' || src[i] == 'U') {
		i++
	}
	return i
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// isTrivia reports whether a token carries no syntax.
func (t Token) isTrivia() bool {
	return t.Kind == TokenSpace || t.Kind == TokenNewline || t.Kind == TokenComment
}
