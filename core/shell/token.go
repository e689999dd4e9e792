// Package shell turns raw command lines into executable command trees.
//
// A line is tokenized into words and operators, then parsed by
// recursive descent into a Node tree. Word expansion (variables,
// tildes, command substitution, globs) happens while simple commands
// are collected, so the executor only ever sees final argv values.
package shell

import "strings"

// TokenKind identifies a lexical element of a command line.
type TokenKind int

const (
	TokenWord TokenKind = iota
	TokenPipe
	TokenRedirectOut
	TokenRedirectAppend
	TokenRedirectIn
	TokenAnd
	TokenOr
	TokenBackground
)

// Token is a single word or operator. Text is only set for TokenWord.
type Token struct {
	Kind TokenKind
	Text string
}

// Tokenize splits a raw line into tokens. Quote characters toggle
// quoting state and are dropped from the word text; which quote kind a
// word came from is not recorded. Operators are only recognized
// outside quotes. Unterminated quotes are not an error here, the line
// editor's incomplete-input detection is expected to have already
// rejected such lines.
func Tokenize(line string) []Token {
	var tokens []Token
	var current strings.Builder
	inSingle := false
	inDouble := false

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, Token{Kind: TokenWord, Text: current.String()})
			current.Reset()
		}
	}

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '\'' && !inDouble:
			inSingle = !inSingle

		case ch == '"' && !inSingle:
			inDouble = !inDouble

		case (ch == ' ' || ch == '\t' || ch == '\n') && !inSingle && !inDouble:
			flush()

		case ch == '|' && !inSingle && !inDouble:
			flush()
			if i+1 < len(runes) && runes[i+1] == '|' {
				i++
				tokens = append(tokens, Token{Kind: TokenOr})
			} else {
				tokens = append(tokens, Token{Kind: TokenPipe})
			}

		case ch == '&' && !inSingle && !inDouble:
			flush()
			if i+1 < len(runes) && runes[i+1] == '&' {
				i++
				tokens = append(tokens, Token{Kind: TokenAnd})
			} else {
				tokens = append(tokens, Token{Kind: TokenBackground})
			}

		case ch == '>' && !inSingle && !inDouble:
			flush()
			if i+1 < len(runes) && runes[i+1] == '>' {
				i++
				tokens = append(tokens, Token{Kind: TokenRedirectAppend})
			} else {
				tokens = append(tokens, Token{Kind: TokenRedirectOut})
			}

		case ch == '<' && !inSingle && !inDouble:
			flush()
			tokens = append(tokens, Token{Kind: TokenRedirectIn})

		default:
			current.WriteRune(ch)
		}
	}
	flush()

	return tokens
}
