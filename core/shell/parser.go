package shell

import (
	"errors"
	"fmt"
)

// Node is one node of a parsed command tree.
type Node interface {
	isNode()
}

// Simple is a single program invocation. Argv is never empty.
type Simple struct {
	Argv       []string
	Background bool
}

// Pipe feeds Left's output to Right. Chains of three or more stages
// nest left-associatively: a|b|c is Pipe{Pipe{a,b},c}.
type Pipe struct {
	Left  Node
	Right Node
}

// RedirectOut writes Cmd's output to File, appending when Append is set.
type RedirectOut struct {
	Cmd    Node
	File   string
	Append bool
}

// RedirectIn feeds File's contents to Cmd as standard input.
type RedirectIn struct {
	Cmd  Node
	File string
}

// Chain sequences Left and Right with short-circuit evaluation:
// And selects && semantics, otherwise ||.
type Chain struct {
	Left  Node
	Right Node
	And   bool
}

func (*Simple) isNode()      {}
func (*Pipe) isNode()        {}
func (*RedirectOut) isNode() {}
func (*RedirectIn) isNode()  {}
func (*Chain) isNode()       {}

// WordExpander resolves a word's variables, tildes, substitutions and
// glob patterns during simple-command construction.
type WordExpander interface {
	// ExpandTilde performs tilde expansion only, used for redirect
	// filenames.
	ExpandTilde(word string) string
	// ExpandWord fully expands one word except for globbing.
	ExpandWord(word string) (string, error)
	// Glob matches an expanded word against the filesystem. A nil
	// result means the word is used verbatim.
	Glob(word string) []string
}

// Parse turns a token sequence into a command tree.
//
// Grammar, outermost first: chain (&&/||) > pipe (|) > redirects > simple.
// Both chain operators fold left-associatively with no precedence
// between them. A background token ends the command: anything after an
// "&" on the line is discarded.
func Parse(tokens []Token, expander WordExpander) (Node, error) {
	if len(tokens) == 0 {
		return nil, errors.New("empty command")
	}

	p := &parser{tokens: tokens, expander: expander}
	return p.parseChain()
}

type parser struct {
	tokens   []Token
	pos      int
	expander WordExpander

	// terminated is set once a Background token has been consumed;
	// every parse level stops and remaining tokens are dropped.
	terminated bool
}

func (p *parser) peek() (Token, bool) {
	if p.pos >= len(p.tokens) {
		return Token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) parseChain() (Node, error) {
	left, err := p.parsePipe()
	if err != nil {
		return nil, err
	}

	for !p.terminated {
		tok, ok := p.peek()
		if !ok || (tok.Kind != TokenAnd && tok.Kind != TokenOr) {
			break
		}
		p.pos++

		right, err := p.parsePipe()
		if err != nil {
			return nil, err
		}
		left = &Chain{Left: left, Right: right, And: tok.Kind == TokenAnd}
	}

	return left, nil
}

func (p *parser) parsePipe() (Node, error) {
	left, err := p.parseRedirect()
	if err != nil {
		return nil, err
	}

	for !p.terminated {
		tok, ok := p.peek()
		if !ok || tok.Kind != TokenPipe {
			break
		}
		p.pos++

		right, err := p.parseRedirect()
		if err != nil {
			return nil, err
		}
		left = &Pipe{Left: left, Right: right}
	}

	return left, nil
}

// parseRedirect parses one simple command and greedily wraps it for
// every trailing redirect operator, left to right.
func (p *parser) parseRedirect() (Node, error) {
	cmd, err := p.parseSimple()
	if err != nil {
		return nil, err
	}

	for !p.terminated {
		tok, ok := p.peek()
		if !ok {
			break
		}

		switch tok.Kind {
		case TokenRedirectOut:
			p.pos++
			file, err := p.redirectFile("redirect output")
			if err != nil {
				return nil, err
			}
			cmd = &RedirectOut{Cmd: cmd, File: file}

		case TokenRedirectAppend:
			p.pos++
			file, err := p.redirectFile("redirect append")
			if err != nil {
				return nil, err
			}
			cmd = &RedirectOut{Cmd: cmd, File: file, Append: true}

		case TokenRedirectIn:
			p.pos++
			file, err := p.redirectFile("redirect input")
			if err != nil {
				return nil, err
			}
			cmd = &RedirectIn{Cmd: cmd, File: file}

		default:
			return cmd, nil
		}
	}

	return cmd, nil
}

// redirectFile consumes the filename word after a redirect operator.
// Filenames get tilde expansion only, no variable or glob expansion.
func (p *parser) redirectFile(op string) (string, error) {
	tok, ok := p.peek()
	if !ok {
		return "", fmt.Errorf("%s: missing filename", op)
	}
	if tok.Kind != TokenWord {
		return "", fmt.Errorf("%s: expected filename", op)
	}
	p.pos++

	return p.expander.ExpandTilde(tok.Text), nil
}

func (p *parser) parseSimple() (Node, error) {
	var argv []string
	background := false

loop:
	for {
		tok, ok := p.peek()
		if !ok {
			break
		}

		switch tok.Kind {
		case TokenWord:
			expanded, err := p.expander.ExpandWord(tok.Text)
			if err != nil {
				return nil, err
			}
			if matches := p.expander.Glob(expanded); len(matches) > 0 {
				argv = append(argv, matches...)
			} else {
				argv = append(argv, expanded)
			}
			p.pos++

		case TokenBackground:
			background = true
			p.terminated = true
			p.pos++
			break loop

		default:
			break loop
		}
	}

	if len(argv) == 0 {
		return nil, errors.New("empty command")
	}

	return &Simple{Argv: argv, Background: background}, nil
}
