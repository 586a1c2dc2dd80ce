// Package parser turns raw SQL text into statements for classification. Standard SQL
// goes through github.com/xwb1989/sqlparser; the proxy's peer and cursor statements
// are recognized before the grammar is consulted.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xwb1989/sqlparser"
)

// Error reports text that could not be parsed.
type Error struct {
	Text string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("syntax error in %q: %v", e.Text, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

const ident = `("(?:[^"]|"")+"|[a-zA-Z_][a-zA-Z0-9_$]*)`

var (
	createPeerPattern = regexp.MustCompile(`(?is)^CREATE\s+PEER\s+(IF\s+NOT\s+EXISTS\s+)?` + ident + `\s+FROM\s+` + ident + `(?:\s+WITH\s*\((.*)\))?$`)
	dropPeerPattern   = regexp.MustCompile(`(?is)^DROP\s+PEER\s+(IF\s+EXISTS\s+)?` + ident + `$`)
	declarePattern    = regexp.MustCompile(`(?is)^DECLARE\s+` + ident + `\s+(?:NO\s+SCROLL\s+)?CURSOR\s+(?:WITH(?:OUT)?\s+HOLD\s+)?FOR\s+(.+)$`)
	fetchPattern      = regexp.MustCompile(`(?is)^FETCH\s+(?:(FORWARD|NEXT|ALL|[+-]?\d+|FORWARD\s+(?:ALL|\d+))\s+)?(?:(?:FROM|IN)\s+)?` + ident + `$`)
	closePattern      = regexp.MustCompile(`(?is)^CLOSE\s+` + ident + `$`)
)

// Parse splits raw into statements and parses each one. Blank input, or input made
// only of comments and semicolons, yields no statements.
func Parse(raw string) ([]Statement, error) {
	pieces := splitStatements(raw)
	stmts := make([]Statement, 0, len(pieces))
	for _, piece := range pieces {
		stmt, err := parseOne(piece)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func parseOne(text string) (Statement, error) {
	bare := stripComments(text)

	if m := createPeerPattern.FindStringSubmatch(bare); m != nil {
		options, err := parseOptions(m[4])
		if err != nil {
			return nil, &Error{Text: text, Err: err}
		}
		return &CreatePeer{
			Text:        text,
			Name:        identifier(m[2]),
			PeerType:    strings.ToLower(unquote(m[3])),
			Options:     options,
			IfNotExists: m[1] != "",
		}, nil
	}
	if m := dropPeerPattern.FindStringSubmatch(bare); m != nil {
		return &DropPeer{Text: text, Name: identifier(m[2]), IfExists: m[1] != ""}, nil
	}
	if m := declarePattern.FindStringSubmatch(bare); m != nil {
		query, err := parseSQL(m[2])
		if err != nil {
			return nil, err
		}
		return &DeclareCursor{Text: text, Name: identifier(m[1]), Query: query}, nil
	}
	if m := fetchPattern.FindStringSubmatch(bare); m != nil {
		return &FetchCursor{Text: text, Name: identifier(m[2]), Direction: strings.ToUpper(strings.Join(strings.Fields(m[1]), " "))}, nil
	}
	if m := closePattern.FindStringSubmatch(bare); m != nil {
		name := identifier(m[1])
		if strings.EqualFold(m[1], "ALL") {
			return &CloseCursor{Text: text, All: true}, nil
		}
		return &CloseCursor{Text: text, Name: name}, nil
	}
	return parseSQL(text)
}

func parseSQL(text string) (*SQL, error) {
	ast, err := sqlparser.Parse(text)
	if err != nil {
		return nil, &Error{Text: text, Err: err}
	}
	return &SQL{Text: text, AST: ast}, nil
}

// parseOptions reads "key = 'value', ..." from a WITH clause.
func parseOptions(body string) (map[string]string, error) {
	options := make(map[string]string)
	for _, part := range splitTopLevel(body, ',') {
		if part == "" {
			return nil, fmt.Errorf("empty option in WITH clause")
		}
		kv := splitTopLevel(part, '=')
		if len(kv) != 2 || kv[0] == "" {
			return nil, fmt.Errorf("option %q is not of the form key = value", part)
		}
		key := strings.ToLower(unquote(kv[0]))
		if _, dup := options[key]; dup {
			return nil, fmt.Errorf("duplicate option %q", key)
		}
		options[key] = unquote(kv[1])
	}
	return options, nil
}
