package parser

import "strings"

// splitStatements splits raw SQL text on top-level semicolons. String literals,
// quoted identifiers and comments are skipped so a ';' inside them does not split.
// Pieces that hold only whitespace and comments are dropped.
func splitStatements(sql string) []string {
	var pieces []string
	n := len(sql)
	start := 0
	pos := 0

	for pos < n {
		switch {
		case sql[pos] == '\'':
			pos = skipQuoted(sql, pos, n, '\'')
		case sql[pos] == '"':
			pos = skipQuoted(sql, pos, n, '"')
		case isBlockCommentStart(sql, pos, n):
			pos = skipBlockComment(sql, pos, n)
		case isLineCommentStart(sql, pos, n):
			pos = skipLineComment(sql, pos, n)
		case sql[pos] == ';':
			pieces = appendPiece(pieces, sql[start:pos])
			pos++
			start = pos
		default:
			pos++
		}
	}
	return appendPiece(pieces, sql[start:])
}

// splitTopLevel splits s on sep outside quotes and parentheses.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	n := len(s)
	depth := 0
	start := 0
	pos := 0

	for pos < n {
		switch s[pos] {
		case '\'':
			pos = skipQuoted(s, pos, n, '\'')
			continue
		case '"':
			pos = skipQuoted(s, pos, n, '"')
			continue
		case '(':
			depth++
		case ')':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:pos]))
				start = pos + 1
			}
		}
		pos++
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" || len(parts) > 0 {
		parts = append(parts, rest)
	}
	return parts
}

func appendPiece(pieces []string, piece string) []string {
	if stripComments(piece) == "" {
		return pieces
	}
	return append(pieces, strings.TrimSpace(piece))
}

// stripComments removes comments and surrounding whitespace, keeping literals intact.
func stripComments(sql string) string {
	var b strings.Builder
	n := len(sql)
	pos := 0

	for pos < n {
		switch {
		case sql[pos] == '\'' || sql[pos] == '"':
			next := skipQuoted(sql, pos, n, sql[pos])
			b.WriteString(sql[pos:next])
			pos = next
		case isBlockCommentStart(sql, pos, n):
			pos = skipBlockComment(sql, pos, n)
			b.WriteByte(' ')
		case isLineCommentStart(sql, pos, n):
			pos = skipLineComment(sql, pos, n)
			b.WriteByte(' ')
		default:
			b.WriteByte(sql[pos])
			pos++
		}
	}
	return strings.TrimSpace(b.String())
}

// unquote strips one level of single or double quotes, collapsing doubled quotes.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		q := string(s[0])
		return strings.ReplaceAll(s[1:len(s)-1], q+q, q)
	}
	return s
}

// identifier returns the name an identifier denotes: quoted names are kept as written,
// unquoted names fold to lower case.
func identifier(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return unquote(s)
	}
	return strings.ToLower(s)
}

func isBlockCommentStart(sql string, pos, n int) bool {
	return sql[pos] == '/' && pos+1 < n && sql[pos+1] == '*'
}

func isLineCommentStart(sql string, pos, n int) bool {
	return sql[pos] == '-' && pos+1 < n && sql[pos+1] == '-'
}

// skipQuoted advances past a literal opened by quote, where a doubled quote is an
// escaped quote.
func skipQuoted(sql string, pos, n int, quote byte) int {
	pos++
	for pos < n {
		if sql[pos] == quote {
			pos++
			if pos < n && sql[pos] == quote {
				pos++
				continue
			}
			return pos
		}
		pos++
	}
	return pos
}

func skipBlockComment(sql string, pos, n int) int {
	pos += 2
	for pos+1 < n {
		if sql[pos] == '*' && sql[pos+1] == '/' {
			return pos + 2
		}
		pos++
	}
	return n
}

func skipLineComment(sql string, pos, n int) int {
	pos += 2
	for pos < n && sql[pos] != '\n' {
		pos++
	}
	return pos
}
