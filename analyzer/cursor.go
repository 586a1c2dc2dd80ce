package analyzer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kent-id/peerwire/parser"
)

// CursorEventKind is the cursor lifecycle step a CursorEvent describes.
type CursorEventKind int

const (
	DeclareCursor CursorEventKind = iota
	FetchCursor
	CloseCursor
	CloseAllCursors
)

// FetchAll is the Count of a CursorEvent that fetches every remaining row.
const FetchAll int64 = -1

// CursorEvent is a cursor lifecycle operation.
type CursorEvent struct {
	Kind  CursorEventKind
	Name  string
	Count int64
	Query *parser.SQL
}

// PeerCursorAnalyzer recognizes DECLARE ... CURSOR, FETCH and CLOSE.
type PeerCursorAnalyzer struct{}

func (PeerCursorAnalyzer) Analyze(stmt parser.Statement) (*CursorEvent, error) {
	switch s := stmt.(type) {
	case *parser.DeclareCursor:
		return &CursorEvent{Kind: DeclareCursor, Name: s.Name, Query: s.Query}, nil
	case *parser.FetchCursor:
		count, err := fetchCount(s.Direction)
		if err != nil {
			return nil, fmt.Errorf("cursor %s: %w", s.Name, err)
		}
		return &CursorEvent{Kind: FetchCursor, Name: s.Name, Count: count}, nil
	case *parser.CloseCursor:
		if s.All {
			return &CursorEvent{Kind: CloseAllCursors}, nil
		}
		return &CursorEvent{Kind: CloseCursor, Name: s.Name}, nil
	default:
		return nil, nil
	}
}

func fetchCount(direction string) (int64, error) {
	d := strings.TrimSpace(strings.TrimPrefix(direction, "FORWARD"))
	switch d {
	case "", "NEXT":
		return 1, nil
	case "ALL":
		return FetchAll, nil
	}
	n, err := strconv.ParseInt(d, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unsupported fetch direction %q", direction)
	}
	if n <= 0 {
		return 0, fmt.Errorf("only forward fetches are supported, got %d", n)
	}
	return n, nil
}
