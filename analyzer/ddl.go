// Package analyzer inspects single parsed statements. Each analyzer returns a
// structured result when the statement is one it handles, nil when it is not, or an
// error when the statement is its kind but is malformed.
package analyzer

import (
	"fmt"
	"sort"

	"github.com/kent-id/peerwire/parser"
	"github.com/kent-id/peerwire/types"
)

// DDLKind is the peer-management operation a PeerDDL describes.
type DDLKind int

const (
	CreatePeer DDLKind = iota
	DropPeer
)

func (k DDLKind) String() string {
	switch k {
	case CreatePeer:
		return "CREATE PEER"
	case DropPeer:
		return "DROP PEER"
	default:
		return fmt.Sprintf("DDLKind(%d)", int(k))
	}
}

// PeerDDL is a peer-management operation. Peer is set for CreatePeer.
type PeerDDL struct {
	Kind        DDLKind
	Name        string
	Peer        *types.Peer
	IfExists    bool
	IfNotExists bool
}

// requiredOptions lists the WITH options each peer type must be created with.
var requiredOptions = map[types.PeerType][]string{
	types.PeerTypeSnowflake: {"account_id", "username", "private_key", "warehouse", "database"},
	types.PeerTypeAthena:    {"region", "workgroup", "database"},
	types.PeerTypePostgres:  {"host", "user", "database"},
}

// PeerDDLAnalyzer recognizes CREATE PEER and DROP PEER.
type PeerDDLAnalyzer struct{}

func (PeerDDLAnalyzer) Analyze(stmt parser.Statement) (*PeerDDL, error) {
	switch s := stmt.(type) {
	case *parser.CreatePeer:
		peerType := types.PeerType(s.PeerType)
		if !peerType.Valid() {
			return nil, fmt.Errorf("unsupported peer type %q for peer %s", s.PeerType, s.Name)
		}
		var missing []string
		for _, key := range requiredOptions[peerType] {
			if _, ok := s.Options[key]; !ok {
				missing = append(missing, key)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return nil, fmt.Errorf("peer %s of type %s is missing options: %v", s.Name, peerType, missing)
		}
		return &PeerDDL{
			Kind:        CreatePeer,
			Name:        s.Name,
			Peer:        &types.Peer{Name: s.Name, Type: peerType, Options: s.Options},
			IfNotExists: s.IfNotExists,
		}, nil
	case *parser.DropPeer:
		return &PeerDDL{Kind: DropPeer, Name: s.Name, IfExists: s.IfExists}, nil
	default:
		return nil, nil
	}
}
