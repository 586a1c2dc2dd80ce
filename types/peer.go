package types

// PeerType identifies the kind of external system behind a peer.
type PeerType string

const (
	PeerTypeSnowflake PeerType = "snowflake"
	PeerTypeAthena    PeerType = "athena"
	PeerTypePostgres  PeerType = "postgres"
)

// PeerTypes lists every peer type the proxy can register.
var PeerTypes = []PeerType{PeerTypeSnowflake, PeerTypeAthena, PeerTypePostgres}

// Valid reports whether t is a known peer type.
func (t PeerType) Valid() bool {
	for _, known := range PeerTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Peer is an external system registered with the proxy.
type Peer struct {
	Name    string            `json:"name" yaml:"name"`
	Type    PeerType          `json:"type" yaml:"type"`
	Options map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
}
