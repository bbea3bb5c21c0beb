package apikey

// SelectorKind discriminates the ways a bulk key-status request can target
// keys: every key, the newest, the oldest, or one specific key by ID.
type SelectorKind int

const (
	SelectAll SelectorKind = iota
	SelectLatest
	SelectOldest
	SelectByID
)

// Selector is the parsed form of the :keyIdOrMode path parameter. It is
// parsed once at the HTTP boundary; business logic never re-interprets the
// raw string.
type Selector struct {
	Kind  SelectorKind
	KeyID string
}

// ParseSelector maps the raw path parameter to a Selector. Anything that is
// not a reserved mode word is treated as a key ID.
func ParseSelector(raw string) Selector {
	switch raw {
	case "all":
		return Selector{Kind: SelectAll}
	case "latest":
		return Selector{Kind: SelectLatest}
	case "oldest":
		return Selector{Kind: SelectOldest}
	default:
		return Selector{Kind: SelectByID, KeyID: raw}
	}
}
