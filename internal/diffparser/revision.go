package diffparser

import "bytes"

type revisionKind uint8

const (
	revisionUnset revisionKind = iota
	revisionToken
	revisionHead
	revisionPreCreation
	revisionUnknown
)

// Revision identifies the version of a file on one side of a diff. It is
// either a raw revision token taken from the diff text or one of the
// sentinels Head, PreCreation and Unknown. The zero value is unset.
type Revision struct {
	kind  revisionKind
	token []byte
}

// Revision sentinels.
var (
	// Head is the latest committed version.
	Head = Revision{kind: revisionHead}

	// PreCreation means the file did not exist before the change.
	PreCreation = Revision{kind: revisionPreCreation}

	// Unknown means no revision could be determined from the diff text.
	Unknown = Revision{kind: revisionUnknown}
)

// hgUncommitted is the revision token Mercurial diffs against the working
// copy carry on the modified side.
var hgUncommitted = []byte("Uncommitted")

// Rev returns a token revision holding a copy of token. An empty token is
// still a set revision.
func Rev(token []byte) Revision {
	t := make([]byte, len(token))
	copy(t, token)
	return Revision{kind: revisionToken, token: t}
}

// IsSet reports whether r holds a token or a sentinel.
func (r Revision) IsSet() bool { return r.kind != revisionUnset }

// IsSentinel reports whether r is Head, PreCreation or Unknown.
func (r Revision) IsSentinel() bool { return r.kind >= revisionHead }

// IsPreCreation reports whether r is the PreCreation sentinel.
func (r Revision) IsPreCreation() bool { return r.kind == revisionPreCreation }

// IsHead reports whether r is the Head sentinel.
func (r Revision) IsHead() bool { return r.kind == revisionHead }

// IsUnknown reports whether r is the Unknown sentinel.
func (r Revision) IsUnknown() bool { return r.kind == revisionUnknown }

// Token returns the raw token, nil for sentinels.
func (r Revision) Token() []byte { return r.token }

// Equal reports whether two revisions are the same sentinel or hold equal
// tokens.
func (r Revision) Equal(o Revision) bool {
	return r.kind == o.kind && bytes.Equal(r.token, o.token)
}

func (r Revision) String() string {
	switch r.kind {
	case revisionHead:
		return "HEAD"
	case revisionPreCreation:
		return "PRE-CREATION"
	case revisionUnknown:
		return "UNKNOWN"
	case revisionToken:
		return string(r.token)
	default:
		return ""
	}
}

// MarshalText renders sentinels by name and tokens verbatim.
func (r Revision) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}
