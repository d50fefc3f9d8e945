// Package owner models the discriminated owner of an agent: exactly one
// of a team or an aide. The zero Ref is invalid; construct values through
// ForTeam or ForAide so that "both set" and "neither set" states are
// unrepresentable.
package owner

import (
	"encoding/json"
	"fmt"

	"github.com/adjutant-ai/adjutant/internal/domain"
)

// Kind discriminates the two owner branches.
type Kind string

const (
	KindTeam Kind = "team"
	KindAide Kind = "aide"
)

// Ref identifies the team or aide an agent (and its tasks) belongs to.
type Ref struct {
	kind Kind
	id   string
}

// ForTeam returns a Ref owned by the given team.
func ForTeam(teamID string) Ref {
	return Ref{kind: KindTeam, id: teamID}
}

// ForAide returns a Ref owned by the given aide.
func ForAide(aideID string) Ref {
	return Ref{kind: KindAide, id: aideID}
}

// Kind returns the owner branch.
func (r Ref) Kind() Kind { return r.kind }

// ID returns the team or aide id, depending on Kind.
func (r Ref) ID() string { return r.id }

// IsZero reports whether the Ref was never constructed.
func (r Ref) IsZero() bool { return r.kind == "" }

// Validate returns ErrValidation for zero or malformed refs.
func (r Ref) Validate() error {
	if r.kind != KindTeam && r.kind != KindAide {
		return fmt.Errorf("owner kind %q: %w", r.kind, domain.ErrValidation)
	}
	if r.id == "" {
		return fmt.Errorf("owner id is empty: %w", domain.ErrValidation)
	}
	return nil
}

// Columns splits the Ref into the two nullable database columns
// (team_id, aide_id). Exactly one pointer is non-nil for a valid Ref.
func (r Ref) Columns() (teamID, aideID *string) {
	switch r.kind {
	case KindTeam:
		return &r.id, nil
	case KindAide:
		return nil, &r.id
	}
	return nil, nil
}

// FromColumns rebuilds a Ref from the two nullable database columns,
// enforcing the exactly-one invariant at the storage boundary.
func FromColumns(teamID, aideID *string) (Ref, error) {
	switch {
	case teamID != nil && aideID != nil:
		return Ref{}, fmt.Errorf("owner has both team_id and aide_id: %w", domain.ErrValidation)
	case teamID != nil:
		return ForTeam(*teamID), nil
	case aideID != nil:
		return ForAide(*aideID), nil
	}
	return Ref{}, fmt.Errorf("owner has neither team_id nor aide_id: %w", domain.ErrValidation)
}

type refJSON struct {
	TeamID string `json:"team_id,omitempty"`
	AideID string `json:"aide_id,omitempty"`
}

// MarshalJSON encodes the Ref as {"team_id": ...} or {"aide_id": ...}.
func (r Ref) MarshalJSON() ([]byte, error) {
	var out refJSON
	switch r.kind {
	case KindTeam:
		out.TeamID = r.id
	case KindAide:
		out.AideID = r.id
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a Ref, rejecting payloads that set both or neither id.
func (r *Ref) UnmarshalJSON(data []byte) error {
	var in refJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	var teamID, aideID *string
	if in.TeamID != "" {
		teamID = &in.TeamID
	}
	if in.AideID != "" {
		aideID = &in.AideID
	}
	ref, err := FromColumns(teamID, aideID)
	if err != nil {
		return err
	}
	*r = ref
	return nil
}

// String renders the Ref for logging.
func (r Ref) String() string {
	if r.IsZero() {
		return "owner(zero)"
	}
	return string(r.kind) + ":" + r.id
}
