// internal/domain/models/connection.go
package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Track is one of the two role dimensions negotiated by a connection.
type Track string

const (
	TrackMentor   Track = "mentor"
	TrackOrgAdmin Track = "org_admin"
)

// Tracks lists the negotiable tracks in escalation order (Mentor < OrgAdmin).
var Tracks = []Track{TrackMentor, TrackOrgAdmin}

// Valid reports whether t names a known track.
func (t Track) Valid() bool {
	return t == TrackMentor || t == TrackOrgAdmin
}

// Label converts the internal track name to a user-facing string.
func (t Track) Label() string {
	if t == TrackOrgAdmin {
		return "Org Admin"
	}
	return "Mentor"
}

// Actor identifies which side of a connection is acting.
type Actor string

const (
	ActorUser Actor = "user"
	ActorOrg  Actor = "org"
)

// Decision is one actor's tri-state response on one track. It is stored as a
// string, never as a nullable boolean, so illegal states are unrepresentable.
type Decision string

const (
	DecisionPending  Decision = "pending"
	DecisionAccepted Decision = "accepted"
	DecisionRejected Decision = "rejected"
)

// TrackState is the effective state of one track, derived from the pair of
// decisions on it.
type TrackState string

const (
	TrackOpen         TrackState = "open"
	TrackAwaitingOrg  TrackState = "awaiting_org"
	TrackAwaitingUser TrackState = "awaiting_user"
	TrackGranted      TrackState = "granted"
	TrackClosed       TrackState = "closed"
)

// Terminal reports whether no further decisions are accepted on the track.
func (s TrackState) Terminal() bool {
	return s == TrackGranted || s == TrackClosed
}

// InvalidTransitionError reports a decide call that the state machine
// rejected: the flag was already decided, or the actor may not decide that
// track. It carries enough context for callers to render an actionable
// message.
type InvalidTransitionError struct {
	Track  Track
	Actor  Actor
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition on %s track by %s: %s", e.Track, e.Actor, e.Reason)
}

// Connection represents a negotiation between a user's program profile and an
// organization over role grants. Each side holds an independent tri-state
// decision per track; a role takes effect only when both sides of a track
// have accepted.
//
// Owner scope: the profile. Exactly one live connection may exist per
// (profile, organization) pair; the connection store enforces that with a
// unique index.
type Connection struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProfileID      primitive.ObjectID `bson:"profile_id" json:"profile_id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`

	UserMentor   Decision `bson:"user_mentor" json:"user_mentor"`
	UserOrgAdmin Decision `bson:"user_org_admin" json:"user_org_admin"`
	OrgMentor    Decision `bson:"org_mentor" json:"org_mentor"`
	OrgOrgAdmin  Decision `bson:"org_org_admin" json:"org_org_admin"`

	// Message is the optional free-text note supplied by the initiating
	// party; it is also recorded as the first connection message.
	Message string `bson:"message,omitempty" json:"message,omitempty"`

	// SeenByUser / SeenByOrg track whether each side has viewed the latest
	// change made by the other side.
	SeenByUser bool `bson:"seen_by_user" json:"seen_by_user"`
	SeenByOrg  bool `bson:"seen_by_org" json:"seen_by_org"`

	CreatedOn    time.Time `bson:"created_on" json:"created_on"`
	LastModified time.Time `bson:"last_modified" json:"last_modified"`
}

// NewConnection returns a connection with all four flags Pending, the only
// legal initial state.
func NewConnection(profileID, orgID primitive.ObjectID) Connection {
	now := time.Now().UTC()
	return Connection{
		ProfileID:      profileID,
		OrganizationID: orgID,
		UserMentor:     DecisionPending,
		UserOrgAdmin:   DecisionPending,
		OrgMentor:      DecisionPending,
		OrgOrgAdmin:    DecisionPending,
		CreatedOn:      now,
		LastModified:   now,
	}
}

// Flag returns the decision for the given (actor, track) pair.
func (c *Connection) Flag(track Track, actor Actor) Decision {
	switch {
	case track == TrackMentor && actor == ActorUser:
		return c.UserMentor
	case track == TrackMentor && actor == ActorOrg:
		return c.OrgMentor
	case track == TrackOrgAdmin && actor == ActorUser:
		return c.UserOrgAdmin
	default:
		return c.OrgOrgAdmin
	}
}

func (c *Connection) setFlag(track Track, actor Actor, d Decision) {
	switch {
	case track == TrackMentor && actor == ActorUser:
		c.UserMentor = d
	case track == TrackMentor && actor == ActorOrg:
		c.OrgMentor = d
	case track == TrackOrgAdmin && actor == ActorUser:
		c.UserOrgAdmin = d
	default:
		c.OrgOrgAdmin = d
	}
}

// TrackState derives the effective state of a track from its two flags.
// A rejection by either side closes the track regardless of the other flag.
func (c *Connection) TrackState(track Track) TrackState {
	user := c.Flag(track, ActorUser)
	org := c.Flag(track, ActorOrg)

	if user == DecisionRejected || org == DecisionRejected {
		return TrackClosed
	}
	switch {
	case user == DecisionAccepted && org == DecisionAccepted:
		return TrackGranted
	case user == DecisionAccepted:
		return TrackAwaitingOrg
	case org == DecisionAccepted:
		return TrackAwaitingUser
	default:
		return TrackOpen
	}
}

// Decide records one actor's decision on one track. Each flag may be decided
// exactly once: any call on a non-Pending flag fails, which also makes
// Granted and Closed tracks terminal. The caller is responsible for checking
// that the acting principal is allowed to act as the given actor.
//
// Decide reports whether the track became Granted as a result, so the caller
// can run the role transition and append the system message in the same
// store transaction.
func (c *Connection) Decide(track Track, actor Actor, outcome Decision) (granted bool, err error) {
	if !track.Valid() {
		return false, &InvalidTransitionError{Track: track, Actor: actor, Reason: "unknown track"}
	}
	if actor != ActorUser && actor != ActorOrg {
		return false, &InvalidTransitionError{Track: track, Actor: actor, Reason: "unknown actor"}
	}
	if outcome != DecisionAccepted && outcome != DecisionRejected {
		return false, &InvalidTransitionError{Track: track, Actor: actor, Reason: "outcome must be accepted or rejected"}
	}
	if cur := c.Flag(track, actor); cur != DecisionPending {
		return false, &InvalidTransitionError{
			Track: track, Actor: actor,
			Reason: fmt.Sprintf("flag already %s", cur),
		}
	}

	// An org-admin grant carries the mentor role with it (Mentor < OrgAdmin),
	// so the grant cannot complete while the mentor track is closed.
	if track == TrackOrgAdmin && outcome == DecisionAccepted &&
		c.Flag(track, otherActor(actor)) == DecisionAccepted &&
		c.TrackState(TrackMentor) == TrackClosed {
		return false, &InvalidTransitionError{
			Track: track, Actor: actor,
			Reason: "mentor track is closed",
		}
	}

	c.setFlag(track, actor, outcome)
	c.touch(actor)

	granted = c.TrackState(track) == TrackGranted

	// Completing the org-admin grant accepts any still-pending mentor flags,
	// so both tracks become Granted in the same step.
	if granted && track == TrackOrgAdmin {
		if c.UserMentor == DecisionPending {
			c.UserMentor = DecisionAccepted
		}
		if c.OrgMentor == DecisionPending {
			c.OrgMentor = DecisionAccepted
		}
	}

	return granted, nil
}

func otherActor(a Actor) Actor {
	if a == ActorUser {
		return ActorOrg
	}
	return ActorUser
}

// touch updates last_modified and flips the seen markers: the acting side
// has seen the connection, the other side has not.
func (c *Connection) touch(actor Actor) {
	c.LastModified = time.Now().UTC()
	if actor == ActorUser {
		c.SeenByUser = true
		c.SeenByOrg = false
	} else {
		c.SeenByOrg = true
		c.SeenByUser = false
	}
}

// Status returns a short user-facing summary across both tracks, from the
// most advanced track's point of view.
func (c *Connection) Status() string {
	states := []TrackState{c.TrackState(TrackOrgAdmin), c.TrackState(TrackMentor)}
	for _, s := range states {
		if s == TrackGranted {
			return "Accepted"
		}
	}
	for _, s := range states {
		switch s {
		case TrackAwaitingOrg:
			return "Org Action Required"
		case TrackAwaitingUser:
			return "User Action Required"
		}
	}
	if states[0] == TrackClosed && states[1] == TrackClosed {
		return "Rejected"
	}
	return "Unreplied"
}

// GrantedRole returns the highest role granted by this connection, or ""
// when nothing has been granted yet.
func (c *Connection) GrantedRole() string {
	if c.TrackState(TrackOrgAdmin) == TrackGranted {
		return TrackOrgAdmin.Label()
	}
	if c.TrackState(TrackMentor) == TrackGranted {
		return TrackMentor.Label()
	}
	return ""
}
