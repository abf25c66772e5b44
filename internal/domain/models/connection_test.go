package models

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestConnection() Connection {
	return NewConnection(primitive.NewObjectID(), primitive.NewObjectID())
}

func TestNewConnection_AllFlagsPending(t *testing.T) {
	c := newTestConnection()

	for _, track := range Tracks {
		for _, actor := range []Actor{ActorUser, ActorOrg} {
			if got := c.Flag(track, actor); got != DecisionPending {
				t.Errorf("Flag(%s, %s): got %s, want %s", track, actor, got, DecisionPending)
			}
		}
		if got := c.TrackState(track); got != TrackOpen {
			t.Errorf("TrackState(%s): got %s, want %s", track, got, TrackOpen)
		}
	}
}

// TestTrackState_TruthTable exhaustively checks the flag-pair to track-state
// mapping: a role is granted iff both flags are accepted, and a rejection by
// either side closes the track regardless of the other flag.
func TestTrackState_TruthTable(t *testing.T) {
	tests := []struct {
		user Decision
		org  Decision
		want TrackState
	}{
		{DecisionPending, DecisionPending, TrackOpen},
		{DecisionAccepted, DecisionPending, TrackAwaitingOrg},
		{DecisionPending, DecisionAccepted, TrackAwaitingUser},
		{DecisionAccepted, DecisionAccepted, TrackGranted},
		{DecisionRejected, DecisionPending, TrackClosed},
		{DecisionRejected, DecisionAccepted, TrackClosed},
		{DecisionRejected, DecisionRejected, TrackClosed},
		{DecisionPending, DecisionRejected, TrackClosed},
		{DecisionAccepted, DecisionRejected, TrackClosed},
	}

	for _, tt := range tests {
		c := newTestConnection()
		c.UserMentor = tt.user
		c.OrgMentor = tt.org
		if got := c.TrackState(TrackMentor); got != tt.want {
			t.Errorf("TrackState(mentor) with user=%s org=%s: got %s, want %s",
				tt.user, tt.org, got, tt.want)
		}

		// Same table must hold on the org-admin track.
		c = newTestConnection()
		c.UserOrgAdmin = tt.user
		c.OrgOrgAdmin = tt.org
		if got := c.TrackState(TrackOrgAdmin); got != tt.want {
			t.Errorf("TrackState(org_admin) with user=%s org=%s: got %s, want %s",
				tt.user, tt.org, got, tt.want)
		}
	}
}

func TestDecide_GrantRequiresBothSides(t *testing.T) {
	c := newTestConnection()

	granted, err := c.Decide(TrackMentor, ActorOrg, DecisionAccepted)
	if err != nil {
		t.Fatalf("org decide failed: %v", err)
	}
	if granted {
		t.Error("track granted after only one side accepted")
	}
	if got := c.TrackState(TrackMentor); got != TrackAwaitingUser {
		t.Errorf("TrackState: got %s, want %s", got, TrackAwaitingUser)
	}

	granted, err = c.Decide(TrackMentor, ActorUser, DecisionAccepted)
	if err != nil {
		t.Fatalf("user decide failed: %v", err)
	}
	if !granted {
		t.Error("track not granted after both sides accepted")
	}

	// The org-admin track is independent and must remain open.
	if got := c.TrackState(TrackOrgAdmin); got != TrackOpen {
		t.Errorf("org_admin TrackState: got %s, want %s", got, TrackOpen)
	}
}

func TestDecide_PendingOnly(t *testing.T) {
	c := newTestConnection()

	if _, err := c.Decide(TrackMentor, ActorUser, DecisionAccepted); err != nil {
		t.Fatalf("first decide failed: %v", err)
	}

	// Same flag cannot be decided twice, in either direction.
	for _, outcome := range []Decision{DecisionAccepted, DecisionRejected} {
		_, err := c.Decide(TrackMentor, ActorUser, outcome)
		var ite *InvalidTransitionError
		if !errors.As(err, &ite) {
			t.Fatalf("second decide (%s): got %v, want InvalidTransitionError", outcome, err)
		}
		if ite.Track != TrackMentor || ite.Actor != ActorUser {
			t.Errorf("error context: got track=%s actor=%s", ite.Track, ite.Actor)
		}
	}
}

func TestDecide_TerminalStates(t *testing.T) {
	// Granted track rejects further decisions from both sides.
	c := newTestConnection()
	c.UserMentor = DecisionAccepted
	c.OrgMentor = DecisionAccepted

	for _, actor := range []Actor{ActorUser, ActorOrg} {
		var ite *InvalidTransitionError
		if _, err := c.Decide(TrackMentor, actor, DecisionRejected); !errors.As(err, &ite) {
			t.Errorf("decide on granted track by %s: got %v, want InvalidTransitionError", actor, err)
		}
	}

	// Closed track likewise: the rejecting side already decided, and the
	// other side's acceptance cannot reopen it.
	c = newTestConnection()
	if _, err := c.Decide(TrackOrgAdmin, ActorOrg, DecisionRejected); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if got := c.TrackState(TrackOrgAdmin); got != TrackClosed {
		t.Fatalf("TrackState: got %s, want %s", got, TrackClosed)
	}
	granted, err := c.Decide(TrackOrgAdmin, ActorUser, DecisionAccepted)
	if err != nil {
		t.Fatalf("user decide on closed track failed: %v", err)
	}
	if granted {
		t.Error("closed track reported granted")
	}
	if got := c.TrackState(TrackOrgAdmin); got != TrackClosed {
		t.Errorf("TrackState after late accept: got %s, want %s", got, TrackClosed)
	}
}

func TestDecide_OrgAdminGrantCouplesMentorTrack(t *testing.T) {
	c := newTestConnection()

	if _, err := c.Decide(TrackOrgAdmin, ActorUser, DecisionAccepted); err != nil {
		t.Fatalf("user decide failed: %v", err)
	}
	granted, err := c.Decide(TrackOrgAdmin, ActorOrg, DecisionAccepted)
	if err != nil {
		t.Fatalf("org decide failed: %v", err)
	}
	if !granted {
		t.Fatal("org_admin track not granted after both sides accepted")
	}

	// Mentor < OrgAdmin: the admin grant grants the mentor track with it.
	if got := c.TrackState(TrackMentor); got != TrackGranted {
		t.Fatalf("mentor TrackState after org_admin grant: got %s, want %s", got, TrackGranted)
	}
	if c.UserMentor != DecisionAccepted || c.OrgMentor != DecisionAccepted {
		t.Errorf("mentor flags: got user=%s org=%s, want accepted/accepted", c.UserMentor, c.OrgMentor)
	}

	// Both tracks are terminal; a mentor rejection must not close the track.
	var ite *InvalidTransitionError
	if _, err := c.Decide(TrackMentor, ActorUser, DecisionRejected); !errors.As(err, &ite) {
		t.Fatalf("mentor decide after grant: got %v, want InvalidTransitionError", err)
	}
	if got := c.TrackState(TrackMentor); got != TrackGranted {
		t.Errorf("mentor TrackState after rejected decide: got %s, want %s", got, TrackGranted)
	}
}

func TestDecide_OrgAdminGrantCouplesHalfDecidedMentorTrack(t *testing.T) {
	c := newTestConnection()
	c.UserMentor = DecisionAccepted

	if _, err := c.Decide(TrackOrgAdmin, ActorOrg, DecisionAccepted); err != nil {
		t.Fatalf("org decide failed: %v", err)
	}
	if _, err := c.Decide(TrackOrgAdmin, ActorUser, DecisionAccepted); err != nil {
		t.Fatalf("user decide failed: %v", err)
	}

	// Only the pending org flag was accepted for the user.
	if got := c.TrackState(TrackMentor); got != TrackGranted {
		t.Errorf("mentor TrackState: got %s, want %s", got, TrackGranted)
	}
}

func TestDecide_OrgAdminGrantRefusedWhenMentorClosed(t *testing.T) {
	c := newTestConnection()
	if _, err := c.Decide(TrackMentor, ActorUser, DecisionRejected); err != nil {
		t.Fatalf("mentor reject failed: %v", err)
	}
	if _, err := c.Decide(TrackOrgAdmin, ActorUser, DecisionAccepted); err != nil {
		t.Fatalf("user org_admin accept failed: %v", err)
	}

	// The completing acceptance is refused: admin cannot be granted over a
	// closed mentor track.
	granted, err := c.Decide(TrackOrgAdmin, ActorOrg, DecisionAccepted)
	var ite *InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("org org_admin accept: got %v, want InvalidTransitionError", err)
	}
	if granted {
		t.Error("grant reported despite closed mentor track")
	}
	if got := c.OrgOrgAdmin; got != DecisionPending {
		t.Errorf("org_org_admin flag: got %s, want pending", got)
	}

	// Rejecting the admin track is still allowed.
	if _, err := c.Decide(TrackOrgAdmin, ActorOrg, DecisionRejected); err != nil {
		t.Fatalf("org org_admin reject failed: %v", err)
	}
	if got := c.TrackState(TrackOrgAdmin); got != TrackClosed {
		t.Errorf("org_admin TrackState: got %s, want %s", got, TrackClosed)
	}
}

func TestDecide_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		track   Track
		actor   Actor
		outcome Decision
	}{
		{"unknown track", Track("student"), ActorUser, DecisionAccepted},
		{"unknown actor", TrackMentor, Actor("observer"), DecisionAccepted},
		{"pending outcome", TrackMentor, ActorUser, DecisionPending},
		{"garbage outcome", TrackMentor, ActorUser, Decision("maybe")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestConnection()
			var ite *InvalidTransitionError
			if _, err := c.Decide(tt.track, tt.actor, tt.outcome); !errors.As(err, &ite) {
				t.Errorf("got %v, want InvalidTransitionError", err)
			}
		})
	}
}

func TestDecide_FlipsSeenMarkers(t *testing.T) {
	c := newTestConnection()

	if _, err := c.Decide(TrackMentor, ActorOrg, DecisionAccepted); err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if !c.SeenByOrg || c.SeenByUser {
		t.Errorf("after org action: seen_by_org=%v seen_by_user=%v, want true/false", c.SeenByOrg, c.SeenByUser)
	}

	if _, err := c.Decide(TrackMentor, ActorUser, DecisionAccepted); err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if !c.SeenByUser || c.SeenByOrg {
		t.Errorf("after user action: seen_by_user=%v seen_by_org=%v, want true/false", c.SeenByUser, c.SeenByOrg)
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Connection)
		want string
	}{
		{"fresh", func(c *Connection) {}, "Unreplied"},
		{"user requested", func(c *Connection) { c.UserMentor = DecisionAccepted }, "Org Action Required"},
		{"org offered", func(c *Connection) { c.OrgMentor = DecisionAccepted }, "User Action Required"},
		{"mentor granted", func(c *Connection) {
			c.UserMentor = DecisionAccepted
			c.OrgMentor = DecisionAccepted
		}, "Accepted"},
		{"both closed", func(c *Connection) {
			c.UserMentor = DecisionRejected
			c.UserOrgAdmin = DecisionRejected
		}, "Rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestConnection()
			tt.mut(&c)
			if got := c.Status(); got != tt.want {
				t.Errorf("Status: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGrantedRole_PrefersOrgAdmin(t *testing.T) {
	c := newTestConnection()
	if got := c.GrantedRole(); got != "" {
		t.Errorf("GrantedRole on fresh connection: got %q, want empty", got)
	}

	c.UserMentor = DecisionAccepted
	c.OrgMentor = DecisionAccepted
	if got := c.GrantedRole(); got != "Mentor" {
		t.Errorf("GrantedRole: got %q, want Mentor", got)
	}

	c.UserOrgAdmin = DecisionAccepted
	c.OrgOrgAdmin = DecisionAccepted
	if got := c.GrantedRole(); got != "Org Admin" {
		t.Errorf("GrantedRole: got %q, want Org Admin", got)
	}
}
