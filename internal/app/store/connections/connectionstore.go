// internal/app/store/connections/connectionstore.go
package connectionstore

import (
	"context"
	"errors"
	"fmt"

	messagestore "github.com/dalemusser/mentorhub/internal/app/store/connectionmessages"
	profilestore "github.com/dalemusser/mentorhub/internal/app/store/profiles"
	"github.com/dalemusser/mentorhub/internal/app/system/txn"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound = errors.New("connection not found")
	// ErrConnectionExists is returned when a connection already exists for
	// the (profile, organization) pair. The unique index makes this check
	// race-free even across concurrent creates.
	ErrConnectionExists = errors.New("a connection between this profile and organization already exists")
)

// Store persists connections and orchestrates the multi-document writes a
// decision triggers: the flag update, the role grant on the profile, and the
// system message in the thread run in one transaction.
type Store struct {
	c        *mongo.Collection
	client   *mongo.Client
	profiles *profilestore.Store
	messages *messagestore.Store
}

func New(db *mongo.Database, profiles *profilestore.Store, messages *messagestore.Store) *Store {
	return &Store{
		c:        db.Collection("connections"),
		client:   db.Client(),
		profiles: profiles,
		messages: messages,
	}
}

// EnsureIndexes creates the unique index that pins one connection per
// (profile, organization) pair, plus the listing indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "profile_id", Value: 1},
				{Key: "organization_id", Value: 1},
			},
			Options: options.Index().SetName("idx_conn_profile_org").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}, {Key: "last_modified", Value: -1}},
			Options: options.Index().SetName("idx_conn_org_modified"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Start creates a connection between a profile and an organization. The
// initiating side's flag on the requested track is recorded as accepted, so
// the ball is immediately in the other side's court. An optional free-text
// note becomes the first message in the thread.
func (s *Store) Start(ctx context.Context, profileID, orgID primitive.ObjectID, initiator models.Actor, track models.Track, note string, authorID primitive.ObjectID, authorName string) (models.Connection, error) {
	conn := models.NewConnection(profileID, orgID)
	conn.ID = primitive.NewObjectID()
	conn.Message = note

	if _, err := conn.Decide(track, initiator, models.DecisionAccepted); err != nil {
		return models.Connection{}, err
	}

	err := txn.WithTransaction(ctx, s.client, func(ctx context.Context) error {
		if _, err := s.c.InsertOne(ctx, conn); err != nil {
			if wafflemongo.IsDup(err) {
				return ErrConnectionExists
			}
			return err
		}
		if note != "" {
			if _, err := s.messages.Append(ctx, conn.ID, authorID, authorName, note); err != nil {
				return err
			}
		}
		_, err := s.messages.AppendAuto(ctx, conn.ID, startedNotice(initiator, track))
		return err
	})
	if err != nil {
		return models.Connection{}, err
	}
	return conn, nil
}

// InvitationResolver consumes a single-use invitation token. Implemented by
// the anonymous connection store.
type InvitationResolver interface {
	Resolve(ctx context.Context, token string) (models.AnonymousConnection, error)
}

// ClaimInvitation consumes the invitation token and creates a connection
// whose org-side flag on the invited track is already accepted: the
// invitation itself was the organization's decision. Resolving the token and
// inserting the connection run in one transaction, so when the connection
// cannot be created, for example because the pair already has one, the whole
// claim rolls back and the invitation stays claimable.
func (s *Store) ClaimInvitation(ctx context.Context, invites InvitationResolver, profileID primitive.ObjectID, token string) (models.Connection, models.AnonymousConnection, error) {
	var (
		conn   models.Connection
		invite models.AnonymousConnection
	)
	err := txn.WithTransaction(ctx, s.client, func(ctx context.Context) error {
		var err error
		invite, err = invites.Resolve(ctx, token)
		if err != nil {
			return err
		}
		conn, err = s.insertGranted(ctx, profileID, invite.OrganizationID, invite.Role)
		return err
	})
	if err != nil {
		return models.Connection{}, models.AnonymousConnection{}, err
	}
	return conn, invite, nil
}

// insertGranted inserts the pre-accepted connection and its system message.
// Callers supply the transaction.
func (s *Store) insertGranted(ctx context.Context, profileID, orgID primitive.ObjectID, track models.Track) (models.Connection, error) {
	conn := models.NewConnection(profileID, orgID)
	conn.ID = primitive.NewObjectID()

	if _, err := conn.Decide(track, models.ActorOrg, models.DecisionAccepted); err != nil {
		return models.Connection{}, err
	}

	if _, err := s.c.InsertOne(ctx, conn); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Connection{}, ErrConnectionExists
		}
		return models.Connection{}, err
	}
	if _, err := s.messages.AppendAuto(ctx, conn.ID,
		fmt.Sprintf("This connection was created from an email invitation for the %s role.", track.Label())); err != nil {
		return models.Connection{}, err
	}
	return conn, nil
}

// Decide records one side's decision on one track and applies its
// consequences. When the decision completes a grant (both sides accepted),
// the role is added to the profile in the same transaction. Every decision
// appends a system message to the thread.
//
// The flag update is guarded by a filter on the flag's current Pending
// value, so two concurrent decisions on the same flag cannot both win; the
// loser gets an InvalidTransitionError exactly as if the calls had been
// sequential.
func (s *Store) Decide(ctx context.Context, connectionID primitive.ObjectID, track models.Track, actor models.Actor, outcome models.Decision) (models.Connection, error) {
	var updated models.Connection

	err := txn.WithTransaction(ctx, s.client, func(ctx context.Context) error {
		conn, err := s.Get(ctx, connectionID)
		if err != nil {
			return err
		}

		granted, err := conn.Decide(track, actor, outcome)
		if err != nil {
			return err
		}

		field := flagField(track, actor)
		set := bson.M{
			field:           outcome,
			"seen_by_user":  conn.SeenByUser,
			"seen_by_org":   conn.SeenByOrg,
			"last_modified": conn.LastModified,
		}
		// An org-admin grant accepts any still-pending mentor flags; persist
		// the mentor track exactly as the model left it.
		if granted && track == models.TrackOrgAdmin {
			set["user_mentor"] = conn.UserMentor
			set["org_mentor"] = conn.OrgMentor
		}
		res, err := s.c.UpdateOne(ctx,
			bson.M{"_id": connectionID, field: models.DecisionPending},
			bson.M{"$set": set})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			// Lost a race with another decision on the same flag.
			return &models.InvalidTransitionError{Track: track, Actor: actor, Reason: "flag already decided"}
		}

		if granted {
			if err := s.profiles.AssignRole(ctx, conn.ProfileID, conn.OrganizationID, track); err != nil {
				return err
			}
		}

		if _, err := s.messages.AppendAuto(ctx, connectionID, decisionNotice(actor, track, outcome, granted)); err != nil {
			return err
		}

		updated = conn
		return nil
	})
	if err != nil {
		return models.Connection{}, err
	}
	return updated, nil
}

// Resign revokes a previously granted role. The profile loses the role (a
// mentor resignation cascades to org admin for the same organization) and
// the thread records what happened. The connection's flags are left as they
// are; its history is the thread.
func (s *Store) Resign(ctx context.Context, connectionID primitive.ObjectID, track models.Track) error {
	return txn.WithTransaction(ctx, s.client, func(ctx context.Context) error {
		conn, err := s.Get(ctx, connectionID)
		if err != nil {
			return err
		}
		if err := s.profiles.RemoveRole(ctx, conn.ProfileID, conn.OrganizationID, track); err != nil {
			return err
		}
		_, err = s.messages.AppendAuto(ctx, connectionID,
			fmt.Sprintf("The user resigned the %s role.", track.Label()))
		return err
	})
}

// Get returns the connection with the given id.
func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (models.Connection, error) {
	var conn models.Connection
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&conn)
	if err == mongo.ErrNoDocuments {
		return models.Connection{}, ErrNotFound
	}
	return conn, err
}

// GetForPair returns the connection between a profile and an organization.
func (s *Store) GetForPair(ctx context.Context, profileID, orgID primitive.ObjectID) (models.Connection, error) {
	var conn models.Connection
	err := s.c.FindOne(ctx, bson.M{"profile_id": profileID, "organization_id": orgID}).Decode(&conn)
	if err == mongo.ErrNoDocuments {
		return models.Connection{}, ErrNotFound
	}
	return conn, err
}

// ListForProfile returns a profile's connections, most recently active first.
func (s *Store) ListForProfile(ctx context.Context, profileID primitive.ObjectID) ([]models.Connection, error) {
	return s.list(ctx, bson.M{"profile_id": profileID})
}

// ListForOrganization returns an organization's connections, most recently
// active first.
func (s *Store) ListForOrganization(ctx context.Context, orgID primitive.ObjectID) ([]models.Connection, error) {
	return s.list(ctx, bson.M{"organization_id": orgID})
}

// CountUnseen returns how many of the given side's connections have changes
// that side has not viewed yet. Used for the notification badge.
func (s *Store) CountUnseen(ctx context.Context, actor models.Actor, ownerID primitive.ObjectID) (int64, error) {
	filter := bson.M{"profile_id": ownerID, "seen_by_user": false}
	if actor == models.ActorOrg {
		filter = bson.M{"organization_id": ownerID, "seen_by_org": false}
	}
	return s.c.CountDocuments(ctx, filter)
}

// MarkSeen records that the given side has viewed the connection.
func (s *Store) MarkSeen(ctx context.Context, connectionID primitive.ObjectID, actor models.Actor) error {
	field := "seen_by_user"
	if actor == models.ActorOrg {
		field = "seen_by_org"
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": connectionID}, bson.M{"$set": bson.M{field: true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a connection and its whole thread. Admin-only: this is the
// escape hatch that lets a rejected pair start over, since the unique index
// otherwise pins one connection per pair.
func (s *Store) Delete(ctx context.Context, connectionID primitive.ObjectID) error {
	return txn.WithTransaction(ctx, s.client, func(ctx context.Context) error {
		res, err := s.c.DeleteOne(ctx, bson.M{"_id": connectionID})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return ErrNotFound
		}
		_, err = s.messages.DeleteForConnection(ctx, connectionID)
		return err
	})
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.Connection, error) {
	opts := options.Find().SetSort(bson.D{{Key: "last_modified", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Connection
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func flagField(track models.Track, actor models.Actor) string {
	switch {
	case track == models.TrackMentor && actor == models.ActorUser:
		return "user_mentor"
	case track == models.TrackMentor && actor == models.ActorOrg:
		return "org_mentor"
	case track == models.TrackOrgAdmin && actor == models.ActorUser:
		return "user_org_admin"
	default:
		return "org_org_admin"
	}
}

func startedNotice(initiator models.Actor, track models.Track) string {
	if initiator == models.ActorOrg {
		return fmt.Sprintf("The organization offered the %s role.", track.Label())
	}
	return fmt.Sprintf("The user requested the %s role.", track.Label())
}

func decisionNotice(actor models.Actor, track models.Track, outcome models.Decision, granted bool) string {
	side := "The user"
	if actor == models.ActorOrg {
		side = "The organization"
	}
	verb := "accepted"
	if outcome == models.DecisionRejected {
		verb = "rejected"
	}
	notice := fmt.Sprintf("%s %s the %s role.", side, verb, track.Label())
	if granted {
		notice += fmt.Sprintf(" The %s role is now granted.", track.Label())
	}
	return notice
}
