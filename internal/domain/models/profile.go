// internal/domain/models/profile.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Profile is a user's program-specific record and the authoritative role
// store: it holds the sets of organizations the user mentors for or
// administers. Role mutations follow a simple monotonic lattice
// (Mentor < OrgAdmin): granting org-admin always implies mentor first.
type Profile struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`

	MentorFor   []primitive.ObjectID `bson:"mentor_for" json:"mentor_for"`
	OrgAdminFor []primitive.ObjectID `bson:"org_admin_for" json:"org_admin_for"`
	IsMentor    bool                 `bson:"is_mentor" json:"is_mentor"`
	IsOrgAdmin  bool                 `bson:"is_org_admin" json:"is_org_admin"`

	Status    string    `bson:"status" json:"status"` // active | disabled
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// MentorsFor reports whether the profile holds a mentor role for orgID.
func (p *Profile) MentorsFor(orgID primitive.ObjectID) bool {
	return containsID(p.MentorFor, orgID)
}

// AdminsFor reports whether the profile holds an org-admin role for orgID.
func (p *Profile) AdminsFor(orgID primitive.ObjectID) bool {
	return containsID(p.OrgAdminFor, orgID)
}

// AssignMentor adds orgID to the mentor set. Set union, not append: a
// duplicate grant is a no-op, which makes the operation idempotent.
func (p *Profile) AssignMentor(orgID primitive.ObjectID) {
	if !containsID(p.MentorFor, orgID) {
		p.MentorFor = append(p.MentorFor, orgID)
	}
	p.IsMentor = true
}

// AssignOrgAdmin adds orgID to the org-admin set, escalating through the
// mentor role first: an org admin is always also a mentor for the same
// organization. Idempotent.
func (p *Profile) AssignOrgAdmin(orgID primitive.ObjectID) {
	if containsID(p.OrgAdminFor, orgID) {
		return
	}
	p.AssignMentor(orgID)
	p.OrgAdminFor = append(p.OrgAdminFor, orgID)
	p.IsOrgAdmin = true
}

// RemoveOrgAdmin demotes the profile from org-admin to mentor for orgID.
// When the admin set empties, the admin flag clears. The mentor role is
// retained; use RemoveMentor to resign it.
func (p *Profile) RemoveOrgAdmin(orgID primitive.ObjectID) {
	p.OrgAdminFor = removeID(p.OrgAdminFor, orgID)
	p.IsOrgAdmin = len(p.OrgAdminFor) > 0
}

// RemoveMentor resigns the mentor role for orgID. An org-admin role for the
// same organization is removed first, honoring the lattice in reverse.
func (p *Profile) RemoveMentor(orgID primitive.ObjectID) {
	p.RemoveOrgAdmin(orgID)
	p.MentorFor = removeID(p.MentorFor, orgID)
	p.IsMentor = len(p.MentorFor) > 0
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
