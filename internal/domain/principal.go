package domain

import "github.com/google/uuid"

// Principal is the authenticated caller resolved from a bearer token and its profile.
type Principal struct {
	ProfileID      uuid.UUID  `json:"profile_id"`
	Email          string     `json:"email"`
	OrganizationID *uuid.UUID `json:"organization_id"`
	Role           string     `json:"role"`
}

// PrincipalFromProfile copies the fields the request path needs.
func PrincipalFromProfile(p *Profile) *Principal {
	return &Principal{
		ProfileID:      p.ID,
		Email:          p.Email,
		OrganizationID: p.OrganizationID,
		Role:           p.RoleName(),
	}
}

// OrgID returns the organization id or uuid.Nil.
func (p *Principal) OrgID() uuid.UUID {
	if p == nil || p.OrganizationID == nil {
		return uuid.Nil
	}
	return *p.OrganizationID
}

func (p *Principal) HasOrg() bool {
	return p.OrgID() != uuid.Nil
}
