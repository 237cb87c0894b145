package models

import "time"

// AccountCredential is the stored API credential for one external account
// (work-item source and calendar source share it). The token exchange flow
// that produces these documents lives outside this service; the pipeline only
// reads them, and a missing or expired credential degrades the owning stage
// to an empty result instead of failing the run.
type AccountCredential struct {
	AccountEmail string    `bson:"accountEmail" json:"account_email"`
	AccessToken  string    `bson:"accessToken" json:"-"`
	RefreshToken string    `bson:"refreshToken,omitempty" json:"-"`
	ExpiresAt    time.Time `bson:"expiresAt" json:"expires_at"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updated_at"`
}

// Expired reports whether the access token is past its expiry.
func (c *AccountCredential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}
