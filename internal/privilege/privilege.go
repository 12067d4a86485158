// Package privilege centralizes the account-tier authorization rules.
// Every moderation and account-management decision goes through here.
package privilege

import "errors"

// Tier is the ordered privilege level of an account: User < Admin < God.
type Tier int

const (
	User  Tier = 0
	Admin Tier = 1
	God   Tier = 2
)

var (
	ErrInvalidTier       = errors.New("invalid account type")
	ErrModeratorRequired = errors.New("admin access required")
	ErrSelfTarget        = errors.New("you cannot modify your own privileges")
	ErrGodTarget         = errors.New("you cannot modify god-tier accounts")
	ErrGodGrant          = errors.New("you cannot create god-tier accounts")
)

// Parse converts a raw account_type value into a Tier.
func Parse(v int) (Tier, error) {
	t := Tier(v)
	if !t.Valid() {
		return 0, ErrInvalidTier
	}
	return t, nil
}

// Valid reports whether t is one of the three known tiers.
func (t Tier) Valid() bool {
	return t >= User && t <= God
}

func (t Tier) String() string {
	switch t {
	case User:
		return "user"
	case Admin:
		return "admin"
	case God:
		return "god"
	}
	return "unknown"
}

// CanModerate reports whether t may open the moderation queue and review edits.
func (t Tier) CanModerate() bool {
	return t >= Admin
}

// RequireModerator returns ErrModeratorRequired unless actor is at least Admin.
func RequireModerator(actor Tier) error {
	if !actor.CanModerate() {
		return ErrModeratorRequired
	}
	return nil
}

// CanManage authorizes an action against another account (read for
// modification, deletion). sameAccount is true when actor and target are
// the same user.
func CanManage(actor, target Tier, sameAccount bool) error {
	if err := RequireModerator(actor); err != nil {
		return err
	}
	if sameAccount {
		return ErrSelfTarget
	}
	if actor < God && target == God {
		return ErrGodTarget
	}
	return nil
}

// CanChangeTier authorizes setting a target account's tier to newTier.
func CanChangeTier(actor, target, newTier Tier, sameAccount bool) error {
	if !newTier.Valid() {
		return ErrInvalidTier
	}
	if err := CanManage(actor, target, sameAccount); err != nil {
		return err
	}
	if actor < God && newTier == God {
		return ErrGodGrant
	}
	return nil
}
