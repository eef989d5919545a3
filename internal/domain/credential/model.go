package credential

import "time"

// Stored is one user's OAuth credential pair. A refresh always produces a
// whole new record; the store never mutates an existing one in place, so a
// concurrent reader can never observe an access token paired with the wrong
// expiry.
type Stored struct {
	OwnerID      string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Expired reports whether the access token is inside the given safety margin
// of its expiry at the reference time.
func (s Stored) Expired(at time.Time, margin time.Duration) bool {
	return !s.ExpiresAt.After(at.Add(margin))
}
