package domain

import "time"

// SharePlatform names the channel a post was shared on.
type SharePlatform string

const (
	SharePlatformTwitter  SharePlatform = "twitter"
	SharePlatformLinkedIn SharePlatform = "linkedin"
	SharePlatformFacebook SharePlatform = "facebook"
	SharePlatformCopy     SharePlatform = "copy"
	SharePlatformWhatsApp SharePlatform = "whatsapp"
)

// Valid reports whether the platform is one of the accepted share channels.
func (p SharePlatform) Valid() bool {
	switch p {
	case SharePlatformTwitter, SharePlatformLinkedIn, SharePlatformFacebook, SharePlatformCopy, SharePlatformWhatsApp:
		return true
	default:
		return false
	}
}

// BlogPost carries the aggregate counters for one post, created lazily on the
// first interaction with its slug. Likes always equals the number of live
// PostLike rows for the post; shares is a raw event counter.
type BlogPost struct {
	ID        string
	Slug      string
	Likes     int
	Shares    int
	Views     int
	CreatedAt time.Time
}

// PostLike records that a fingerprint currently likes a post. At most one row
// exists per (post, fingerprint).
type PostLike struct {
	ID          string
	PostID      string
	Fingerprint Fingerprint
	CreatedAt   time.Time
}

// PostShare is one entry of the append-only share log. The fingerprint is
// optional because sharing does not require a resolvable client identity.
type PostShare struct {
	ID          string
	PostID      string
	Platform    SharePlatform
	Fingerprint *Fingerprint
	CreatedAt   time.Time
}

// Engagement is the read-side snapshot returned to the UI.
type Engagement struct {
	Likes  int
	Shares int
	Views  int
	Liked  bool
}

// LikeResult is the outcome of a like toggle.
type LikeResult struct {
	Liked bool
	Likes int
}
