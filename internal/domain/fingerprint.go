package domain

import "time"

// FingerprintRecord is the persisted identity of a piece of content.
// The exact fingerprint is unique across records; StructureHash is a
// coarser hash used to narrow near-duplicate candidate lookups.
type FingerprintRecord struct {
	ID             string    `db:"id"             json:"id"`
	Fingerprint    string    `db:"fingerprint"    json:"fingerprint"`
	StructureHash  string    `db:"structure_hash" json:"structure_hash"`
	ContentLength  int       `db:"content_length" json:"content_length"`
	ArticleID      string    `db:"article_id"     json:"article_id"`
	DuplicateCount int       `db:"duplicate_count" json:"duplicate_count"`
	FirstSeenAt    time.Time `db:"first_seen_at"  json:"first_seen_at"`
	LastSeenAt     time.Time `db:"last_seen_at"   json:"last_seen_at"`
}
