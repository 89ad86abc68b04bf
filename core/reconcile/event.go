package reconcile

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// fingerprintSeparator joins content fields before hashing.
// The ASCII unit separator does not occur in timetable text.
const fingerprintSeparator = "\x1f"

// identitySeparator joins the source id and the raw start time.
const identitySeparator = "_"

// Content holds the fields that define what a session looks like.
// Empty string is the canonical value for an absent field.
type Content struct {
	// Course is the course name.
	Course string `json:"course"`

	// ExecutionType is the session type (lecture, lab, tutorial, ...).
	ExecutionType string `json:"execution_type"`

	// Start is the raw ISO-8601 start timestamp as delivered by the source.
	Start string `json:"start"`

	// End is the raw ISO-8601 end timestamp as delivered by the source.
	End string `json:"end"`

	// Location is the comma-joined list of room names in source order.
	Location string `json:"location"`

	// Lecturers is the comma-joined list of lecturer names in source order.
	Lecturers string `json:"lecturers"`

	// Groups is the comma-joined list of group/cohort names in source order.
	Groups string `json:"groups"`

	// Note is free text attached to the session.
	Note string `json:"note"`
}

// Fingerprint returns the SHA-256 hex digest of the content fields.
func (c Content) Fingerprint() string {
	raw := strings.Join([]string{
		c.Course,
		c.ExecutionType,
		c.Start,
		c.End,
		c.Location,
		c.Lecturers,
		c.Groups,
		c.Note,
	}, fingerprintSeparator)

	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Event is the canonical representation of one scheduled session.
type Event struct {
	// IdentityKey identifies the logical occurrence across runs.
	IdentityKey string `json:"identity_key"`

	// GroupKey is the owning course id. It takes no part in identity or change detection.
	GroupKey string `json:"group_key"`

	Content

	// RemoteLinkID is the remote calendar id, nil until the first successful push.
	RemoteLinkID *string `json:"remote_link_id,omitempty"`

	// Tombstoned marks an event that disappeared from the source.
	Tombstoned bool `json:"tombstoned"`
}

// Fingerprint returns the content fingerprint of the event.
func (e Event) Fingerprint() string {
	return e.Content.Fingerprint()
}

// Summary is the calendar title of the event.
func (e Event) Summary() string {
	return e.Course + " [" + e.ExecutionType + "]"
}

// Description is the calendar body of the event, one line per non-empty field.
func (e Event) Description() string {
	var parts []string
	if e.Lecturers != "" {
		parts = append(parts, "Lecturer: "+e.Lecturers)
	}
	if e.Groups != "" {
		parts = append(parts, "Group: "+e.Groups)
	}
	if e.Note != "" {
		parts = append(parts, "Note: "+e.Note)
	}
	return strings.Join(parts, "\n")
}

// IdentityKey derives the identity of an occurrence from its source id and raw start time.
// A changed start time therefore yields a different identity.
func IdentityKey(sourceID, start string) string {
	return sourceID + identitySeparator + start
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// LinkValue returns the dereferenced link id or "" when nil.
func LinkValue(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}
