package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func baseContent() Content {
	return Content{
		Course:        "Algorithms",
		ExecutionType: "Lecture",
		Start:         "2024-01-01T10:00:00",
		End:           "2024-01-01T12:00:00",
		Location:      "P01, P02",
		Lecturers:     "Ada Lovelace",
		Groups:        "RV1-A",
		Note:          "",
	}
}

func TestFingerprint_SensitiveToEveryContentField(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Content)
	}{
		{"course", func(c *Content) { c.Course = "Databases" }},
		{"execution type", func(c *Content) { c.ExecutionType = "Lab" }},
		{"start", func(c *Content) { c.Start = "2024-01-01T10:15:00" }},
		{"end", func(c *Content) { c.End = "2024-01-01T12:15:00" }},
		{"location", func(c *Content) { c.Location = "P01" }},
		{"location order", func(c *Content) { c.Location = "P02, P01" }},
		{"lecturers", func(c *Content) { c.Lecturers = "Alan Turing" }},
		{"groups", func(c *Content) { c.Groups = "RV2-B" }},
		{"note", func(c *Content) { c.Note = "Bring laptops" }},
	}

	base := baseContent().Fingerprint()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseContent()
			tt.mutate(&c)
			assert.NotEqual(t, base, c.Fingerprint())
		})
	}
}

func TestFingerprint_IgnoresNonContentAttributes(t *testing.T) {
	a := Event{IdentityKey: "1_x", GroupKey: "1025", Content: baseContent()}
	b := a
	b.RemoteLinkID = StringPtr("g-1")
	b.Tombstoned = true
	b.GroupKey = "9999"
	b.IdentityKey = "2_y"

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Len(t, a.Fingerprint(), 64)
	assert.Equal(t, a.Fingerprint(), baseContent().Fingerprint(), "deterministic across calls")
}

func TestFingerprint_FieldBoundariesMatter(t *testing.T) {
	a := Content{Course: "ab", ExecutionType: "c"}
	b := Content{Course: "a", ExecutionType: "bc"}
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestIdentityKey(t *testing.T) {
	assert.Equal(t, "123_2024-01-01T10:00:00", IdentityKey("123", "2024-01-01T10:00:00"))
	assert.Equal(t, "_", IdentityKey("", ""))
	assert.NotEqual(t, IdentityKey("123", "2024-01-01T10:00:00"), IdentityKey("123", "2024-01-01T11:00:00"))
}

func TestEvent_SummaryAndDescription(t *testing.T) {
	e := Event{Content: baseContent()}
	assert.Equal(t, "Algorithms [Lecture]", e.Summary())
	assert.Equal(t, "Lecturer: Ada Lovelace\nGroup: RV1-A", e.Description())

	e.Note = "Exam"
	e.Lecturers = ""
	assert.Equal(t, "Group: RV1-A\nNote: Exam", e.Description())

	assert.Equal(t, "", Event{}.Description())
}
