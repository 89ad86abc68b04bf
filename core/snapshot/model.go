package snapshot

import (
	"time"

	"timetable-sync/core/reconcile"
)

// TableName of the snapshot table.
const TableName = "events"

// RequiredColumns lists the columns the store reads and writes.
var RequiredColumns = []string{
	"uid",
	"course_id",
	"course",
	"execution_type",
	"start_time",
	"end_time",
	"location",
	"lecturers",
	"group_names",
	"note",
	"hash",
	"remote_link_id",
	"tombstoned",
}

// EventRecord is one row of the snapshot table.
type EventRecord struct {
	UID           string  `gorm:"column:uid;primaryKey;size:191"`
	CourseID      string  `gorm:"column:course_id;size:64;index"`
	Course        string  `gorm:"column:course"`
	ExecutionType string  `gorm:"column:execution_type;size:128"`
	StartTime     string  `gorm:"column:start_time;size:64;index"`
	EndTime       string  `gorm:"column:end_time;size:64"`
	Location      string  `gorm:"column:location"`
	Lecturers     string  `gorm:"column:lecturers"`
	Groups        string  `gorm:"column:group_names"`
	Note          string  `gorm:"column:note"`
	Hash          string  `gorm:"column:hash;size:64"`
	RemoteLinkID  *string `gorm:"column:remote_link_id;size:255"`
	Tombstoned    bool    `gorm:"column:tombstoned;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName implements gorm's Tabler.
func (EventRecord) TableName() string {
	return TableName
}

func recordFromEvent(e reconcile.Event) EventRecord {
	return EventRecord{
		UID:           e.IdentityKey,
		CourseID:      e.GroupKey,
		Course:        e.Course,
		ExecutionType: e.ExecutionType,
		StartTime:     e.Start,
		EndTime:       e.End,
		Location:      e.Location,
		Lecturers:     e.Lecturers,
		Groups:        e.Groups,
		Note:          e.Note,
		Hash:          e.Fingerprint(),
	}
}

// Event converts the row back into the domain type.
func (r EventRecord) Event() reconcile.Event {
	return reconcile.Event{
		IdentityKey: r.UID,
		GroupKey:    r.CourseID,
		Content: reconcile.Content{
			Course:        r.Course,
			ExecutionType: r.ExecutionType,
			Start:         r.StartTime,
			End:           r.EndTime,
			Location:      r.Location,
			Lecturers:     r.Lecturers,
			Groups:        r.Groups,
			Note:          r.Note,
		},
		RemoteLinkID: r.RemoteLinkID,
		Tombstoned:   r.Tombstoned,
	}
}

// contentColumns are the columns rewritten by UpdateContent.
func contentColumns(rec EventRecord) map[string]interface{} {
	return map[string]interface{}{
		"course_id":      rec.CourseID,
		"course":         rec.Course,
		"execution_type": rec.ExecutionType,
		"start_time":     rec.StartTime,
		"end_time":       rec.EndTime,
		"location":       rec.Location,
		"lecturers":      rec.Lecturers,
		"group_names":    rec.Groups,
		"note":           rec.Note,
		"hash":           rec.Hash,
		"tombstoned":     false,
	}
}
