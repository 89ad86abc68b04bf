package reconcile

import "go.uber.org/zap"

// Operation is the remote action implied by a planned item.
type Operation string

const (
	// OpCreate pushes an event that has never been linked remotely.
	OpCreate Operation = "create"
	// OpUpdate patches the remote copy of a changed event.
	OpUpdate Operation = "update"
	// OpDelete removes the remote copy of a tombstoned event.
	OpDelete Operation = "delete"
)

// WorkItem is one entry of the remote work list.
type WorkItem struct {
	// Event is the fresh event to push.
	Event Event `json:"event"`

	// Operation is OpCreate or OpUpdate.
	Operation Operation `json:"operation"`

	// PriorRemoteLinkID is the link id carried over from the snapshot.
	// Always nil for OpCreate and possibly nil for OpUpdate.
	PriorRemoteLinkID *string `json:"prior_remote_link_id,omitempty"`
}

// Plan is the outcome of one reconciliation run.
type Plan struct {
	// Created lists events seen for the first time, in input order.
	Created []Event `json:"created"`

	// Updated lists events whose fingerprint changed, in input order.
	// Each carries the previously stored RemoteLinkID.
	Updated []Event `json:"updated"`

	// Disabled counts keys tombstoned by this run.
	Disabled int `json:"disabled"`

	// TombstonedKeys lists the keys tombstoned by this run, sorted.
	TombstonedKeys []string `json:"tombstoned_keys"`

	// Collisions reports duplicate identity keys in the fresh set.
	Collisions []*IdentityCollisionError `json:"-"`

	// Summary provides aggregate counts.
	Summary PlanSummary `json:"summary"`

	// DryRun is true when no mutation was committed.
	DryRun bool `json:"dry_run"`
}

// PlanSummary provides aggregate statistics for a plan.
type PlanSummary struct {
	// Fresh is the number of distinct fresh events.
	Fresh int `json:"fresh"`

	// Known is the number of snapshot entries before the run.
	Known int `json:"known"`

	// Created counts new events.
	Created int `json:"created"`

	// Updated counts changed events.
	Updated int `json:"updated"`

	// Unchanged counts fresh events with a matching fingerprint.
	Unchanged int `json:"unchanged"`

	// Disabled counts keys tombstoned by this run.
	Disabled int `json:"disabled"`

	// Reenabled counts updated events that were tombstoned before the run.
	Reenabled int `json:"reenabled"`

	// Collisions counts duplicate identity keys.
	Collisions int `json:"collisions"`
}

// Options controls reconcile behavior.
type Options struct {
	// DryRun computes the plan and rolls every mutation back.
	DryRun bool

	// Logger receives per-key decisions. Defaults to the global zap logger.
	Logger *zap.Logger
}
