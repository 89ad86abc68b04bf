package reconcile

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"
)

// errDryRunRollback aborts the transaction of a dry run after the plan is computed.
var errDryRunRollback = errors.New("dry run rollback")

// Reconcile compares fresh events against the snapshot store and applies the diff.
//
// Every fresh event is classified as created, updated or unchanged before
// removals are computed. Snapshot keys missing from the fresh set are
// tombstoned once; keys already tombstoned are left alone. When the store
// implements Transactor the whole run is applied in one transaction and any
// store failure rolls it back.
func Reconcile(ctx context.Context, fresh []Event, store SnapshotStore, opts Options) (*Plan, error) {
	log := opts.logger()

	tx, transactional := store.(Transactor)
	if opts.DryRun && !transactional {
		return nil, ErrDryRunUnsupported
	}

	if !transactional {
		return reconcileWith(ctx, fresh, store, log)
	}

	var plan *Plan
	err := tx.InTx(ctx, func(s SnapshotStore) error {
		p, err := reconcileWith(ctx, fresh, s, log)
		if err != nil {
			return err
		}
		plan = p
		if opts.DryRun {
			return errDryRunRollback
		}
		return nil
	})

	if opts.DryRun && errors.Is(err, errDryRunRollback) {
		plan.DryRun = true
		return plan, nil
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, storeErr("commit", "", err)
	}

	return plan, nil
}

// reconcileWith runs the single-pass diff against one store handle.
func reconcileWith(ctx context.Context, fresh []Event, store SnapshotStore, log *zap.Logger) (*Plan, error) {
	// Step 1: Read the full snapshot
	existing, err := store.GetAll(ctx)
	if err != nil {
		return nil, storeErr("read", "", err)
	}

	// Step 2: Resolve duplicate identities
	events, collisions := dedupe(fresh)
	for _, c := range collisions {
		log.Warn("Duplicate identity key in fresh set", zap.String("key", c.Key), zap.Int("occurrences", c.Occurrences))
	}

	plan := &Plan{
		Created:        []Event{},
		Updated:        []Event{},
		TombstonedKeys: []string{},
		Collisions:     collisions,
	}
	plan.Summary.Fresh = len(events)
	plan.Summary.Known = len(existing)
	plan.Summary.Collisions = len(collisions)

	// Step 3: Classify fresh events
	freshKeys := make(map[string]struct{}, len(events))
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		key := ev.IdentityKey
		freshKeys[key] = struct{}{}
		ev.Tombstoned = false

		entry, known := existing[key]
		switch {
		case !known:
			ev.RemoteLinkID = nil
			if err := store.Insert(ctx, ev); err != nil {
				return nil, storeErr("insert", key, err)
			}
			plan.Created = append(plan.Created, ev)
			log.Info("Event created", zap.String("key", key), zap.String("course", ev.Course), zap.String("start", ev.Start))

		case entry.Fingerprint != ev.Fingerprint() || entry.Tombstoned:
			// A reappearing tombstone is re-enabled even when its content is unchanged.
			if err := store.UpdateContent(ctx, ev); err != nil {
				return nil, storeErr("update", key, err)
			}
			ev.RemoteLinkID = entry.RemoteLinkID
			plan.Updated = append(plan.Updated, ev)
			if entry.Tombstoned {
				plan.Summary.Reenabled++
			}
			log.Info("Event updated",
				zap.String("key", key),
				zap.String("course", ev.Course),
				zap.String("start", ev.Start),
				zap.Bool("reenabled", entry.Tombstoned),
			)

		default:
			plan.Summary.Unchanged++
			log.Debug("Event unchanged", zap.String("key", key))
		}
	}

	// Step 4: Tombstone keys that vanished from the source
	for key, entry := range existing {
		if _, ok := freshKeys[key]; ok || entry.Tombstoned {
			continue
		}
		plan.TombstonedKeys = append(plan.TombstonedKeys, key)
	}
	sort.Strings(plan.TombstonedKeys)

	for _, key := range plan.TombstonedKeys {
		if err := store.SetTombstoned(ctx, key, true); err != nil {
			return nil, storeErr("tombstone", key, err)
		}
		log.Info("Event disabled, no longer in source", zap.String("key", key))
	}
	plan.Disabled = len(plan.TombstonedKeys)

	plan.Summary.Created = len(plan.Created)
	plan.Summary.Updated = len(plan.Updated)
	plan.Summary.Disabled = plan.Disabled

	log.Info("Reconcile complete",
		zap.Int("created", plan.Summary.Created),
		zap.Int("updated", plan.Summary.Updated),
		zap.Int("unchanged", plan.Summary.Unchanged),
		zap.Int("disabled", plan.Summary.Disabled),
	)

	return plan, nil
}

// dedupe keeps one event per identity key. The last occurrence wins and takes
// the position of the first one, so output order is stable.
func dedupe(fresh []Event) ([]Event, []*IdentityCollisionError) {
	out := make([]Event, 0, len(fresh))
	index := make(map[string]int, len(fresh))
	counts := make(map[string]int)
	var order []string

	for _, ev := range fresh {
		if i, seen := index[ev.IdentityKey]; seen {
			if counts[ev.IdentityKey] == 1 {
				order = append(order, ev.IdentityKey)
			}
			counts[ev.IdentityKey]++
			out[i] = ev
			continue
		}
		index[ev.IdentityKey] = len(out)
		counts[ev.IdentityKey] = 1
		out = append(out, ev)
	}

	collisions := make([]*IdentityCollisionError, 0, len(order))
	for _, key := range order {
		collisions = append(collisions, &IdentityCollisionError{Key: key, Occurrences: counts[key]})
	}
	return out, collisions
}

func (o Options) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.L()
}
