package timetable

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"timetable-sync/core/reconcile"
	"timetable-sync/core/utils"

	"go.uber.org/zap"
)

// listSeparator joins list-valued fields. Source order is kept.
const listSeparator = ", "

// listFields are the sub-lists whose elements carry a "name".
var listFields = []string{"rooms", "lecturers", "groups"}

// RawBatch is one named unit of raw input, such as a downloaded file.
type RawBatch struct {
	// Name is the batch identifier, the file name without ".json".
	Name string
	// Data is the raw JSON document.
	Data []byte
}

// Normalize converts one raw entry into an Event.
// It returns false when allowed is non-empty and no group name of the entry
// contains any allowed substring. Missing fields default to "".
func Normalize(raw map[string]any, allowed []string) (reconcile.Event, bool) {
	groups := names(raw["groups"])
	if len(allowed) > 0 && !matchesGroups(groups, allowed) {
		return reconcile.Event{}, false
	}

	start := field(raw, "start_time")
	return reconcile.Event{
		IdentityKey: reconcile.IdentityKey(field(raw, "id"), start),
		GroupKey:    field(raw, "courseId"),
		Content: reconcile.Content{
			Course:        field(raw, "course"),
			ExecutionType: field(raw, "executionType"),
			Start:         start,
			End:           field(raw, "end_time"),
			Location:      strings.Join(names(raw["rooms"]), listSeparator),
			Lecturers:     strings.Join(names(raw["lecturers"]), listSeparator),
			Groups:        strings.Join(groups, listSeparator),
			Note:          field(raw, "note"),
		},
	}, true
}

// NormalizeBatch decodes a batch and normalizes every entry.
// A batch that is not a JSON array of objects, or whose sub-lists are not
// arrays of objects, is rejected whole with a *reconcile.MalformedInputError.
// The second result is the number of entries in the batch before filtering.
func NormalizeBatch(batch RawBatch, filter GroupFilter) ([]reconcile.Event, int, error) {
	entries, err := decodeEntries(batch)
	if err != nil {
		return nil, 0, err
	}

	allowed := filter.For(batch.Name)
	events := make([]reconcile.Event, 0, len(entries))
	for _, entry := range entries {
		if ev, ok := Normalize(entry, allowed); ok {
			events = append(events, ev)
		}
	}
	return events, len(entries), nil
}

// NormalizeAll normalizes every batch. Malformed batches are skipped and
// returned as errors; the remaining batches still contribute events.
func NormalizeAll(batches []RawBatch, filter GroupFilter, log *zap.Logger) ([]reconcile.Event, []error) {
	if log == nil {
		log = zap.NewNop()
	}

	var events []reconcile.Event
	var errs []error
	for _, batch := range batches {
		batchEvents, total, err := NormalizeBatch(batch, filter)
		if err != nil {
			log.Error("Skipping malformed batch", zap.String("batch", batch.Name), zap.Error(err))
			errs = append(errs, err)
			continue
		}

		fields := []zap.Field{
			zap.String("batch", batch.Name),
			zap.Int("included", len(batchEvents)),
			zap.Int("entries", total),
		}
		if allowed := filter.For(batch.Name); len(allowed) > 0 {
			fields = append(fields, zap.Strings("group_filter", allowed))
		}
		log.Info("Parsed batch", fields...)
		events = append(events, batchEvents...)
	}

	log.Info("Total events parsed", zap.Int("count", len(events)))
	return events, errs
}

func decodeEntries(batch RawBatch) ([]map[string]any, error) {
	malformed := func(reason string, err error) error {
		return &reconcile.MalformedInputError{Batch: batch.Name, Reason: reason, Err: err}
	}

	dec := json.NewDecoder(bytes.NewReader(batch.Data))
	// Keep numeric ids verbatim
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, malformed("invalid JSON", err)
	}

	list, ok := doc.([]any)
	if !ok {
		return nil, malformed("expected a JSON array", nil)
	}

	entries := make([]map[string]any, 0, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, malformed(fmt.Sprintf("entry %d is not an object", i), nil)
		}
		for _, key := range listFields {
			if err := checkList(entry[key]); err != nil {
				return nil, malformed(fmt.Sprintf("entry %d field %s: %v", i, key, err), nil)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// checkList accepts an absent/null value or an array of objects.
func checkList(v any) error {
	if v == nil {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return fmt.Errorf("expected an array")
	}
	for _, item := range items {
		if _, ok := item.(map[string]any); !ok {
			return fmt.Errorf("expected an array of objects")
		}
	}
	return nil
}

func field(raw map[string]any, key string) string {
	return utils.ToString(raw[key])
}

// names extracts the "name" of every object in a list-valued field.
func names(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, utils.ToString(obj["name"]))
	}
	return out
}
