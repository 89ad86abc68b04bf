// Package timetable turns raw timetable downloads into reconcile.Event values.
//
// # Raw Input
//
// A pass reads named batches from a Source: *.json files in a directory or
// objects under a bucket prefix. The batch name is the file name without
// ".json" and identifies the subject. Each batch is a JSON array of entries
// with optional id, start_time, end_time, courseId, course, executionType,
// note and the name lists rooms, lecturers and groups.
//
// # Normalization
//
// The identity key joins the entry id with the raw start time. Name lists are
// joined with ", " in source order. Missing fields become "".
//
// A batch that is not an array of objects is rejected as a whole with a
// *reconcile.MalformedInputError; other batches are still used.
//
// # Group Filter
//
// A GroupFilter loaded from YAML keeps, per batch, only entries with a group
// name containing one of the listed substrings (case-insensitive).
package timetable
