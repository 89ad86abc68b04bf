// Package utils provides common utility functions for the timetable-sync application.
// It includes the loose string conversion used when decoding schemaless
// timetable JSON.
package utils
