package main

import (
	// Embedded zone database for hosts without one
	_ "time/tzdata"

	"timetable-sync/cmd"
)

func main() {
	cmd.Execute()
}
