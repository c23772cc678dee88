/*
main.go - Application entry point

PURPOSE:
  The timesheet command. With no subcommand it ingests the uploads
  directory once and exits, which is all normal operation needs.

COMMANDS:
  timesheet           Same as "timesheet ingest"
  timesheet ingest    Scan uploads, update the store, exit
  timesheet serve     Dashboard API, optional periodic ingestion

CONFIGURATION:
  Environment (TIMESHEET_*, LOG_*), optionally from a .env file. Flags
  override the environment; see config/config.go.

EXIT STATUS:
  0 on success (warnings included), 1 when a run aborts on a fatal
  error: invalid store, unreadable workbook.

SEE ALSO:
  - pipeline/pipeline.go: The ingestion run
  - api/server.go: Routes served by "serve"
*/
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
