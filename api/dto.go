/*
dto.go - Response types for the dashboard API

PURPOSE:
  JSON shapes returned by the handlers. Month documents are served in the
  stored wire format unchanged (timesheet.MonthRecord); everything else
  is a view built from them.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Response: Wrappers and errors

HOURS:
  Minute figures come with a formatted "12h05m" twin so clients do not
  reimplement the rounding.

SEE ALSO:
  - handlers.go: Uses these types
  - timesheet/summary.go: Figures behind the DTOs
*/
package api

import (
	"github.com/warp/timesheet-analytics/timesheet"
)

// MonthSummaryDTO is a month headline with formatted hours.
type MonthSummaryDTO struct {
	timesheet.MonthSummary
	AvailableHours string `json:"availableHours"`
	LoggedHours    string `json:"loggedHours"`
	BalanceHours   string `json:"estoqueHours"`
}

func toMonthSummaryDTO(s timesheet.MonthSummary) MonthSummaryDTO {
	return MonthSummaryDTO{
		MonthSummary:   s,
		AvailableHours: timesheet.FormatHours(s.AvailableMinutes),
		LoggedHours:    timesheet.FormatHours(s.LoggedMinutes),
		BalanceHours:   timesheet.FormatHours(s.BalanceMinutes),
	}
}

// PersonSummaryDTO is one collaborator row with formatted hours.
type PersonSummaryDTO struct {
	timesheet.PersonSummary
	LoggedHours  string `json:"loggedHours"`
	BalanceHours string `json:"estoqueHours"`
}

func toPersonSummaryDTOs(rows []timesheet.PersonSummary) []PersonSummaryDTO {
	out := make([]PersonSummaryDTO, len(rows))
	for i, p := range rows {
		out[i] = PersonSummaryDTO{
			PersonSummary: p,
			LoggedHours:   timesheet.FormatHours(p.LoggedMinutes),
			BalanceHours:  timesheet.FormatHours(p.BalanceMinutes),
		}
	}
	return out
}

// EntryDTO is a time entry with its activity label cleaned for grouping.
type EntryDTO struct {
	timesheet.TimeEntry
	ActivityGroup string `json:"activityGroup"`
}

// ManagerViewDTO is a month scoped to a manager's núcleos.
type ManagerViewDTO struct {
	Manager timesheet.Manager  `json:"manager"`
	Summary MonthSummaryDTO    `json:"summary"`
	Persons []PersonSummaryDTO `json:"persons"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Months int    `json:"months"`
}
