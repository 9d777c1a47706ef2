package calendar

import (
	"fmt"

	gcal "google.golang.org/api/calendar/v3"

	"github.com/cuongbtq/job-scheduling/internal/domain"
	"github.com/cuongbtq/job-scheduling/internal/model"
)

// Milestone is one end of a job that gets its own calendar event
type Milestone string

const (
	MilestoneStart Milestone = "start"
	MilestoneEnd   Milestone = "end"
)

// Event colors of the provider's palette
const (
	colorStart = "2"
	colorEnd   = "11"
)

// DefaultEventIDPrefix is used when EventSettings.IDPrefix is empty
const DefaultEventIDPrefix = "fsjob"

// EventSettings are the parts of an event that do not come from the job
type EventSettings struct {
	// IDPrefix namespaces event ids per deployment. Lowercase base32hex only.
	IDPrefix        string
	Location        string
	TimeZone        string
	ReminderMinutes int64
}

// EventID is stable per job and milestone so that inserting twice is
// detected by the provider instead of creating a duplicate. Only the
// characters 0-9 and a-v are used.
func EventID(prefix string, jobID int64, m Milestone) string {
	if prefix == "" {
		prefix = DefaultEventIDPrefix
	}
	return fmt.Sprintf("%s%d%s", prefix, jobID, m)
}

// BuildEvents returns the start and end events of a job. The start event
// runs 07:00-07:30 on the start date, the end event 07:30-08:00 on the end
// date, both in settings.TimeZone.
func BuildEvents(job *model.Job, settings EventSettings) []*gcal.Event {
	return []*gcal.Event{
		buildEvent(job, MilestoneStart, job.StartDate, "07:00:00", "07:30:00", settings),
		buildEvent(job, MilestoneEnd, job.EndDate, "07:30:00", "08:00:00", settings),
	}
}

func buildEvent(job *model.Job, m Milestone, day domain.Date, from, to string, settings EventSettings) *gcal.Event {
	summary, description, color := "Start: "+job.JobCardNumber, "Start Job", colorStart
	if m == MilestoneEnd {
		summary, description, color = "End: "+job.JobCardNumber, "End Job", colorEnd
	}
	if job.DescriptionText != "" {
		description += "\n" + job.DescriptionText
	}
	if job.EmployeeName != "" {
		description += "\nAssigned to " + job.EmployeeName
	}

	return &gcal.Event{
		Id:          EventID(settings.IDPrefix, job.ID, m),
		Summary:     summary,
		Location:    settings.Location,
		Description: description,
		ColorId:     color,
		Start: &gcal.EventDateTime{
			DateTime: day.String() + "T" + from,
			TimeZone: settings.TimeZone,
		},
		End: &gcal.EventDateTime{
			DateTime: day.String() + "T" + to,
			TimeZone: settings.TimeZone,
		},
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "email", Minutes: settings.ReminderMinutes},
				{Method: "popup", Minutes: settings.ReminderMinutes},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}
}
