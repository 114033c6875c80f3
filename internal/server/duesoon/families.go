package duesoon

import (
	"fmt"

	"github.com/dmitrijs2005/teamboard/internal/server/dispatch"
	"github.com/dmitrijs2005/teamboard/internal/server/models"
	"github.com/dmitrijs2005/teamboard/internal/server/preferences"
)

// ScheduleFamily reminds attendees before a schedule starts.
func ScheduleFamily(l Loader) Family {
	return Family{
		Name:     "schedule",
		Category: preferences.CategorySchedule,
		Loader:   l,
		Message: func(item *models.DueItem, offset int) dispatch.Message {
			return dispatch.Message{
				Title: item.Title,
				Body:  fmt.Sprintf("Starts in %d minutes", offset),
				Data:  baseData("schedule", item, offset),
			}
		},
	}
}

// TodoFamily reminds assignees before a todo is due.
func TodoFamily(l Loader) Family {
	return Family{
		Name:     "todo",
		Category: preferences.CategoryTodo,
		Loader:   l,
		Message: func(item *models.DueItem, offset int) dispatch.Message {
			return dispatch.Message{
				Title: item.Title,
				Body:  fmt.Sprintf("Due in %d minutes", offset),
				Data:  baseData("todo", item, offset),
			}
		},
	}
}
