package store

import (
	"time"

	"hackwave/internal/model"
)

// DemoEvents returns the starter events, dated relative to today.
func DemoEvents(today time.Time) []model.Event {
	day := func(n int) string { return today.AddDate(0, 0, n).Format(model.DateLayout) }
	return []model.Event{
		{
			ID:          "1",
			Title:       "Team Standup",
			Description: "Daily sync with the engineering team.",
			Date:        day(0),
			Time:        "09:30",
			Location:    "Zoom",
			Category:    "Work",
		},
		{
			ID:          "2",
			Title:       "Client Demo",
			Description: "Showcase new features to ACME Corp.",
			Date:        day(1),
			Time:        "14:00",
			Location:    "Office",
			Category:    "Work",
		},
		{
			ID:          "3",
			Title:       "Yoga Session",
			Description: "Relax and stretch.",
			Date:        day(2),
			Time:        "07:00",
			Location:    "Gym",
			Category:    "Health",
		},
	}
}

// DemoRecommended returns the starter recommendation list.
func DemoRecommended(today time.Time) []model.Event {
	day := func(n int) string { return today.AddDate(0, 0, n).Format(model.DateLayout) }
	return []model.Event{
		{
			ID:          "r1",
			Title:       "Local Tech Meetup",
			Description: "Network with tech professionals in your area.",
			Date:        day(3),
			Time:        "18:00",
			Location:    "Community Hall",
			Category:    "Networking",
		},
		{
			ID:          "r2",
			Title:       "Product Webinar",
			Description: "Learn about the latest product management trends.",
			Date:        day(5),
			Time:        "12:00",
			Location:    "Online",
			Category:    "Learning",
		},
	}
}
