package meetingdates_test

import (
	"testing"
	"time"

	"github.com/celulahub/celulahub/internal/app/system/meetingdates"
	"github.com/celulahub/celulahub/internal/domain/models"
)

func TestDefaultDate(t *testing.T) {
	today := time.Date(2026, time.October, 12, 15, 30, 0, 0, time.UTC) // Monday

	tests := []struct {
		name   string
		policy meetingdates.Policy
		cell   meetingdates.Cell
		want   string // "" means nil
	}{
		{"no cell", meetingdates.FillPolicy, nil, ""},
		{"no weekday", meetingdates.FillPolicy, models.Celula{}, "2026-10-12"},
		{"today matches", meetingdates.FillPolicy, cellOn(int(time.Monday)), "2026-10-12"},
		{"fill prefers last wednesday", meetingdates.FillPolicy, cellOn(int(time.Wednesday)), "2026-10-07"},
		{"fill prefers yesterday", meetingdates.FillPolicy, cellOn(int(time.Sunday)), "2026-10-11"},
		{"upcoming prefers next wednesday", meetingdates.UpcomingPolicy, cellOn(int(time.Wednesday)), "2026-10-14"},
		{"upcoming prefers next sunday", meetingdates.UpcomingPolicy, cellOn(int(time.Sunday)), "2026-10-18"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.policy.DefaultDate(tt.cell, today)
			if tt.want == "" {
				if got != nil {
					t.Fatalf("got %s, want nil", meetingdates.Format(*got))
				}
				return
			}
			if got == nil {
				t.Fatalf("got nil, want %s", tt.want)
			}
			if meetingdates.Format(*got) != tt.want {
				t.Errorf("got %s, want %s", meetingdates.Format(*got), tt.want)
			}
		})
	}
}

func TestDefaultDate_WednesdayCellOnMonday_NotTodayNotFuture(t *testing.T) {
	today := time.Date(2026, time.October, 12, 9, 0, 0, 0, time.UTC)
	got := meetingdates.FillPolicy.DefaultDate(cellOn(int(time.Wednesday)), today)
	if got == nil {
		t.Fatal("expected a date")
	}
	if !got.Before(meetingdates.Day(today)) {
		t.Errorf("expected a past date, got %s", meetingdates.Format(*got))
	}
	if got.Weekday() != time.Wednesday {
		t.Errorf("expected a Wednesday, got %s", got.Weekday())
	}
	if meetingdates.Day(today).Sub(*got) >= 7*24*time.Hour {
		t.Errorf("expected the most recent Wednesday, got %s", meetingdates.Format(*got))
	}
}

func TestParsePolicy(t *testing.T) {
	if p := meetingdates.ParsePolicy("past", meetingdates.UpcomingPolicy); !p.PreferPast {
		t.Error(`"past" should prefer past`)
	}
	if p := meetingdates.ParsePolicy("future", meetingdates.FillPolicy); p.PreferPast {
		t.Error(`"future" should not prefer past`)
	}
	if p := meetingdates.ParsePolicy("", meetingdates.FillPolicy); !p.PreferPast {
		t.Error("empty should keep the default")
	}
}
