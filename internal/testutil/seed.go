package testutil

import (
	"testing"
	"time"

	"schedsync/internal/database"
	"schedsync/internal/model"
)

// SeedEvent creates an event with one candidate date per interval and
// returns the event with its dates.
func SeedEvent(t *testing.T, db *database.SQLiteDatabase, name string, intervals ...[2]time.Time) (*model.Event, []*model.CandidateDate) {
	t.Helper()

	event, err := db.CreateEvent(name)
	if err != nil {
		t.Fatalf("creating event: %v", err)
	}

	dates := make([]*model.CandidateDate, 0, len(intervals))
	for _, iv := range intervals {
		d, err := db.AddCandidateDate(event.ID, iv[0], iv[1])
		if err != nil {
			t.Fatalf("adding candidate date: %v", err)
		}
		dates = append(dates, d)
	}
	return event, dates
}

// SeedParticipant creates a participant for an event.
func SeedParticipant(t *testing.T, db *database.SQLiteDatabase, eventID, name string) string {
	t.Helper()

	id, err := db.CreateParticipant(eventID, name)
	if err != nil {
		t.Fatalf("creating participant: %v", err)
	}
	return id
}

// SeedLink creates a participant and links the owner to the event.
func SeedLink(t *testing.T, db *database.SQLiteDatabase, ownerID, eventID string, autoSync bool) *model.UserEventLink {
	t.Helper()

	participantID := SeedParticipant(t, db, eventID, ownerID)
	link := &model.UserEventLink{
		ID:            "link-" + ownerID + "-" + eventID,
		OwnerID:       ownerID,
		EventID:       eventID,
		ParticipantID: participantID,
		AutoSync:      autoSync,
		CreatedAt:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := db.SaveLink(link); err != nil {
		t.Fatalf("saving link: %v", err)
	}
	return link
}

// Finalize marks a candidate date as the event's locked outcome.
func Finalize(t *testing.T, db *database.SQLiteDatabase, eventID, dateID string) {
	t.Helper()

	if err := db.FinalizeDate(eventID, dateID); err != nil {
		t.Fatalf("finalizing date: %v", err)
	}
}

// Day returns an interval on the given date between two clock hours.
func Day(year int, month time.Month, day, fromHour, toHour int) [2]time.Time {
	return [2]time.Time{
		time.Date(year, month, day, fromHour, 0, 0, 0, time.UTC),
		time.Date(year, month, day, toHour, 0, 0, 0, time.UTC),
	}
}
