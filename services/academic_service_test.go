package services

import (
	"context"
	"errors"
	"testing"

	"dormitory/constants"
	apperrors "dormitory/errors"

	"github.com/goccy/go-json"
)

func TestSetBookingsLocked(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.store.addRoom("A101", 2)
	h.store.addStudent(1, constants.GenderMale)

	_, err := h.academic.SetBookingsLocked(ctx, studentActor(1), true)
	assertKind(t, err, apperrors.KindForbidden)

	settings, err := h.academic.SetBookingsLocked(ctx, adminActor, true)
	if err != nil {
		t.Fatal(err)
	}
	if !settings.BookingsLocked || settings.UpdatedBy == nil || *settings.UpdatedBy != adminActor.ID {
		t.Errorf("unexpected settings %+v", settings)
	}

	_, err = h.bookings.CreateBooking(ctx, studentActor(1), "A101", true)
	assertCode(t, err, apperrors.ErrCodeBookingsLocked)

	if _, err := h.academic.SetBookingsLocked(ctx, adminActor, false); err != nil {
		t.Fatal(err)
	}
	h.book(t, 1, "A101")
}

func TestTransitionSemester(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.store.addRoom("A101", 2)
	h.store.addRoom("B201", 2)
	for id := uint(1); id <= 3; id++ {
		h.store.addStudent(id, constants.GenderMale)
	}
	h.book(t, 1, "A101")
	h.book(t, 2, "A101")
	cancelled := h.book(t, 3, "B201")
	if _, err := h.bookings.CancelBooking(ctx, adminActor, cancelled, ""); err != nil {
		t.Fatal(err)
	}

	_, err := h.academic.TransitionSemester(ctx, studentActor(1))
	assertKind(t, err, apperrors.KindForbidden)

	result, err := h.academic.TransitionSemester(ctx, adminActor)
	if err != nil {
		t.Fatal(err)
	}
	if result.ToAcademicYear != "2025-2026" || result.ToSemester != constants.SemesterSecond {
		t.Errorf("moved to %s/%s", result.ToAcademicYear, result.ToSemester)
	}
	if result.Superseded != 2 {
		t.Errorf("superseded = %d, want 2", result.Superseded)
	}
	if occ := h.store.room("A101").CurrentOccupancy; occ != 0 {
		t.Errorf("A101 occupancy = %d after transition", occ)
	}
	h.assertConsistent(t)

	// superseded bookings no longer block a new one
	b, err := h.bookings.CreateBooking(ctx, studentActor(1), "B201", true)
	if err != nil {
		t.Fatalf("rebook after transition: %v", err)
	}
	if b.Semester != constants.SemesterSecond {
		t.Errorf("new booking semester = %s", b.Semester)
	}

	result, err = h.academic.TransitionSemester(ctx, adminActor)
	if err != nil {
		t.Fatal(err)
	}
	if result.ToAcademicYear != "2026-2027" || result.ToSemester != constants.SemesterFirst {
		t.Errorf("moved to %s/%s", result.ToAcademicYear, result.ToSemester)
	}
	settings, err := h.academic.GetSettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if settings.CurrentAcademicYear != "2026-2027" || settings.CurrentSemester != constants.SemesterFirst {
		t.Errorf("settings at %s/%s", settings.CurrentAcademicYear, settings.CurrentSemester)
	}
	h.assertConsistent(t)
}

func TestArchiveOldBookings(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.store.addRoom("A101", 2)
	h.store.addStudent(1, constants.GenderMale)
	h.store.addStudent(2, constants.GenderMale)
	held := h.book(t, 1, "A101")
	cancelled := h.book(t, 2, "A101")
	if _, err := h.bookings.CancelBooking(ctx, adminActor, cancelled, "left"); err != nil {
		t.Fatal(err)
	}

	_, err := h.academic.ArchiveOldBookings(ctx, adminActor, "2025", "")
	assertCode(t, err, apperrors.ErrCodeInvalidInput)

	result, err := h.academic.ArchiveOldBookings(ctx, adminActor, "2025-2026", "")
	if err != nil {
		t.Fatal(err)
	}
	if result.Archived != 2 || result.Released != 1 {
		t.Errorf("archived=%d released=%d, want 2 and 1", result.Archived, result.Released)
	}
	if bookings, _ := h.store.counts(); bookings != 0 {
		t.Errorf("%d bookings left after archive", bookings)
	}
	if occ := h.store.room("A101").CurrentOccupancy; occ != 0 {
		t.Errorf("occupancy = %d after archive", occ)
	}
	h.assertConsistent(t)

	archives, err := h.academic.ListArchive(ctx, adminActor, "2025-2026", constants.SemesterFirst)
	if err != nil {
		t.Fatal(err)
	}
	if len(archives) != 2 {
		t.Fatalf("archive holds %d rows", len(archives))
	}
	var snapshot map[string]interface{}
	for _, a := range archives {
		if a.OriginalBookingID != held {
			continue
		}
		if err := json.Unmarshal(a.Snapshot, &snapshot); err != nil {
			t.Fatalf("snapshot is not JSON: %v", err)
		}
		if a.ArchivedBy == nil || *a.ArchivedBy != adminActor.ID {
			t.Errorf("ArchivedBy = %v", a.ArchivedBy)
		}
	}
	if snapshot == nil {
		t.Fatalf("booking %d missing from archive", held)
	}

	empty, err := h.academic.ArchiveOldBookings(ctx, adminActor, "2025-2026", "")
	if err != nil {
		t.Fatal(err)
	}
	if empty.Archived != 0 {
		t.Errorf("second archive moved %d bookings", empty.Archived)
	}
	h.bus.Wait()
	if n := len(h.recorded.named(constants.EventBookingsArchived)); n != 1 {
		t.Errorf("got %d archived events, want 1", n)
	}
}

func TestArchiveRollsBackOnFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.store.addRoom("A101", 2)
	h.store.addStudent(1, constants.GenderMale)
	h.book(t, 1, "A101")
	h.store.failOn["booking.delete_by_ids"] = errors.New("statement timeout")

	_, err := h.academic.ArchiveOldBookings(ctx, adminActor, "2025-2026", constants.SemesterFirst)
	assertCode(t, err, apperrors.ErrCodeDBError)

	if bookings, _ := h.store.counts(); bookings != 1 {
		t.Errorf("bookings = %d, want 1", bookings)
	}
	if n := h.store.activeAssignments("A101"); n != 1 {
		t.Errorf("active ledger rows = %d, want 1", n)
	}
	archives, _ := h.academic.ListArchive(ctx, adminActor, "2025-2026", "")
	if len(archives) != 0 {
		t.Errorf("failed archive left %d archive rows", len(archives))
	}
	h.assertConsistent(t)
}

func TestArchivePreviousYearAsSystem(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.store.addRoom("A101", 2)
	h.store.addStudent(1, constants.GenderMale)
	h.book(t, 1, "A101")

	h.store.state.settings.CurrentAcademicYear = "2026-2027"

	result, err := h.academic.ArchivePreviousYear(ctx, SystemActor)
	if err != nil {
		t.Fatal(err)
	}
	if result.AcademicYear != "2025-2026" || result.Archived != 1 {
		t.Errorf("unexpected result %+v", result)
	}
	archives, err := h.academic.ListArchive(ctx, adminActor, "2025-2026", "")
	if err != nil || len(archives) != 1 {
		t.Fatalf("ListArchive() = %d, %v", len(archives), err)
	}
	if archives[0].ArchivedBy != nil {
		t.Errorf("system archive recorded user %d", *archives[0].ArchivedBy)
	}
	h.assertConsistent(t)
}
