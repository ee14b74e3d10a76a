package service

import (
	"bytes"
	"context"
	"net/http"
	"slices"
	"sync"
	"testing"

	"villabook/cmd/internal/domain/entity"
	"villabook/cmd/internal/notify"
	"villabook/cmd/internal/utils/apierror"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/xuri/excelize/v2"
)

func kindOf(t *testing.T, err apierror.ErrorResponse) string {
	t.Helper()
	apiErr, ok := err.(*apierror.APIError)
	if !ok {
		t.Fatalf("expected *apierror.APIError, got %T", err)
	}
	return apiErr.Kind
}

func TestCreateBookingDerivesFieldsAndStartsPending(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", entity.RoleUser, true)

	resp := f.book(t, alice, "2025-03-10", "2025-03-14")
	b := resp.Booking

	if b.Status != entity.StatusPending {
		t.Errorf("expected pending, got %s", b.Status)
	}
	if b.StartDay != 1 || b.EndDay != 5 || b.Duration != 5 || b.Gap != 2 {
		t.Errorf("unexpected derived fields: %+v", b)
	}
	if b.Type != entity.TypeBooking {
		t.Errorf("expected default type %q, got %q", entity.TypeBooking, b.Type)
	}
	if b.StartDate != "2025-03-10" || b.EndDate != "2025-03-14" {
		t.Errorf("unexpected dates %s..%s", b.StartDate, b.EndDate)
	}
	if b.AddedBy != alice.ID || b.OwnerName != "alice" {
		t.Errorf("unexpected owner %d %s", b.AddedBy, b.OwnerName)
	}
	if resp.OverlapWarning {
		t.Error("did not expect an overlap warning")
	}

	if got := testutil.ToFloat64(f.metrics.BookingsCreated); got != 1 {
		t.Errorf("expected 1 booking created, got %v", got)
	}
	if kinds := f.notifier.kinds(); !slices.Equal(kinds, []string{notify.KindBookingCreated}) {
		t.Errorf("unexpected notifications %v", kinds)
	}
}

func TestCreateBookingRequiresValidatedUser(t *testing.T) {
	f := newFixture(t)
	bob := f.user(t, "bob", entity.RoleUser, false)

	_, apierr := f.bookings.CreateBooking(context.Background(), &CreateBookingRequest{StartDate: "2025-03-10", EndDate: "2025-03-14"}, bob.SubUUID)
	if apierr == nil || apierr.Code() != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", apierr)
	}
}

func TestCreateBookingUnknownCaller(t *testing.T) {
	f := newFixture(t)

	_, apierr := f.bookings.CreateBooking(context.Background(), &CreateBookingRequest{StartDate: "2025-03-10", EndDate: "2025-03-14"}, "ghost")
	if apierr == nil || apierr.Code() != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", apierr)
	}
}

func TestCreateBookingRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", entity.RoleUser, true)

	tests := []struct {
		name string
		req  CreateBookingRequest
		code int
		kind string
	}{
		{"missing start", CreateBookingRequest{EndDate: "2025-03-14"}, http.StatusBadRequest, "validation_failed"},
		{"not a date", CreateBookingRequest{StartDate: "10/03/2025", EndDate: "2025-03-14"}, http.StatusBadRequest, "validation_failed"},
		{"unknown type", CreateBookingRequest{StartDate: "2025-03-10", EndDate: "2025-03-14", Type: "maintenance"}, http.StatusBadRequest, "validation_failed"},
		{"end before start", CreateBookingRequest{StartDate: "2025-03-14", EndDate: "2025-03-10"}, http.StatusUnprocessableEntity, "invalid_booking"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, apierr := f.bookings.CreateBooking(context.Background(), &req, alice.SubUUID)
			if apierr == nil {
				t.Fatal("expected an error")
			}
			if apierr.Code() != tt.code || kindOf(t, apierr) != tt.kind {
				t.Errorf("expected %d %s, got %d %s", tt.code, tt.kind, apierr.Code(), kindOf(t, apierr))
			}
		})
	}
}

func TestCreateBookingSameOwnerConflict(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", entity.RoleUser, true)
	f.book(t, alice, "2025-03-10", "2025-03-14")

	_, apierr := f.bookings.CreateBooking(context.Background(), &CreateBookingRequest{StartDate: "2025-03-14", EndDate: "2025-03-16"}, alice.SubUUID)
	if apierr == nil || kindOf(t, apierr) != "booking_conflict" {
		t.Fatalf("expected booking_conflict, got %v", apierr)
	}
	if got := testutil.ToFloat64(f.metrics.BookingConflicts); got != 1 {
		t.Errorf("expected 1 conflict, got %v", got)
	}
}

func TestCreateBookingCrossOwnerWarning(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", entity.RoleUser, true)
	bob := f.user(t, "bob", entity.RoleUser, true)
	carol := f.user(t, "carol", entity.RoleUser, true)
	f.book(t, alice, "2025-03-10", "2025-03-14")
	f.book(t, bob, "2025-03-12", "2025-03-13")

	resp := f.book(t, carol, "2025-03-13", "2025-03-20")
	if !resp.OverlapWarning {
		t.Fatal("expected an overlap warning")
	}
	if !slices.Equal(resp.ConflictingOwners, []string{"alice", "bob"}) {
		t.Errorf("unexpected owners %v", resp.ConflictingOwners)
	}
	if resp.Message != "This booking overlaps with existing bookings from: alice, bob" {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if resp.Booking.Status != entity.StatusPending {
		t.Errorf("expected pending, got %s", resp.Booking.Status)
	}
	if got := testutil.ToFloat64(f.metrics.OverlapWarnings); got != 1 {
		t.Errorf("expected 1 overlap warning, got %v", got)
	}

	last := f.notifier.events[len(f.notifier.events)-1]
	if len(last.Overlaps) != 2 {
		t.Errorf("expected the admin alert to carry 2 overlaps, got %d", len(last.Overlaps))
	}
}

func TestCancelledBookingsDoNotBlock(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", entity.RoleUser, true)
	first := f.book(t, alice, "2025-03-10", "2025-03-14")

	if _, apierr := f.bookings.CancelBooking(context.Background(), first.Booking.ID, alice.SubUUID); apierr != nil {
		t.Fatalf("failed to cancel: %v", apierr)
	}

	resp := f.book(t, alice, "2025-03-10", "2025-03-14")
	if resp.OverlapWarning {
		t.Error("cancelled booking should not raise a warning")
	}
}

func TestUpdateBookingByOwner(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", entity.RoleUser, true)
	bob := f.user(t, "bob", entity.RoleUser, true)
	created := f.book(t, alice, "2025-03-10", "2025-03-14")
	f.book(t, bob, "2025-03-20", "2025-03-22")

	resp, apierr := f.bookings.UpdateBooking(context.Background(), created.Booking.ID, &UpdateBookingRequest{EndDate: strPtr("2025-03-21")}, alice.SubUUID)
	if apierr != nil {
		t.Fatalf("failed to update: %v", apierr)
	}
	if resp.Booking.Duration != 12 || resp.Booking.EndDay != 5 {
		t.Errorf("unexpected derived fields: %+v", resp.Booking)
	}
	if !resp.OverlapWarning || !slices.Equal(resp.ConflictingOwners, []string{"bob"}) {
		t.Errorf("expected a warning naming bob, got %+v", resp)
	}

	_, apierr = f.bookings.UpdateBooking(context.Background(), created.Booking.ID, &UpdateBookingRequest{StartDate: strPtr("2025-03-01")}, bob.SubUUID)
	if apierr == nil || apierr.Code() != http.StatusForbidden {
		t.Errorf("expected 403 for a non-owner, got %v", apierr)
	}
}

func TestUpdateBookingNotAllowedOnceApproved(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "root", entity.RoleAdmin, true)
	alice := f.user(t, "alice", entity.RoleUser, true)
	created := f.book(t, alice, "2025-03-10", "2025-03-14")

	if _, apierr := f.bookings.ApproveBooking(context.Background(), created.Booking.ID, admin.SubUUID); apierr != nil {
		t.Fatalf("failed to approve: %v", apierr)
	}

	_, apierr := f.bookings.UpdateBooking(context.Background(), created.Booking.ID, &UpdateBookingRequest{EndDate: strPtr("2025-03-15")}, alice.SubUUID)
	if apierr == nil || apierr.Code() != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", apierr)
	}
}

func TestUpdateBookingIntoOwnBookingConflicts(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", entity.RoleUser, true)
	first := f.book(t, alice, "2025-03-10", "2025-03-14")
	f.book(t, alice, "2025-03-20", "2025-03-22")

	_, apierr := f.bookings.UpdateBooking(context.Background(), first.Booking.ID, &UpdateBookingRequest{EndDate: strPtr("2025-03-20")}, alice.SubUUID)
	if apierr == nil || kindOf(t, apierr) != "booking_conflict" {
		t.Fatalf("expected booking_conflict, got %v", apierr)
	}

	// Shrinking within its own range never conflicts with itself.
	if _, apierr := f.bookings.UpdateBooking(context.Background(), first.Booking.ID, &UpdateBookingRequest{StartDate: strPtr("2025-03-11")}, alice.SubUUID); apierr != nil {
		t.Fatalf("failed to update: %v", apierr)
	}
}

func TestAdminUpdateChecksOwnerNotAdmin(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "root", entity.RoleAdmin, true)
	alice := f.user(t, "alice", entity.RoleUser, true)
	f.book(t, admin, "2025-03-20", "2025-03-22")
	created := f.book(t, alice, "2025-03-10", "2025-03-14")

	resp, apierr := f.bookings.AdminUpdateBooking(context.Background(), created.Booking.ID, &AdminUpdateBookingRequest{
		EndDate: strPtr("2025-03-21"),
		Status:  strPtr(entity.StatusApproved),
	}, admin.SubUUID)
	if apierr != nil {
		t.Fatalf("failed to update: %v", apierr)
	}
	if resp.Booking.Status != entity.StatusApproved {
		t.Errorf("expected approved, got %s", resp.Booking.Status)
	}
	if resp.Booking.ValidatedBy == nil || *resp.Booking.ValidatedBy != admin.ID {
		t.Errorf("expected validated_by %d, got %v", admin.ID, resp.Booking.ValidatedBy)
	}
	if !resp.OverlapWarning || !slices.Equal(resp.ConflictingOwners, []string{"root"}) {
		t.Errorf("expected a warning naming root, got %+v", resp)
	}
	if got := testutil.ToFloat64(f.metrics.Transitions.WithLabelValues(entity.StatusApproved)); got != 1 {
		t.Errorf("expected 1 transition to approved, got %v", got)
	}
}

func TestAdminUpdateStatusOnlyStampsValidator(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "root", entity.RoleAdmin, true)
	alice := f.user(t, "alice", entity.RoleUser, true)
	created := f.book(t, alice, "2025-03-10", "2025-03-14")

	if _, apierr := f.bookings.AdminUpdateBooking(context.Background(), created.Booking.ID, &AdminUpdateBookingRequest{Status: strPtr(entity.StatusApproved)}, admin.SubUUID); apierr != nil {
		t.Fatalf("failed to update: %v", apierr)
	}

	stored, apierr := f.bookings.GetBooking(context.Background(), created.Booking.ID, admin.SubUUID)
	if apierr != nil {
		t.Fatalf("failed to get booking: %v", apierr)
	}
	if stored.Status != entity.StatusApproved || stored.ValidatedBy == nil || *stored.ValidatedBy != admin.ID {
		t.Fatalf("expected approved by %d, got %s by %v", admin.ID, stored.Status, stored.ValidatedBy)
	}
}

func TestAdminUpdateRejectsIllegalTransition(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "root", entity.RoleAdmin, true)
	alice := f.user(t, "alice", entity.RoleUser, true)
	created := f.book(t, alice, "2025-03-10", "2025-03-14")

	if _, apierr := f.bookings.CancelBooking(context.Background(), created.Booking.ID, alice.SubUUID); apierr != nil {
		t.Fatalf("failed to cancel: %v", apierr)
	}

	_, apierr := f.bookings.AdminUpdateBooking(context.Background(), created.Booking.ID, &AdminUpdateBookingRequest{Status: strPtr(entity.StatusApproved)}, admin.SubUUID)
	if apierr == nil || kindOf(t, apierr) != "invalid_state" {
		t.Fatalf("expected invalid_state, got %v", apierr)
	}

	_, apierr = f.bookings.AdminUpdateBooking(context.Background(), created.Booking.ID, &AdminUpdateBookingRequest{Status: strPtr(entity.StatusApproved)}, alice.SubUUID)
	if apierr == nil || apierr.Code() != http.StatusForbidden {
		t.Fatalf("expected 403 for a non-admin, got %v", apierr)
	}
}

func TestApproveAndReject(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "root", entity.RoleAdmin, true)
	alice := f.user(t, "alice", entity.RoleUser, true)
	first := f.book(t, alice, "2025-03-10", "2025-03-14")
	second := f.book(t, alice, "2025-04-10", "2025-04-14")

	approved, apierr := f.bookings.ApproveBooking(context.Background(), first.Booking.ID, admin.SubUUID)
	if apierr != nil {
		t.Fatalf("failed to approve: %v", apierr)
	}
	if approved.Status != entity.StatusApproved || approved.ValidatedBy == nil || *approved.ValidatedBy != admin.ID {
		t.Errorf("unexpected approved booking %+v", approved)
	}

	if _, apierr := f.bookings.ApproveBooking(context.Background(), first.Booking.ID, admin.SubUUID); apierr == nil || kindOf(t, apierr) != "invalid_state" {
		t.Errorf("expected invalid_state approving twice, got %v", apierr)
	}

	rejected, apierr := f.bookings.RejectBooking(context.Background(), second.Booking.ID, admin.SubUUID)
	if apierr != nil {
		t.Fatalf("failed to reject: %v", apierr)
	}
	if rejected.Status != entity.StatusCancelled || rejected.ValidatedBy == nil {
		t.Errorf("unexpected rejected booking %+v", rejected)
	}

	if _, apierr := f.bookings.ApproveBooking(context.Background(), second.Booking.ID, alice.SubUUID); apierr == nil || apierr.Code() != http.StatusForbidden {
		t.Errorf("expected 403 for a non-admin, got %v", apierr)
	}

	kinds := f.notifier.kinds()
	if !slices.Contains(kinds, notify.KindBookingApproved) || !slices.Contains(kinds, notify.KindBookingRejected) {
		t.Errorf("missing review notifications in %v", kinds)
	}
}

func TestCancelBooking(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", entity.RoleUser, true)
	bob := f.user(t, "bob", entity.RoleUser, true)
	created := f.book(t, alice, "2025-03-10", "2025-03-14")

	if _, apierr := f.bookings.CancelBooking(context.Background(), created.Booking.ID, bob.SubUUID); apierr == nil || apierr.Code() != http.StatusForbidden {
		t.Errorf("expected 403 for a non-owner, got %v", apierr)
	}

	cancelled, apierr := f.bookings.CancelBooking(context.Background(), created.Booking.ID, alice.SubUUID)
	if apierr != nil {
		t.Fatalf("failed to cancel: %v", apierr)
	}
	if cancelled.Status != entity.StatusCancelled || cancelled.ValidatedBy != nil {
		t.Errorf("unexpected cancelled booking %+v", cancelled)
	}

	if _, apierr := f.bookings.CancelBooking(context.Background(), created.Booking.ID, alice.SubUUID); apierr == nil || kindOf(t, apierr) != "invalid_state" {
		t.Errorf("expected invalid_state cancelling twice, got %v", apierr)
	}
}

func TestGetBookingVisibility(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "root", entity.RoleAdmin, true)
	alice := f.user(t, "alice", entity.RoleUser, true)
	bob := f.user(t, "bob", entity.RoleUser, true)
	created := f.book(t, alice, "2025-03-10", "2025-03-14")

	if _, apierr := f.bookings.GetBooking(context.Background(), created.Booking.ID, alice.SubUUID); apierr != nil {
		t.Errorf("owner should see the booking: %v", apierr)
	}
	if _, apierr := f.bookings.GetBooking(context.Background(), created.Booking.ID, admin.SubUUID); apierr != nil {
		t.Errorf("admin should see the booking: %v", apierr)
	}
	if _, apierr := f.bookings.GetBooking(context.Background(), created.Booking.ID, bob.SubUUID); apierr == nil || apierr.Code() != http.StatusNotFound {
		t.Errorf("expected 404 for another user, got %v", apierr)
	}
	if _, apierr := f.bookings.GetBooking(context.Background(), 999, admin.SubUUID); apierr == nil || apierr.Code() != http.StatusNotFound {
		t.Errorf("expected 404 for a missing booking, got %v", apierr)
	}
}

func TestListBookingsFlagsOverlaps(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "root", entity.RoleAdmin, true)
	alice := f.user(t, "alice", entity.RoleUser, true)
	bob := f.user(t, "bob", entity.RoleUser, true)
	a := f.book(t, alice, "2025-03-10", "2025-03-14")
	b := f.book(t, bob, "2025-03-14", "2025-03-16")
	c := f.book(t, bob, "2025-05-01", "2025-05-02")

	own, apierr := f.bookings.GetBookings(context.Background(), alice.SubUUID)
	if apierr != nil {
		t.Fatalf("failed to list: %v", apierr)
	}
	if len(own) != 1 || own[0].ID != a.Booking.ID || own[0].HasOverlap != nil {
		t.Errorf("unexpected own bookings %+v", own)
	}

	all, apierr := f.bookings.GetBookings(context.Background(), admin.SubUUID)
	if apierr != nil {
		t.Fatalf("failed to list: %v", apierr)
	}
	flags := map[int]bool{}
	for _, resp := range all {
		flags[resp.ID] = *resp.HasOverlap
	}
	want := map[int]bool{a.Booking.ID: true, b.Booking.ID: true, c.Booking.ID: false}
	for id, overlap := range want {
		if flags[id] != overlap {
			t.Errorf("booking %d: expected has_overlap=%v", id, overlap)
		}
	}

	// The filter narrows the rows, not the set flags are computed on.
	bobs, apierr := f.bookings.AdminGetBookings(context.Background(), admin.SubUUID, bob.ID, "")
	if apierr != nil {
		t.Fatalf("failed to list: %v", apierr)
	}
	if len(bobs) != 2 {
		t.Fatalf("expected 2 bookings for bob, got %d", len(bobs))
	}
	for _, resp := range bobs {
		if resp.ID == b.Booking.ID && !*resp.HasOverlap {
			t.Error("expected bob's booking to stay flagged under a user filter")
		}
	}

	if _, apierr := f.bookings.AdminGetBookings(context.Background(), alice.SubUUID, 0, ""); apierr == nil || apierr.Code() != http.StatusForbidden {
		t.Errorf("expected 403 for a non-admin, got %v", apierr)
	}
}

func TestDeleteBooking(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "root", entity.RoleAdmin, true)
	alice := f.user(t, "alice", entity.RoleUser, true)
	created := f.book(t, alice, "2025-03-10", "2025-03-14")

	if apierr := f.bookings.DeleteBooking(context.Background(), created.Booking.ID, alice.SubUUID); apierr == nil || apierr.Code() != http.StatusForbidden {
		t.Errorf("expected 403 for a non-admin, got %v", apierr)
	}
	if apierr := f.bookings.DeleteBooking(context.Background(), created.Booking.ID, admin.SubUUID); apierr != nil {
		t.Fatalf("failed to delete: %v", apierr)
	}
	if apierr := f.bookings.DeleteBooking(context.Background(), created.Booking.ID, admin.SubUUID); apierr == nil || apierr.Code() != http.StatusNotFound {
		t.Errorf("expected 404 deleting twice, got %v", apierr)
	}
}

func TestGetCalendar(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", entity.RoleUser, true)
	f.book(t, alice, "2025-02-26", "2025-03-02")
	f.book(t, alice, "2025-03-31", "2025-04-02")
	f.book(t, alice, "2025-04-10", "2025-04-12")
	cancelled := f.book(t, alice, "2025-03-15", "2025-03-16")
	if _, apierr := f.bookings.CancelBooking(context.Background(), cancelled.Booking.ID, alice.SubUUID); apierr != nil {
		t.Fatalf("failed to cancel: %v", apierr)
	}

	cal, apierr := f.bookings.GetCalendar(context.Background(), "2025-03")
	if apierr != nil {
		t.Fatalf("failed to get calendar: %v", apierr)
	}
	if len(cal.Bookings) != 2 {
		t.Fatalf("expected 2 bookings in March, got %d", len(cal.Bookings))
	}
	if cal.Bookings[0].StartDate != "2025-02-26" || cal.Bookings[0].OwnerName != "alice" {
		t.Errorf("unexpected first entry %+v", cal.Bookings[0])
	}

	if _, apierr := f.bookings.GetCalendar(context.Background(), "March"); apierr == nil || apierr.Code() != http.StatusBadRequest {
		t.Errorf("expected 400 for a bad month, got %v", apierr)
	}
}

func TestExportBookings(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "root", entity.RoleAdmin, true)
	alice := f.user(t, "alice", entity.RoleUser, true)
	f.book(t, alice, "2025-03-10", "2025-03-14")
	if err := f.settings.Save(&entity.Setting{Key: entity.SettingPropertyName, Value: "Casa Azul"}); err != nil {
		t.Fatalf("failed to save setting: %v", err)
	}

	data, filename, apierr := f.bookings.ExportBookings(context.Background(), admin.SubUUID)
	if apierr != nil {
		t.Fatalf("failed to export: %v", apierr)
	}
	if filename == "" {
		t.Error("expected a filename")
	}

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to open export: %v", err)
	}
	defer wb.Close()
	title, err := wb.GetCellValue("Bookings", "A1")
	if err != nil {
		t.Fatalf("failed to read title: %v", err)
	}
	if title != "Casa Azul" {
		t.Errorf("expected the property name as title, got %q", title)
	}

	if _, _, apierr := f.bookings.ExportBookings(context.Background(), alice.SubUUID); apierr == nil || apierr.Code() != http.StatusForbidden {
		t.Errorf("expected 403 for a non-admin, got %v", apierr)
	}
}

func TestConcurrentCreatesBySameOwner(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", entity.RoleUser, true)

	const n = 8
	var wg sync.WaitGroup
	results := make(chan apierror.ErrorResponse, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, apierr := f.bookings.CreateBooking(context.Background(), &CreateBookingRequest{StartDate: "2025-07-01", EndDate: "2025-07-10"}, alice.SubUUID)
			results <- apierr
		}()
	}
	wg.Wait()
	close(results)

	created, conflicts := 0, 0
	for apierr := range results {
		switch {
		case apierr == nil:
			created++
		case kindOf(t, apierr) == "booking_conflict":
			conflicts++
		default:
			t.Errorf("unexpected error %v", apierr)
		}
	}
	if created != 1 || conflicts != n-1 {
		t.Errorf("expected 1 booking and %d conflicts, got %d and %d", n-1, created, conflicts)
	}
}
