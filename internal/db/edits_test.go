package db_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"punkdir/internal/db"
	"punkdir/internal/models"
	"punkdir/internal/privilege"
	"punkdir/internal/testutil"
)

func newEdit(entityType models.EntityType, entityID int64, changes models.FieldChanges) *models.PendingEdit {
	return &models.PendingEdit{
		EntityType:   entityType,
		EntityID:     entityID,
		FieldChanges: changes,
	}
}

func TestCreateEdit(t *testing.T) {
	database, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	userID := testutil.CreateTestUser(t, database, "submitter", privilege.User)
	bandID := testutil.CreateTestBand(t, database, "The Broken Amps", "hardcore")

	edit := newEdit(models.EntityBand, bandID, models.FieldChanges{
		{Field: "genre", Value: models.StringValue("powerviolence")},
	})
	edit.SubmittedBy = &userID

	if err := database.CreateEdit(ctx, edit); err != nil {
		t.Fatalf("CreateEdit() error = %v", err)
	}
	if edit.ID == 0 {
		t.Error("CreateEdit() did not set ID")
	}
	if edit.Status != models.StatusPending {
		t.Errorf("CreateEdit() status = %q, want %q", edit.Status, models.StatusPending)
	}
	if edit.CreatedAt.IsZero() {
		t.Error("CreateEdit() did not set CreatedAt")
	}
}

func TestCreateEdit_NoChanges(t *testing.T) {
	database, cleanup := testutil.TestDB(t)
	defer cleanup()

	edit := newEdit(models.EntityBand, 1, nil)
	if err := database.CreateEdit(context.Background(), edit); !errors.Is(err, db.ErrNoChanges) {
		t.Errorf("CreateEdit() error = %v, want ErrNoChanges", err)
	}
}

func TestGetEditByID(t *testing.T) {
	database, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	userID := testutil.CreateTestUser(t, database, "fetcher", privilege.User)
	bandID := testutil.CreateTestBand(t, database, "Gutter Ballet", "street punk")

	edit := newEdit(models.EntityBand, bandID, models.FieldChanges{
		{Field: "city", Value: models.StringValue("Norfolk")},
	})
	edit.SubmittedBy = &userID
	if err := database.CreateEdit(ctx, edit); err != nil {
		t.Fatalf("CreateEdit() error = %v", err)
	}

	fetched, err := database.GetEditByID(ctx, edit.ID)
	if err != nil {
		t.Fatalf("GetEditByID() error = %v", err)
	}
	if fetched.EntityID != bandID {
		t.Errorf("GetEditByID() EntityID = %d, want %d", fetched.EntityID, bandID)
	}
	if fetched.SubmitterName != "Test User fetcher" {
		t.Errorf("GetEditByID() SubmitterName = %q", fetched.SubmitterName)
	}
	if v, ok := fetched.FieldChanges.Get("city"); !ok || v.Value() != "Norfolk" {
		t.Errorf("GetEditByID() field_changes = %v", fetched.FieldChanges)
	}
}

func TestGetEditByID_NotFound(t *testing.T) {
	database, cleanup := testutil.TestDB(t)
	defer cleanup()

	if _, err := database.GetEditByID(context.Background(), 999999); !errors.Is(err, db.ErrEditNotFound) {
		t.Errorf("GetEditByID() error = %v, want ErrEditNotFound", err)
	}
}

func TestListEdits_OrderingAndCounts(t *testing.T) {
	database, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	reviewerID := testutil.CreateTestUser(t, database, "queue-admin", privilege.Admin)
	bandID := testutil.CreateTestBand(t, database, "Riot Pact", "d-beat")

	var editIDs []int64
	for _, genre := range []string{"crust", "powerviolence", "grind"} {
		edit := newEdit(models.EntityBand, bandID, models.FieldChanges{
			{Field: "genre", Value: models.StringValue(genre)},
		})
		if err := database.CreateEdit(ctx, edit); err != nil {
			t.Fatalf("CreateEdit() error = %v", err)
		}
		editIDs = append(editIDs, edit.ID)
		time.Sleep(10 * time.Millisecond) // distinct created_at
	}

	// Reject one so the counts split
	if _, err := database.RejectEdit(ctx, editIDs[0], reviewerID, nil); err != nil {
		t.Fatalf("RejectEdit() error = %v", err)
	}

	edits, counts, pagination, err := database.ListEdits(ctx, models.ListEditsOptions{})
	if err != nil {
		t.Fatalf("ListEdits() error = %v", err)
	}

	if len(edits) != 2 {
		t.Fatalf("ListEdits() returned %d pending, want 2", len(edits))
	}
	// Newest submission first
	if edits[0].ID != editIDs[2] || edits[1].ID != editIDs[1] {
		t.Errorf("ListEdits() order = [%d %d], want [%d %d]", edits[0].ID, edits[1].ID, editIDs[2], editIDs[1])
	}
	if counts.Pending != 2 || counts.Rejected != 1 || counts.Approved != 0 {
		t.Errorf("ListEdits() counts = %+v", counts)
	}
	if pagination.Total != 2 || pagination.TotalPages != 1 {
		t.Errorf("ListEdits() pagination = %+v", pagination)
	}

	// Every listed edit carries the entity's current data
	for _, e := range edits {
		if e.OriginalData == nil {
			t.Errorf("ListEdits() edit %d missing original data", e.ID)
		} else if e.OriginalData["name"] != "Riot Pact" {
			t.Errorf("ListEdits() edit %d original name = %v", e.ID, e.OriginalData["name"])
		}
	}
}

func TestListEdits_ReviewedQueue(t *testing.T) {
	database, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	reviewerID := testutil.CreateTestUser(t, database, "history-admin", privilege.Admin)
	bandID := testutil.CreateTestBand(t, database, "The Broken Amps", "hardcore")

	edit := newEdit(models.EntityBand, bandID, models.FieldChanges{
		{Field: "state", Value: models.StringValue("OR")},
	})
	if err := database.CreateEdit(ctx, edit); err != nil {
		t.Fatalf("CreateEdit() error = %v", err)
	}
	notes := "duplicate of an earlier suggestion"
	if _, err := database.RejectEdit(ctx, edit.ID, reviewerID, &notes); err != nil {
		t.Fatalf("RejectEdit() error = %v", err)
	}

	edits, _, _, err := database.ListEdits(ctx, models.ListEditsOptions{Status: models.StatusRejected})
	if err != nil {
		t.Fatalf("ListEdits() error = %v", err)
	}
	if len(edits) != 1 {
		t.Fatalf("ListEdits() returned %d rejected, want 1", len(edits))
	}
	if edits[0].ReviewedAt == nil {
		t.Error("ListEdits() rejected edit missing reviewed_at")
	}
	if edits[0].AdminNotes == nil || *edits[0].AdminNotes != notes {
		t.Errorf("ListEdits() admin_notes = %v, want %q", edits[0].AdminNotes, notes)
	}
	if edits[0].ReviewerName != "Test User history-admin" {
		t.Errorf("ListEdits() ReviewerName = %q", edits[0].ReviewerName)
	}
}

func TestListEdits_ReviewedDateRange(t *testing.T) {
	database, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	reviewerID := testutil.CreateTestUser(t, database, "range-admin", privilege.Admin)
	bandID := testutil.CreateTestBand(t, database, "Date Range", "hardcore")

	var editIDs []int64
	for _, city := range []string{"Olympia", "Tacoma"} {
		edit := newEdit(models.EntityBand, bandID, models.FieldChanges{
			{Field: "city", Value: models.StringValue(city)},
		})
		if err := database.CreateEdit(ctx, edit); err != nil {
			t.Fatalf("CreateEdit() error = %v", err)
		}
		if _, err := database.RejectEdit(ctx, edit.ID, reviewerID, nil); err != nil {
			t.Fatalf("RejectEdit() error = %v", err)
		}
		editIDs = append(editIDs, edit.ID)
	}

	// Push one review into last week so the window can split them
	if _, err := database.Pool.Exec(ctx,
		"UPDATE pending_edits SET reviewed_at = NOW() - INTERVAL '7 days' WHERE id = $1",
		editIDs[0]); err != nil {
		t.Fatalf("failed to backdate review: %v", err)
	}

	start := time.Now().Add(-24 * time.Hour)
	end := time.Now().Add(24 * time.Hour)
	edits, _, pagination, err := database.ListEdits(ctx, models.ListEditsOptions{
		Status:    models.StatusRejected,
		StartDate: &start,
		EndDate:   &end,
	})
	if err != nil {
		t.Fatalf("ListEdits() error = %v", err)
	}
	if len(edits) != 1 || edits[0].ID != editIDs[1] {
		t.Fatalf("ListEdits() with recent window = %v edits, want only %d", len(edits), editIDs[1])
	}
	if pagination.Total != 1 {
		t.Errorf("ListEdits() total = %d, want 1", pagination.Total)
	}

	// A window around last week returns only the backdated review
	start = time.Now().Add(-8 * 24 * time.Hour)
	end = time.Now().Add(-6 * 24 * time.Hour)
	edits, _, _, err = database.ListEdits(ctx, models.ListEditsOptions{
		Status:    models.StatusRejected,
		StartDate: &start,
		EndDate:   &end,
	})
	if err != nil {
		t.Fatalf("ListEdits() error = %v", err)
	}
	if len(edits) != 1 || edits[0].ID != editIDs[0] {
		t.Fatalf("ListEdits() with old window = %v edits, want only %d", len(edits), editIDs[0])
	}

	// No window returns both
	edits, _, _, err = database.ListEdits(ctx, models.ListEditsOptions{Status: models.StatusRejected})
	if err != nil {
		t.Fatalf("ListEdits() error = %v", err)
	}
	if len(edits) != 2 {
		t.Fatalf("ListEdits() without window = %d edits, want 2", len(edits))
	}
}

func TestApproveEdit_AppliesChanges(t *testing.T) {
	database, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	reviewerID := testutil.CreateTestUser(t, database, "approver", privilege.Admin)
	bandID := testutil.CreateTestBand(t, database, "Gutter Ballet", "street punk")

	edit := newEdit(models.EntityBand, bandID, models.FieldChanges{
		{Field: "name", Value: models.StringValue("Gutter Ballet Reunion")},
		{Field: "active", Value: models.StringValue("0")},
	})
	if err := database.CreateEdit(ctx, edit); err != nil {
		t.Fatalf("CreateEdit() error = %v", err)
	}

	result, err := database.ApproveEdit(ctx, edit.ID, reviewerID, nil)
	if err != nil {
		t.Fatalf("ApproveEdit() error = %v", err)
	}
	if !result.EntityApplied || result.EntityMissing {
		t.Errorf("ApproveEdit() result = %+v, want applied", result)
	}

	schema, _ := models.SchemaFor(models.EntityBand)
	data, err := database.GetEntityData(ctx, schema, bandID)
	if err != nil {
		t.Fatalf("GetEntityData() error = %v", err)
	}
	if data["name"] != "Gutter Ballet Reunion" {
		t.Errorf("entity name = %v, want updated", data["name"])
	}
	if data["active"] != false {
		t.Errorf("entity active = %v, want false", data["active"])
	}
	// Untouched fields stay as they were
	if data["genre"] != "street punk" {
		t.Errorf("entity genre = %v, want unchanged", data["genre"])
	}

	approved, err := database.GetEditByID(ctx, edit.ID)
	if err != nil {
		t.Fatalf("GetEditByID() error = %v", err)
	}
	if approved.Status != models.StatusApproved {
		t.Errorf("status = %q, want %q", approved.Status, models.StatusApproved)
	}
	if approved.ReviewedBy == nil || *approved.ReviewedBy != reviewerID {
		t.Error("ApproveEdit() did not set ReviewedBy")
	}
	if approved.ReviewedAt == nil {
		t.Error("ApproveEdit() did not set ReviewedAt")
	}
}

func TestApproveEdit_VenueTypedColumns(t *testing.T) {
	database, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	reviewerID := testutil.CreateTestUser(t, database, "venue-approver", privilege.Admin)
	venueID := testutil.CreateTestVenue(t, database, "Basement 414", 80)

	edit := newEdit(models.EntityVenue, venueID, models.FieldChanges{
		{Field: "capacity", Value: models.StringValue("120")},
		{Field: "age_restriction", Value: models.StringValue("all ages")},
	})
	if err := database.CreateEdit(ctx, edit); err != nil {
		t.Fatalf("CreateEdit() error = %v", err)
	}

	if _, err := database.ApproveEdit(ctx, edit.ID, reviewerID, nil); err != nil {
		t.Fatalf("ApproveEdit() error = %v", err)
	}

	schema, _ := models.SchemaFor(models.EntityVenue)
	data, err := database.GetEntityData(ctx, schema, venueID)
	if err != nil {
		t.Fatalf("GetEntityData() error = %v", err)
	}
	// The submitted "120" must land in the integer column as a number
	if got, ok := data["capacity"].(int32); !ok || got != 120 {
		if got64, ok64 := data["capacity"].(int64); !ok64 || got64 != 120 {
			t.Errorf("capacity = %v (%T), want 120", data["capacity"], data["capacity"])
		}
	}
	if data["age_restriction"] != "all ages" {
		t.Errorf("age_restriction = %v", data["age_restriction"])
	}
}

func TestApproveEdit_EntityDeleted(t *testing.T) {
	database, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	reviewerID := testutil.CreateTestUser(t, database, "ghost-approver", privilege.Admin)
	bandID := testutil.CreateTestBand(t, database, "Short Lived", "hardcore")

	edit := newEdit(models.EntityBand, bandID, models.FieldChanges{
		{Field: "genre", Value: models.StringValue("emoviolence")},
	})
	if err := database.CreateEdit(ctx, edit); err != nil {
		t.Fatalf("CreateEdit() error = %v", err)
	}

	if _, err := database.Pool.Exec(ctx, "DELETE FROM bands WHERE id = $1", bandID); err != nil {
		t.Fatalf("failed to delete band: %v", err)
	}

	result, err := database.ApproveEdit(ctx, edit.ID, reviewerID, nil)
	if err != nil {
		t.Fatalf("ApproveEdit() error = %v", err)
	}
	if result.EntityApplied || !result.EntityMissing {
		t.Errorf("ApproveEdit() result = %+v, want entity missing", result)
	}

	// The decision still stands: the edit is approved, not pending
	approved, err := database.GetEditByID(ctx, edit.ID)
	if err != nil {
		t.Fatalf("GetEditByID() error = %v", err)
	}
	if approved.Status != models.StatusApproved {
		t.Errorf("status = %q, want %q", approved.Status, models.StatusApproved)
	}
}

func TestRejectEdit_DoesNotTouchEntity(t *testing.T) {
	database, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	reviewerID := testutil.CreateTestUser(t, database, "rejecter", privilege.Admin)
	bandID := testutil.CreateTestBand(t, database, "Riot Pact", "d-beat")

	edit := newEdit(models.EntityBand, bandID, models.FieldChanges{
		{Field: "genre", Value: models.StringValue("nu metal")},
	})
	if err := database.CreateEdit(ctx, edit); err != nil {
		t.Fatalf("CreateEdit() error = %v", err)
	}

	result, err := database.RejectEdit(ctx, edit.ID, reviewerID, nil)
	if err != nil {
		t.Fatalf("RejectEdit() error = %v", err)
	}
	if result.Action != "reject" {
		t.Errorf("RejectEdit() action = %q", result.Action)
	}

	schema, _ := models.SchemaFor(models.EntityBand)
	data, err := database.GetEntityData(ctx, schema, bandID)
	if err != nil {
		t.Fatalf("GetEntityData() error = %v", err)
	}
	if data["genre"] != "d-beat" {
		t.Errorf("genre = %v, rejection must not modify the entity", data["genre"])
	}
}

func TestReview_AlreadyReviewed(t *testing.T) {
	database, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	reviewerID := testutil.CreateTestUser(t, database, "double-reviewer", privilege.Admin)
	bandID := testutil.CreateTestBand(t, database, "Once Only", "hardcore")

	edit := newEdit(models.EntityBand, bandID, models.FieldChanges{
		{Field: "city", Value: models.StringValue("Olympia")},
	})
	if err := database.CreateEdit(ctx, edit); err != nil {
		t.Fatalf("CreateEdit() error = %v", err)
	}
	if _, err := database.ApproveEdit(ctx, edit.ID, reviewerID, nil); err != nil {
		t.Fatalf("ApproveEdit() error = %v", err)
	}

	if _, err := database.ApproveEdit(ctx, edit.ID, reviewerID, nil); !errors.Is(err, db.ErrEditNotFound) {
		t.Errorf("second ApproveEdit() error = %v, want ErrEditNotFound", err)
	}
	if _, err := database.RejectEdit(ctx, edit.ID, reviewerID, nil); !errors.Is(err, db.ErrEditNotFound) {
		t.Errorf("RejectEdit() after approval error = %v, want ErrEditNotFound", err)
	}
}

func TestReview_ConcurrentExactlyOnce(t *testing.T) {
	database, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	approverID := testutil.CreateTestUser(t, database, "race-approver", privilege.Admin)
	rejecterID := testutil.CreateTestUser(t, database, "race-rejecter", privilege.Admin)
	bandID := testutil.CreateTestBand(t, database, "Race Condition", "noise")

	edit := newEdit(models.EntityBand, bandID, models.FieldChanges{
		{Field: "genre", Value: models.StringValue("harsh noise")},
	})
	if err := database.CreateEdit(ctx, edit); err != nil {
		t.Fatalf("CreateEdit() error = %v", err)
	}

	var wg sync.WaitGroup
	var approveErr, rejectErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, approveErr = database.ApproveEdit(ctx, edit.ID, approverID, nil)
	}()
	go func() {
		defer wg.Done()
		_, rejectErr = database.RejectEdit(ctx, edit.ID, rejecterID, nil)
	}()
	wg.Wait()

	// Exactly one review wins, the other sees an already-reviewed edit
	wins := 0
	for _, err := range []error{approveErr, rejectErr} {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, db.ErrEditNotFound):
		default:
			t.Fatalf("unexpected review error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("concurrent reviews won %d times, want exactly 1", wins)
	}

	final, err := database.GetEditByID(ctx, edit.ID)
	if err != nil {
		t.Fatalf("GetEditByID() error = %v", err)
	}
	if final.Status == models.StatusPending {
		t.Error("edit still pending after concurrent reviews")
	}
}
