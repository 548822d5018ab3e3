package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

func TestTicketSaveVersioning(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	tickets := db.Tickets()

	ticket := &domain.Ticket{Title: "t", SubmitterID: "u", StatusID: domain.StatusOpen, PriorityID: domain.PriorityMedium}
	if err := tickets.Create(ctx, ticket); err != nil {
		t.Fatal(err)
	}
	if ticket.ID != 1 || ticket.Version != 1 {
		t.Fatalf("created %+v", ticket)
	}

	stale := *ticket
	ticket.StatusID = domain.StatusAssigned
	if err := tickets.Save(ctx, ticket, 1); err != nil {
		t.Fatal(err)
	}
	if ticket.Version != 2 {
		t.Fatalf("version = %d, want 2", ticket.Version)
	}

	stale.StatusID = domain.StatusResolved
	if err := tickets.Save(ctx, &stale, 1); !errors.Is(err, repository.ErrVersionMismatch) {
		t.Fatalf("stale save err = %v", err)
	}
	missing := &domain.Ticket{ID: 99}
	if err := tickets.Save(ctx, missing, 1); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("missing save err = %v", err)
	}

	stored, err := tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.StatusID != domain.StatusAssigned {
		t.Fatalf("stale write leaked: %+v", stored)
	}
}

func TestTicketSnapshotsAreCopies(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	assignee := "a1"
	ticket := &domain.Ticket{Title: "t", SubmitterID: "u", AssigneeID: &assignee}
	if err := db.Tickets().Create(ctx, ticket); err != nil {
		t.Fatal(err)
	}
	assignee = "changed"

	loaded, _ := db.Tickets().GetByID(ctx, ticket.ID)
	if *loaded.AssigneeID != "a1" {
		t.Fatalf("store aliases caller memory: %s", *loaded.AssigneeID)
	}
	*loaded.AssigneeID = "mutated"
	again, _ := db.Tickets().GetByID(ctx, ticket.ID)
	if *again.AssigneeID != "a1" {
		t.Fatal("snapshot mutation reached the store")
	}
}

func TestDeleteCascadesComments(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	keep := &domain.Ticket{Title: "keep"}
	drop := &domain.Ticket{Title: "drop"}
	for _, ticket := range []*domain.Ticket{keep, drop} {
		if err := db.Tickets().Create(ctx, ticket); err != nil {
			t.Fatal(err)
		}
	}
	for _, id := range []int64{keep.ID, drop.ID, drop.ID} {
		if err := db.Comments().Create(ctx, &domain.Comment{TicketID: id, Body: "x"}); err != nil {
			t.Fatal(err)
		}
	}

	if err := db.Tickets().Delete(ctx, drop.ID); err != nil {
		t.Fatal(err)
	}
	if db.CommentCount() != 1 {
		t.Fatalf("comments = %d, want 1", db.CommentCount())
	}
	if err := db.Tickets().Delete(ctx, drop.ID); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("second delete err = %v", err)
	}
	if err := db.Comments().Create(ctx, &domain.Comment{TicketID: drop.ID, Body: "late"}); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("comment on deleted ticket err = %v", err)
	}
}

func TestListOrderingAndPaging(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	created := []time.Time{base, base.Add(time.Hour), base.Add(time.Hour), base.Add(-time.Hour)}
	for _, at := range created {
		if err := db.Tickets().Create(ctx, &domain.Ticket{SubmitterID: "u", StatusID: domain.StatusOpen, CreatedAt: at}); err != nil {
			t.Fatal(err)
		}
	}

	list, err := db.Tickets().List(ctx, repository.TicketFilter{})
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{3, 2, 1, 4}
	for i := range want {
		if list[i].ID != want[i] {
			t.Fatalf("position %d: %d, want %d", i, list[i].ID, want[i])
		}
	}

	page, _ := db.Tickets().List(ctx, repository.TicketFilter{Offset: 1, Limit: 2})
	if len(page) != 2 || page[0].ID != 2 || page[1].ID != 1 {
		t.Fatalf("page = %+v", page)
	}
}

func TestUsersAndReference(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	db.SeedDemoUsers()

	roles, err := db.Users().RolesOf(ctx, "manager-1")
	if err != nil || !roles.IsManager() {
		t.Fatalf("RolesOf = %v, %v", roles, err)
	}
	if _, err := db.Users().RolesOf(ctx, "nobody"); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("unknown user err = %v", err)
	}

	staff, _ := db.Users().ListStaff(ctx)
	if len(staff) != 2 || staff[0].ID != "manager-1" || staff[1].ID != "agent-1" {
		t.Fatalf("staff = %+v", staff)
	}

	found, _ := db.Users().ListByIDs(ctx, []string{"agent-1", "ghost"})
	if len(found) != 1 {
		t.Fatalf("ListByIDs = %+v", found)
	}

	priorities, _ := db.Reference().ListPriorities(ctx)
	if len(priorities) != 4 || priorities[0].ID != domain.PriorityLow {
		t.Fatalf("priorities = %+v", priorities)
	}
	if _, err := db.Reference().GetPriority(ctx, 9); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("unknown priority err = %v", err)
	}
}
