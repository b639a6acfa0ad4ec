package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/chepyr/go-project-tracker/shared/models"
	"github.com/google/uuid"
)

func TestTaskRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	owner := insertUser(t, db, "owner@example.com")
	p := insertProject(t, db, owner.ID)
	task := insertTask(t, db, p.ID, "write tests", time.Now().UTC())

	got, err := repo.GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "write tests" || got.Status != models.TaskStatusToDo || got.Priority != models.TaskPriorityMedium {
		t.Fatalf("unexpected task: %+v", got)
	}
	if got.Project == nil || got.Project.ID != p.ID || got.Project.Creator.ID != owner.ID {
		t.Fatalf("want project summary for %s, got %+v", p.ID, got.Project)
	}

	if _, err := repo.GetByID(ctx, uuid.New()); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("want sql.ErrNoRows, got %v", err)
	}
}

func TestTaskRepository_ListByProject(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)

	owner := insertUser(t, db, "owner@example.com")
	p1 := insertProject(t, db, owner.ID)
	p2 := insertProject(t, db, owner.ID)

	base := time.Now().UTC()
	insertTask(t, db, p1.ID, "older", base.Add(-time.Hour))
	insertTask(t, db, p1.ID, "newer", base)
	insertTask(t, db, p2.ID, "other", base)

	tasks, err := repo.ListByProject(context.Background(), p1.ID)
	if err != nil {
		t.Fatalf("ListByProject: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("want 2 tasks, got %d", len(tasks))
	}
	if tasks[0].Title != "newer" || tasks[1].Title != "older" {
		t.Fatalf("want newest first, got %q, %q", tasks[0].Title, tasks[1].Title)
	}

	tasks, err = repo.ListByProjects(context.Background(), []uuid.UUID{p1.ID, p2.ID})
	if err != nil {
		t.Fatalf("ListByProjects: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("want 3 tasks, got %d", len(tasks))
	}
}

func TestTaskRepository_ListVisibleTo(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	assignments := NewAssignmentRepository(db)
	ctx := context.Background()

	owner := insertUser(t, db, "owner@example.com")
	member := insertUser(t, db, "member@example.com")
	stranger := insertUser(t, db, "stranger@example.com")
	p := insertProject(t, db, owner.ID)
	now := time.Now().UTC()
	assigned := insertTask(t, db, p.ID, "assigned", now)
	insertTask(t, db, p.ID, "unassigned", now)

	if err := assignments.Create(ctx, &models.Assignment{TaskID: assigned.ID, UserID: member.ID, AssignedAt: now}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	tests := []struct {
		name   string
		userID uuid.UUID
		want   int
	}{
		{"creator sees every task", owner.ID, 2},
		{"assignee sees assigned task", member.ID, 1},
		{"stranger sees nothing", stranger.ID, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := repo.ListVisibleTo(ctx, tt.userID)
			if err != nil {
				t.Fatalf("ListVisibleTo: %v", err)
			}
			if len(tasks) != tt.want {
				t.Fatalf("want %d tasks, got %d", tt.want, len(tasks))
			}
			inProject, err := repo.ListVisibleInProject(ctx, tt.userID, p.ID)
			if err != nil {
				t.Fatalf("ListVisibleInProject: %v", err)
			}
			if len(inProject) != tt.want {
				t.Fatalf("want %d tasks in project, got %d", tt.want, len(inProject))
			}
		})
	}
}

func TestTaskRepository_UpdateDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	owner := insertUser(t, db, "owner@example.com")
	p := insertProject(t, db, owner.ID)
	task := insertTask(t, db, p.ID, "draft", time.Now().UTC())

	task.Title = "final"
	task.Status = models.TaskStatusDone
	if err := repo.Update(ctx, task); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := repo.GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "final" || got.Status != models.TaskStatusDone {
		t.Fatalf("update not persisted: %+v", got)
	}

	if err := repo.Delete(ctx, task.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Update(ctx, task); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("update after delete: want sql.ErrNoRows, got %v", err)
	}
}

func TestAssignmentRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()

	owner := insertUser(t, db, "owner@example.com")
	member := insertUser(t, db, "member@example.com")
	p := insertProject(t, db, owner.ID)
	task := insertTask(t, db, p.ID, "task", time.Now().UTC())

	a := &models.Assignment{TaskID: task.ID, UserID: member.ID, AssignedAt: time.Now().UTC()}
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, a); !IsUniqueViolation(err) {
		t.Fatalf("duplicate assignment: want unique violation, got %v", err)
	}

	ok, err := repo.Exists(ctx, task.ID, member.ID)
	if err != nil || !ok {
		t.Fatalf("Exists: want true, got %v (%v)", ok, err)
	}

	byTask, err := repo.ListByTasks(ctx, []uuid.UUID{task.ID})
	if err != nil {
		t.Fatalf("ListByTasks: %v", err)
	}
	got := byTask[task.ID]
	if len(got) != 1 || got[0].User == nil || got[0].User.Email != member.Email {
		t.Fatalf("unexpected assignments: %+v", got)
	}

	if err := repo.Delete(ctx, task.ID, member.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, task.ID, member.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("second delete: want sql.ErrNoRows, got %v", err)
	}
}

func TestTagRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	owner := insertUser(t, db, "owner@example.com")
	p := insertProject(t, db, owner.ID)
	task := insertTask(t, db, p.ID, "task", time.Now().UTC())

	tag := &models.Tag{ID: uuid.New(), Name: "backend"}
	if err := repo.Create(ctx, tag); err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, ref := range []string{"backend", tag.ID.String()} {
		got, err := repo.FindByRef(ctx, ref)
		if err != nil || got.ID != tag.ID {
			t.Fatalf("FindByRef(%q): want %s, got %v (%v)", ref, tag.ID, got, err)
		}
	}
	if _, err := repo.FindByRef(ctx, "frontend"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("want sql.ErrNoRows, got %v", err)
	}

	if err := repo.Link(ctx, task.ID, tag.ID); err != nil {
		t.Fatalf("Link: %v", err)
	}
	byTask, err := repo.ListByTasks(ctx, []uuid.UUID{task.ID})
	if err != nil {
		t.Fatalf("ListByTasks: %v", err)
	}
	if len(byTask[task.ID]) != 1 || byTask[task.ID][0].Name != "backend" {
		t.Fatalf("unexpected tags: %+v", byTask[task.ID])
	}

	if err := repo.UnlinkTask(ctx, task.ID); err != nil {
		t.Fatalf("UnlinkTask: %v", err)
	}
	byTask, err = repo.ListByTasks(ctx, []uuid.UUID{task.ID})
	if err != nil {
		t.Fatalf("ListByTasks: %v", err)
	}
	if len(byTask[task.ID]) != 0 {
		t.Fatalf("want no tags after unlink, got %+v", byTask[task.ID])
	}
}
