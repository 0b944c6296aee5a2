package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/me/gotr/internal/logging"
	"github.com/me/gotr/pkg/model"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(":memory:", logging.Discard())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestRecordRunAndListBack(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	finished := started.Add(90 * time.Second)
	unitStart := started.Add(time.Second)
	unitEnd := started.Add(11 * time.Second)
	exitCode := 1

	run := &model.Run{
		ID:             "run_" + uuid.New().String(),
		TestRoot:       "/suites",
		StartedAt:      started,
		FinishedAt:     &finished,
		Units:          2,
		LaunchFailures: 1,
		Excluded:       1,
	}
	results := []model.UnitResult{
		{
			RunID:       run.ID,
			UnitID:      "db/migrate_test",
			Status:      model.UnitFinished,
			ExitCode:    &exitCode,
			StartedAt:   &unitStart,
			FinishedAt:  &unitEnd,
			StdoutBytes: 128,
		},
		{
			RunID:        run.ID,
			UnitID:       "api/login_test",
			Status:       model.UnitFinished,
			DependsOn:    "db/migrate_test",
			Delay:        2 * time.Minute,
			LaunchFailed: true,
			FinishedAt:   &unitEnd,
		},
	}

	if err := st.RecordRun(ctx, run, results); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	runs, err := st.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("ListRuns returned %d runs, want 1", len(runs))
	}
	got := runs[0]
	if got.ID != run.ID || got.Units != 2 || got.LaunchFailures != 1 || got.Excluded != 1 {
		t.Errorf("run = %+v", got)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}
	if got.FinishedAt == nil || !got.FinishedAt.Equal(finished) {
		t.Errorf("FinishedAt = %v, want %v", got.FinishedAt, finished)
	}

	units, err := st.ListUnitResults(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListUnitResults: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("ListUnitResults returned %d results, want 2", len(units))
	}

	// Ordered by unit id: api before db.
	login := units[0]
	if login.UnitID != "api/login_test" {
		t.Fatalf("units[0] = %s", login.UnitID)
	}
	if !login.LaunchFailed || login.ExitCode != nil {
		t.Errorf("login result = %+v, want launch failure without exit code", login)
	}
	if login.Delay != 2*time.Minute {
		t.Errorf("login delay = %v, want 2m", login.Delay)
	}

	migrate := units[1]
	if migrate.ExitCode == nil || *migrate.ExitCode != 1 {
		t.Errorf("migrate exit code = %v, want 1", migrate.ExitCode)
	}
	if migrate.StartedAt == nil || !migrate.StartedAt.Equal(unitStart) {
		t.Errorf("migrate StartedAt = %v, want %v", migrate.StartedAt, unitStart)
	}
	if migrate.StdoutBytes != 128 {
		t.Errorf("migrate StdoutBytes = %d, want 128", migrate.StdoutBytes)
	}
}

func TestListRuns_NewestFirstWithLimit(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := &model.Run{
			ID:        "run_" + uuid.New().String(),
			TestRoot:  "/suites",
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := st.RecordRun(ctx, run, nil); err != nil {
			t.Fatalf("RecordRun %d: %v", i, err)
		}
	}

	runs, err := st.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns returned %d runs, want 2", len(runs))
	}
	if !runs[0].StartedAt.After(runs[1].StartedAt) {
		t.Errorf("runs not newest first: %v then %v", runs[0].StartedAt, runs[1].StartedAt)
	}
}

func TestListUnitResults_UnknownRun(t *testing.T) {
	st := testStore(t)
	results, err := st.ListUnitResults(context.Background(), "run_missing")
	if err != nil {
		t.Fatalf("ListUnitResults: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("got %d results for unknown run", len(results))
	}
}
