package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/rfpanel-core/internal/catalog"
	"github.com/nerrad567/rfpanel-core/internal/infrastructure/database"
	"github.com/nerrad567/rfpanel-core/internal/power"
	"github.com/nerrad567/rfpanel-core/migrations"
)

func setupTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "history.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testExecution(id string, page int, label string, offset time.Duration) *power.Execution {
	started := baseTime.Add(offset)
	return &power.Execution{
		ID:     id,
		Button: catalog.ButtonRef{Page: page, Column: catalog.ColumnLeft, Slot: 1},
		Label:  label,
		State:  catalog.PowerOn,
		Source: "test",
		Status: power.StatusCompleted,
		Commands: []power.Command{
			{Address: 0xA0001, Socket: 1, State: catalog.PowerOn},
		},
		CommandsTotal: 1,
		CommandsSent:  1,
		StartedAt:     started,
		CompletedAt:   started.Add(15 * time.Millisecond),
		DurationMS:    15,
	}
}

func TestCreateAndGet(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	exec := testExecution("exe-00000001", 1, "MT-32", 0)
	exec.Status = power.StatusPartial
	exec.Commands = append(exec.Commands, power.Command{Address: 0xA0002, Socket: 4, State: catalog.PowerOn})
	exec.CommandsTotal = 2
	exec.CommandsFailed = 1
	exec.Failures = []power.CommandFailure{
		{Index: 1, Command: exec.Commands[1], Error: "power: transmit failed: radio busy"},
	}

	if err := repo.Create(ctx, exec); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.Get(ctx, "exe-00000001")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Button != exec.Button || got.Label != "MT-32" || got.State != catalog.PowerOn || got.Status != power.StatusPartial {
		t.Errorf("Get() = %+v", got)
	}
	if len(got.Commands) != 2 || got.Commands[1] != exec.Commands[1] {
		t.Errorf("Commands = %v, want %v", got.Commands, exec.Commands)
	}
	if len(got.Failures) != 1 || got.Failures[0].Index != 1 || got.Failures[0].Error != exec.Failures[0].Error {
		t.Errorf("Failures = %+v", got.Failures)
	}
	if !got.StartedAt.Equal(exec.StartedAt) || !got.CompletedAt.Equal(exec.CompletedAt) {
		t.Errorf("times = %v/%v, want %v/%v", got.StartedAt, got.CompletedAt, exec.StartedAt, exec.CompletedAt)
	}
	if got.CommandsTotal != 2 || got.CommandsSent != 1 || got.CommandsFailed != 1 || got.DurationMS != 15 {
		t.Errorf("counts = %+v", got)
	}
}

func TestCreate_GeneratesID(t *testing.T) {
	repo := setupTestRepo(t)
	exec := testExecution("", 1, "Mixer", 0)

	if err := repo.Create(context.Background(), exec); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if exec.ID == "" {
		t.Fatal("Create() did not assign an ID")
	}
	if _, err := repo.Get(context.Background(), exec.ID); err != nil {
		t.Errorf("Get(%s) error = %v", exec.ID, err)
	}
}

func TestCreate_NoFailuresRoundTripsAsNil(t *testing.T) {
	repo := setupTestRepo(t)
	if err := repo.Create(context.Background(), testExecution("exe-0000000a", 1, "TV", 0)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	got, err := repo.Get(context.Background(), "exe-0000000a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Failures != nil {
		t.Errorf("Failures = %v, want nil", got.Failures)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := setupTestRepo(t)
	_, err := repo.Get(context.Background(), "exe-missing")
	if !errors.Is(err, ErrExecutionNotFound) {
		t.Errorf("Get() error = %v, want ErrExecutionNotFound", err)
	}
}

func TestList(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		page := 1 + i%2
		label := fmt.Sprintf("Button %d", i%3)
		exec := testExecution(fmt.Sprintf("exe-%08d", i), page, label, time.Duration(i)*time.Second)
		if i == 4 {
			exec.Status = power.StatusFailed
		}
		if err := repo.Create(ctx, exec); err != nil {
			t.Fatalf("Create(%d) error = %v", i, err)
		}
	}

	tests := []struct {
		name      string
		filter    Filter
		wantIDs   []string
		wantTotal int
		wantLimit int
	}{
		{
			name:      "all newest first",
			filter:    Filter{},
			wantIDs:   []string{"exe-00000004", "exe-00000003", "exe-00000002", "exe-00000001", "exe-00000000"},
			wantTotal: 5,
			wantLimit: 50,
		},
		{
			name:      "by page",
			filter:    Filter{Page: 2},
			wantIDs:   []string{"exe-00000003", "exe-00000001"},
			wantTotal: 2,
			wantLimit: 50,
		},
		{
			name:      "by label",
			filter:    Filter{Label: "Button 0"},
			wantIDs:   []string{"exe-00000003", "exe-00000000"},
			wantTotal: 2,
			wantLimit: 50,
		},
		{
			name:      "by status",
			filter:    Filter{Status: "failed"},
			wantIDs:   []string{"exe-00000004"},
			wantTotal: 1,
			wantLimit: 50,
		},
		{
			name:      "paged",
			filter:    Filter{Limit: 2, Offset: 1},
			wantIDs:   []string{"exe-00000003", "exe-00000002"},
			wantTotal: 5,
			wantLimit: 2,
		},
		{
			name:      "limit clamped",
			filter:    Filter{Limit: 1000},
			wantIDs:   []string{"exe-00000004", "exe-00000003", "exe-00000002", "exe-00000001", "exe-00000000"},
			wantTotal: 5,
			wantLimit: 200,
		},
		{
			name:      "no matches",
			filter:    Filter{Label: "Nobody"},
			wantIDs:   []string{},
			wantTotal: 0,
			wantLimit: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if res.Total != tt.wantTotal || res.Limit != tt.wantLimit {
				t.Errorf("total/limit = %d/%d, want %d/%d", res.Total, res.Limit, tt.wantTotal, tt.wantLimit)
			}
			if res.Executions == nil {
				t.Fatal("Executions is nil, want empty slice")
			}
			var ids []string
			for _, e := range res.Executions {
				ids = append(ids, e.ID)
			}
			if fmt.Sprint(ids) != fmt.Sprint(tt.wantIDs) {
				t.Errorf("ids = %v, want %v", ids, tt.wantIDs)
			}
		})
	}
}

func TestRepository_WithDispatcher(t *testing.T) {
	repo := setupTestRepo(t)
	cat, err := catalog.New([]catalog.Button{
		{Page: 1, Column: catalog.ColumnLeft, Slot: 1, Label: "Mixer", Address: 0xA0002, Socket: 4},
	})
	if err != nil {
		t.Fatalf("catalog.New() error = %v", err)
	}

	d := power.NewDispatcher(power.NewResolver(cat, nil), gatewayFunc(func(context.Context, power.Command) error { return nil }), nil)
	d.SetHistory(repo)

	exec, err := d.Press(context.Background(), catalog.ButtonRef{Page: 1, Column: catalog.ColumnLeft, Slot: 1}, catalog.PowerOff, "test")
	if err != nil {
		t.Fatalf("Press() error = %v", err)
	}

	got, err := repo.Get(context.Background(), exec.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.State != catalog.PowerOff || len(got.Commands) != 1 {
		t.Errorf("stored execution = %+v", got)
	}
}

type gatewayFunc func(ctx context.Context, cmd power.Command) error

func (f gatewayFunc) Transmit(ctx context.Context, cmd power.Command) error { return f(ctx, cmd) }
