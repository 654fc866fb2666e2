package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/rfpanel-core/internal/catalog"
	"github.com/nerrad567/rfpanel-core/internal/power"
)

// Page size limits for List.
const (
	defaultLimit = 50
	maxLimit     = 200
)

// timeLayout is fixed width so that text ordering in SQLite matches time order.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// Filter controls which executions List returns.
type Filter struct {
	Page   int    // optional: only presses on this page
	Label  string // optional: only presses of buttons with this label
	Status string // optional: completed, partial or failed
	Limit  int    // default 50, max 200
	Offset int    // pagination offset
}

// ListResult contains a page of executions.
type ListResult struct {
	Executions []power.Execution `json:"executions"`
	Total      int               `json:"total"`
	Limit      int               `json:"limit"`
	Offset     int               `json:"offset"`
}

// Repository defines the interface for dispatch history.
type Repository interface {
	Create(ctx context.Context, exec *power.Execution) error
	Get(ctx context.Context, id string) (*power.Execution, error)
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores executions in the executions table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new history repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a finished execution. Commands and failures are stored as JSON.
func (r *SQLiteRepository) Create(ctx context.Context, exec *power.Execution) error {
	if exec.ID == "" {
		exec.ID = power.GenerateID()
	}
	if exec.StartedAt.IsZero() {
		exec.StartedAt = time.Now().UTC()
	}

	commands, err := marshalList(exec.Commands)
	if err != nil {
		return fmt.Errorf("marshalling commands: %w", err)
	}
	failures, err := marshalList(exec.Failures)
	if err != nil {
		return fmt.Errorf("marshalling failures: %w", err)
	}

	var completedAt any
	if !exec.CompletedAt.IsZero() {
		completedAt = exec.CompletedAt.UTC().Format(timeLayout)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO executions (id, page, button_column, slot, label, state, source, status,
			commands_total, commands_sent, commands_failed, commands, failures,
			started_at, completed_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exec.ID, exec.Button.Page, string(exec.Button.Column), exec.Button.Slot,
		exec.Label, string(exec.State), exec.Source, string(exec.Status),
		exec.CommandsTotal, exec.CommandsSent, exec.CommandsFailed, commands, failures,
		exec.StartedAt.UTC().Format(timeLayout), completedAt, exec.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("inserting execution: %w", err)
	}
	return nil
}

// marshalList encodes a slice as JSON, writing "[]" for nil.
func marshalList[T any](items []T) (string, error) {
	if items == nil {
		return "[]", nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

const selectColumns = `SELECT id, page, button_column, slot, label, state, source, status,
	commands_total, commands_sent, commands_failed, commands, failures,
	started_at, completed_at, duration_ms FROM executions`

// Get returns the execution with the given ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*power.Execution, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	exec, err := scanExecution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrExecutionNotFound
	}
	if err != nil {
		return nil, err
	}
	return exec, nil
}

// List returns executions matching the filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any
	if filter.Page > 0 {
		conditions = append(conditions, "page = ?")
		args = append(args, filter.Page)
	}
	if filter.Label != "" {
		conditions = append(conditions, "label = ?")
		args = append(args, filter.Label)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM executions"+where, args...).Scan(&total); err != nil { //nolint:gosec // WHERE built from parameterised conditions
		return nil, fmt.Errorf("counting executions: %w", err)
	}

	query := selectColumns + where + " ORDER BY started_at DESC, id DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("querying executions: %w", err)
	}
	defer rows.Close()

	execs := []power.Execution{}
	for rows.Next() {
		exec, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		execs = append(execs, *exec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating executions: %w", err)
	}

	return &ListResult{
		Executions: execs,
		Total:      total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanExecution(s scanner) (*power.Execution, error) {
	var (
		exec               power.Execution
		column, state      string
		status             string
		commands, failures string
		startedAt          string
		completedAt        sql.NullString
	)
	err := s.Scan(&exec.ID, &exec.Button.Page, &column, &exec.Button.Slot,
		&exec.Label, &state, &exec.Source, &status,
		&exec.CommandsTotal, &exec.CommandsSent, &exec.CommandsFailed,
		&commands, &failures, &startedAt, &completedAt, &exec.DurationMS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning execution: %w", err)
	}

	exec.Button.Column = catalog.Column(column)
	exec.State = catalog.PowerState(state)
	exec.Status = power.ExecutionStatus(status)

	if err := json.Unmarshal([]byte(commands), &exec.Commands); err != nil {
		return nil, fmt.Errorf("decoding commands for %s: %w", exec.ID, err)
	}
	if err := json.Unmarshal([]byte(failures), &exec.Failures); err != nil {
		return nil, fmt.Errorf("decoding failures for %s: %w", exec.ID, err)
	}
	if len(exec.Failures) == 0 {
		exec.Failures = nil
	}

	if exec.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return nil, fmt.Errorf("parsing started_at %q: %w", startedAt, err)
	}
	if completedAt.Valid {
		if exec.CompletedAt, err = time.Parse(timeLayout, completedAt.String); err != nil {
			return nil, fmt.Errorf("parsing completed_at %q: %w", completedAt.String, err)
		}
	}
	return &exec, nil
}
