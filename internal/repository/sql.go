package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"eagle-eye.io/fieldagent/internal/domain"
	apperrors "eagle-eye.io/fieldagent/internal/pkg/errors"
)

// SQLStore is an AgentStore over database/sql. Statements are composed with
// ent's dialect-aware builder, so the same store runs on PostgreSQL (pgx
// stdlib over the shared pgxpool) and SQLite.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

var _ AgentStore = (*SQLStore)(nil)

// NewSQLStore creates a store for db speaking the given ent dialect
// (dialect.Postgres or dialect.SQLite).
func NewSQLStore(db *sql.DB, dialectName string) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sql store: nil database handle")
	}
	switch dialectName {
	case dialect.Postgres, dialect.SQLite:
	default:
		return nil, fmt.Errorf("sql store: unsupported dialect %q", dialectName)
	}
	return &SQLStore{db: db, dialect: dialectName}, nil
}

// Dialect returns the ent dialect name the store composes statements for.
func (s *SQLStore) Dialect() string { return s.dialect }

func (s *SQLStore) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.dialect)
}

// Insert implements AgentStore.
func (s *SQLStore) Insert(ctx context.Context, fields domain.AgentFields) (int64, error) {
	query, args := s.builder().Insert(TableAgents).
		Columns(FieldCodename, FieldRealName, FieldLocation, FieldStatus, FieldMissionsCompleted).
		Values(fields.Codename, fields.RealName, fields.Location, string(fields.Status), fields.MissionsCompleted).
		Returning(FieldID).
		Query()

	var id int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert agent %s: %w", fields.Codename, classify(err))
	}
	return id, nil
}

// Get implements AgentStore.
func (s *SQLStore) Get(ctx context.Context, id int64) (*domain.Agent, error) {
	query, args := s.selectAgents().Where(entsql.EQ(FieldID, id)).Query()
	a, err := scanAgent(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("get agent %d: %w", id, classify(err))
	}
	return a, nil
}

// FindByCodename implements AgentStore.
func (s *SQLStore) FindByCodename(ctx context.Context, codename string) (*domain.Agent, error) {
	query, args := s.selectAgents().Where(entsql.EQ(FieldCodename, codename)).Query()
	a, err := scanAgent(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("find agent by codename %s: %w", codename, classify(err))
	}
	return a, nil
}

// Scan implements AgentStore.
func (s *SQLStore) Scan(ctx context.Context, q Query) ([]*domain.Agent, int, error) {
	pred := scanPredicate(q)

	countSel := s.builder().Select().From(s.builder().Table(TableAgents))
	if pred != nil {
		countSel.Where(pred)
	}
	countQuery, countArgs := countSel.Count().Query()

	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count agents: %w", classify(err))
	}
	if total == 0 || q.Offset >= total {
		return []*domain.Agent{}, total, nil
	}

	sel := s.selectAgents()
	if pred := scanPredicate(q); pred != nil {
		sel.Where(pred)
	}
	switch q.Order {
	case OrderByMissionsDesc:
		sel.OrderBy(entsql.Desc(FieldMissionsCompleted), entsql.Asc(FieldID))
	default:
		sel.OrderBy(entsql.Asc(FieldID))
	}
	if q.Limit > 0 {
		sel.Limit(q.Limit)
	}
	if q.Offset > 0 {
		sel.Offset(q.Offset)
	}

	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("scan agents: %w", classify(err))
	}
	defer rows.Close()

	agents := make([]*domain.Agent, 0)
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan agent row: %w", classify(err))
		}
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate agents: %w", classify(err))
	}
	return agents, total, nil
}

// Update implements AgentStore.
func (s *SQLStore) Update(ctx context.Context, id int64, changes Changes) (*domain.Agent, error) {
	if changes.Empty() {
		return s.Get(ctx, id)
	}

	upd := s.builder().Update(TableAgents).Where(entsql.EQ(FieldID, id))
	if changes.Codename != nil {
		upd.Set(FieldCodename, *changes.Codename)
	}
	if changes.RealName != nil {
		upd.Set(FieldRealName, *changes.RealName)
	}
	if changes.Location != nil {
		upd.Set(FieldLocation, *changes.Location)
	}
	if changes.Status != nil {
		upd.Set(FieldStatus, string(*changes.Status))
	}
	switch {
	case changes.MissionsCompleted != nil:
		// One assignment per column: fold the increment into the overwrite.
		upd.Set(FieldMissionsCompleted, *changes.MissionsCompleted+changes.AddMissions)
	case changes.AddMissions != 0:
		upd.Add(FieldMissionsCompleted, changes.AddMissions)
	}
	upd.Returning(agentColumns...)

	query, args := upd.Query()
	a, err := scanAgent(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("update agent %d: %w", id, classify(err))
	}
	return a, nil
}

// Delete implements AgentStore.
func (s *SQLStore) Delete(ctx context.Context, id int64) (bool, error) {
	query, args := s.builder().Delete(TableAgents).Where(entsql.EQ(FieldID, id)).Query()
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete agent %d: %w", id, classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete agent %d rows affected: %w", id, err)
	}
	return n > 0, nil
}

// CountBy implements AgentStore.
func (s *SQLStore) CountBy(ctx context.Context, key GroupKey) (map[string]int, error) {
	if key != GroupByStatus {
		return nil, fmt.Errorf("count by %q: unsupported group key", key)
	}
	column := string(key)

	query, args := s.builder().
		Select(column, entsql.As(entsql.Count("*"), "n")).
		From(s.builder().Table(TableAgents)).
		GroupBy(column).
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count agents by %s: %w", column, classify(err))
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			value string
			n     int
		)
		if err := rows.Scan(&value, &n); err != nil {
			return nil, fmt.Errorf("scan %s count: %w", column, err)
		}
		counts[value] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s counts: %w", column, err)
	}
	return counts, nil
}

// Ping implements AgentStore.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) selectAgents() *entsql.Selector {
	return s.builder().Select(agentColumns...).From(s.builder().Table(TableAgents))
}

func scanPredicate(q Query) *entsql.Predicate {
	var preds []*entsql.Predicate
	if q.Status != nil {
		preds = append(preds, entsql.EQ(FieldStatus, string(*q.Status)))
	}
	if q.Term != "" {
		preds = append(preds, entsql.Or(
			entsql.ContainsFold(FieldCodename, q.Term),
			entsql.ContainsFold(FieldRealName, q.Term),
		))
	}
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	default:
		return entsql.And(preds...)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (*domain.Agent, error) {
	var (
		a      domain.Agent
		status string
	)
	if err := row.Scan(&a.ID, &a.Codename, &a.RealName, &a.Location, &status, &a.MissionsCompleted); err != nil {
		return nil, err
	}
	a.Status = domain.AgentStatus(status)
	return &a, nil
}

// classify maps driver errors onto the store sentinels.
func classify(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return apperrors.ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %v", apperrors.ErrAlreadyExists, err)
	case isRangeViolation(err):
		return fmt.Errorf("%w: %v", apperrors.ErrOutOfRange, err)
	default:
		return err
	}
}
