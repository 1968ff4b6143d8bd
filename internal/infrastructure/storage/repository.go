package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"NewsBalancer/internal/domain"
	"NewsBalancer/internal/ports"
)

const (
	tableNewsItems = "news_items"

	colID        = "id"
	colTitle     = "title"
	colURL       = "url"
	colContent   = "clean_content"
	colCreatedAt = "created_at"
	colState     = "isprocessed"
	colData      = "process_data"
)

// ErrNotUnprocessed is returned when an update targets an article that is
// missing or already in a terminal state.
var ErrNotUnprocessed = errors.New("article is not in unprocessed state")

// Repository persists articles and their analysis in news_items.
type Repository struct {
	db      *sql.DB
	dialect Dialect
	sb      sq.StatementBuilderType
}

var _ ports.ArticleStore = (*Repository)(nil)

// NewRepository wires a sql.DB opened for the given dialect.
func NewRepository(db *sql.DB, dialect Dialect) *Repository {
	return &Repository{
		db:      db,
		dialect: dialect,
		sb:      sq.StatementBuilder.PlaceholderFormat(dialect.placeholder()),
	}
}

// FetchUnprocessed returns unprocessed articles ordered by creation time.
func (r *Repository) FetchUnprocessed(ctx context.Context, limit int) ([]domain.Article, error) {
	query := r.sb.
		Select(colID, colTitle, colURL, colContent, colCreatedAt, colState).
		From(tableNewsItems).
		Where(sq.Eq{colState: int(domain.StateUnprocessed)}).
		OrderBy(colCreatedAt+" ASC", colID+" ASC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build fetch query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed: %w", err)
	}

	var articles []domain.Article
	for rows.Next() {
		var (
			article    domain.Article
			url, body  sql.NullString
			stateValue int
		)
		if err := rows.Scan(&article.ID, &article.Title, &url, &body, &article.CreatedAt, &stateValue); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan article: %w", err)
		}
		article.URL = url.String
		article.Content = body.String
		article.State = domain.ProcessingState(stateValue)
		articles = append(articles, article)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return articles, nil
}

// MarkProcessed writes the terminal state and the serialized record in one
// statement. Only unprocessed rows are updated.
func (r *Repository) MarkProcessed(ctx context.Context, articleID string, record domain.AnalysisRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal analysis record: %w", err)
	}

	stmt, args, err := r.sb.
		Update(tableNewsItems).
		Set(colState, int(record.State())).
		Set(colData, string(payload)).
		Where(sq.Eq{colID: articleID}).
		Where(sq.Eq{colState: int(domain.StateUnprocessed)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update article %s: %w", articleID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update article %s: %w", articleID, ErrNotUnprocessed)
	}

	return nil
}

// Stats counts articles by processing state.
func (r *Repository) Stats(ctx context.Context) (domain.ProcessingStats, error) {
	stmt, args, err := r.sb.
		Select(
			"COUNT(*)",
			countState(domain.StateUnprocessed),
			countState(domain.StateProcessedRelevant),
			countState(domain.StateProcessedNotRelevant),
		).
		From(tableNewsItems).
		ToSql()
	if err != nil {
		return domain.ProcessingStats{}, fmt.Errorf("build stats query: %w", err)
	}

	var stats domain.ProcessingStats
	err = r.db.QueryRowContext(ctx, stmt, args...).
		Scan(&stats.Total, &stats.Unprocessed, &stats.Relevant, &stats.NotRelevant)
	if err != nil {
		return domain.ProcessingStats{}, fmt.Errorf("query stats: %w", err)
	}

	return stats, nil
}

// Reset moves processed articles back to unprocessed and clears their record.
func (r *Repository) Reset(ctx context.Context, ids ...string) (int64, error) {
	query := r.sb.
		Update(tableNewsItems).
		Set(colState, int(domain.StateUnprocessed)).
		Set(colData, nil).
		Where(sq.Eq{colState: []int{int(domain.StateProcessedRelevant), int(domain.StateProcessedNotRelevant)}})
	if len(ids) > 0 {
		query = query.Where(sq.Eq{colID: ids})
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build reset: %w", err)
	}

	res, err := r.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("reset articles: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}

// Insert adds an unprocessed article and returns its identifier.
func (r *Repository) Insert(ctx context.Context, article domain.Article) (string, error) {
	stmt, args, err := r.sb.
		Insert(tableNewsItems).
		Columns(colTitle, colURL, colContent, colCreatedAt, colState).
		Values(article.Title, article.URL, article.Content, article.CreatedAt.UTC(), int(domain.StateUnprocessed)).
		Suffix("RETURNING " + colID).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build insert: %w", err)
	}

	var id string
	if err := r.db.QueryRowContext(ctx, stmt, args...).Scan(&id); err != nil {
		return "", fmt.Errorf("insert article: %w", err)
	}
	return id, nil
}

// Record loads the persisted state and analysis of one article.
func (r *Repository) Record(ctx context.Context, articleID string) (domain.ProcessingState, *domain.AnalysisRecord, error) {
	stmt, args, err := r.sb.
		Select(colState, colData).
		From(tableNewsItems).
		Where(sq.Eq{colID: articleID}).
		ToSql()
	if err != nil {
		return 0, nil, fmt.Errorf("build record query: %w", err)
	}

	var (
		state int
		data  sql.NullString
	)
	if err := r.db.QueryRowContext(ctx, stmt, args...).Scan(&state, &data); err != nil {
		return 0, nil, fmt.Errorf("query record %s: %w", articleID, err)
	}

	if !data.Valid || data.String == "" {
		return domain.ProcessingState(state), nil, nil
	}

	var record domain.AnalysisRecord
	if err := json.Unmarshal([]byte(data.String), &record); err != nil {
		return 0, nil, fmt.Errorf("decode record %s: %w", articleID, err)
	}
	return domain.ProcessingState(state), &record, nil
}

func countState(state domain.ProcessingState) string {
	return fmt.Sprintf("COALESCE(SUM(CASE WHEN %s = %d THEN 1 ELSE 0 END), 0)", colState, int(state))
}
