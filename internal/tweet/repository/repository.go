package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/featherline/backend/internal/common/db"
	"github.com/featherline/backend/internal/tweet/domain"
)

var ErrTweetNotFound = errors.New("tweet not found")

type Repository interface {
	List(ctx context.Context) ([]domain.AnnotatedTweet, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Tweet, error)
	FindByID(ctx context.Context, id int64) (domain.Tweet, error)
	Create(ctx context.Context, userID, message string) (domain.Tweet, error)
	UpdateMessage(ctx context.Context, id int64, message string) (domain.Tweet, error)
	Delete(ctx context.Context, id int64) error
}

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) List(ctx context.Context) ([]domain.AnnotatedTweet, error) {
	start := time.Now()
	rows, err := r.pool.Query(
		ctx,
		`SELECT t.id, t.message, t.user_id, t.created_at, t.updated_at, u.username
		 FROM tweets t
		 JOIN users u ON u.id = t.user_id
		 ORDER BY t.created_at DESC`,
	)
	if err != nil {
		return nil, db.HandleQueryError(err, ErrTweetNotFound, "list tweets", start)
	}
	defer rows.Close()

	tweets := make([]domain.AnnotatedTweet, 0)
	for rows.Next() {
		var t domain.AnnotatedTweet
		if err := rows.Scan(&t.ID, &t.Message, &t.UserID, &t.CreatedAt, &t.UpdatedAt, &t.Username); err != nil {
			return nil, db.HandleQueryError(err, ErrTweetNotFound, "scan tweet row", start)
		}
		tweets = append(tweets, t)
	}

	return tweets, db.HandleQueryError(rows.Err(), ErrTweetNotFound, "list tweets", start)
}

func (r *PgRepository) ListByUser(ctx context.Context, userID string) ([]domain.Tweet, error) {
	start := time.Now()
	rows, err := r.pool.Query(
		ctx,
		`SELECT id, message, user_id, created_at, updated_at
		 FROM tweets
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, db.HandleQueryError(err, ErrTweetNotFound, "list tweets by user", start)
	}
	defer rows.Close()

	tweets := make([]domain.Tweet, 0)
	for rows.Next() {
		var t domain.Tweet
		if err := rows.Scan(&t.ID, &t.Message, &t.UserID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, db.HandleQueryError(err, ErrTweetNotFound, "scan tweet row", start)
		}
		tweets = append(tweets, t)
	}

	return tweets, db.HandleQueryError(rows.Err(), ErrTweetNotFound, "list tweets by user", start)
}

func (r *PgRepository) FindByID(ctx context.Context, id int64) (domain.Tweet, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`SELECT id, message, user_id, created_at, updated_at FROM tweets WHERE id = $1`,
		id,
	)

	var t domain.Tweet
	err := row.Scan(&t.ID, &t.Message, &t.UserID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.Tweet{}, db.HandleQueryError(err, ErrTweetNotFound, "find tweet by id", start)
	}

	return t, nil
}

func (r *PgRepository) Create(ctx context.Context, userID, message string) (domain.Tweet, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO tweets (message, user_id) VALUES ($1, $2)
		 RETURNING id, message, user_id, created_at, updated_at`,
		message,
		userID,
	)

	var t domain.Tweet
	err := row.Scan(&t.ID, &t.Message, &t.UserID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.Tweet{}, db.HandleQueryError(err, ErrTweetNotFound, "create tweet", start)
	}

	return t, nil
}

// UpdateMessage replaces only the message; owner and creation time are
// immutable.
func (r *PgRepository) UpdateMessage(ctx context.Context, id int64, message string) (domain.Tweet, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`UPDATE tweets SET message = $1, updated_at = now() WHERE id = $2
		 RETURNING id, message, user_id, created_at, updated_at`,
		message,
		id,
	)

	var t domain.Tweet
	err := row.Scan(&t.ID, &t.Message, &t.UserID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.Tweet{}, db.HandleQueryError(err, ErrTweetNotFound, "update tweet", start)
	}

	return t, nil
}

func (r *PgRepository) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	tag, err := r.pool.Exec(ctx, `DELETE FROM tweets WHERE id = $1`, id)
	if err != nil {
		return db.HandleExecError(err, "delete tweet", start)
	}
	if tag.RowsAffected() == 0 {
		return ErrTweetNotFound
	}
	return db.HandleExecError(nil, "delete tweet", start)
}
