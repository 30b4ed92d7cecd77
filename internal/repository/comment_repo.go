package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"go-blog-api/internal/model"
)

type CommentRepository struct {
	pool *pgxpool.Pool
}

func NewCommentRepository(pool *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{pool: pool}
}

func (r *CommentRepository) FindByPostID(ctx context.Context, postID int64) ([]model.Comment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, post_id, author_id, content, created_at
		 FROM comments WHERE post_id = $1 ORDER BY created_at`, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]model.Comment, 0)
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *CommentRepository) Create(ctx context.Context, c model.Comment) (model.Comment, error) {
	c.CreatedAt = time.Now().UTC()

	err := r.pool.QueryRow(ctx,
		`INSERT INTO comments (post_id, author_id, content, created_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		c.PostID, c.AuthorID, c.Content, c.CreatedAt).Scan(&c.ID)
	if err != nil {
		return model.Comment{}, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}
