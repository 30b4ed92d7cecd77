package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-blog-api/internal/model"
)

type PostRepository struct {
	pool *pgxpool.Pool
}

func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{pool: pool}
}

func (r *PostRepository) FindAll(ctx context.Context) ([]model.Post, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, content, author_id, created_at, updated_at
		 FROM posts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

func (r *PostRepository) FindByID(ctx context.Context, id int64) (model.Post, error) {
	var p model.Post
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, content, author_id, created_at, updated_at
		 FROM posts WHERE id = $1`, id).
		Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Post{}, model.ErrPostNotFound
	}
	if err != nil {
		return model.Post{}, fmt.Errorf("find post: %w", err)
	}
	return p, nil
}

func (r *PostRepository) SearchByTitle(ctx context.Context, keyword string) ([]model.Post, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, content, author_id, created_at, updated_at
		 FROM posts WHERE title ILIKE '%' || $1 || '%' ORDER BY created_at DESC`, keyword)
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

func (r *PostRepository) Create(ctx context.Context, p model.Post) (model.Post, error) {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	err := r.pool.QueryRow(ctx,
		`INSERT INTO posts (title, content, author_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		p.Title, p.Content, p.AuthorID, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
	if err != nil {
		return model.Post{}, fmt.Errorf("create post: %w", err)
	}
	return p, nil
}

func scanPosts(rows pgx.Rows) ([]model.Post, error) {
	posts := make([]model.Post, 0)
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
