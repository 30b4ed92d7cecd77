package service

import (
	"context"
	"fmt"

	"go-blog-api/internal/model"
)

type PostStore interface {
	FindAll(ctx context.Context) ([]model.Post, error)
	FindByID(ctx context.Context, id int64) (model.Post, error)
	SearchByTitle(ctx context.Context, keyword string) ([]model.Post, error)
	Create(ctx context.Context, post model.Post) (model.Post, error)
}

type PostService struct {
	posts PostStore
}

func NewPostService(posts PostStore) *PostService {
	return &PostService{posts: posts}
}

func (s *PostService) GetAllPosts(ctx context.Context) ([]model.Post, error) {
	return s.posts.FindAll(ctx)
}

func (s *PostService) SearchPosts(ctx context.Context, keyword string) ([]model.Post, error) {
	return s.posts.SearchByTitle(ctx, keyword)
}

func (s *PostService) CreatePost(ctx context.Context, authorID int64, title string, content string) (model.Post, error) {
	if title == "" {
		return model.Post{}, fmt.Errorf("%w: title is required", model.ErrInvalidInput)
	}

	return s.posts.Create(ctx, model.Post{Title: title, Content: content, AuthorID: authorID})
}
