package service

import (
	"context"
	"fmt"

	"go-blog-api/internal/model"
)

type CommentStore interface {
	FindByPostID(ctx context.Context, postID int64) ([]model.Comment, error)
	Create(ctx context.Context, comment model.Comment) (model.Comment, error)
}

type CommentService struct {
	comments CommentStore
	posts    PostStore
}

func NewCommentService(comments CommentStore, posts PostStore) *CommentService {
	return &CommentService{comments: comments, posts: posts}
}

func (s *CommentService) GetCommentsByPostID(ctx context.Context, postID int64) ([]model.Comment, error) {
	return s.comments.FindByPostID(ctx, postID)
}

func (s *CommentService) AddComment(ctx context.Context, postID int64, authorID int64, content string) (model.Comment, error) {
	if content == "" {
		return model.Comment{}, fmt.Errorf("%w: content is required", model.ErrInvalidInput)
	}

	if _, err := s.posts.FindByID(ctx, postID); err != nil {
		return model.Comment{}, model.ErrPostNotFound
	}

	return s.comments.Create(ctx, model.Comment{PostID: postID, AuthorID: authorID, Content: content})
}
