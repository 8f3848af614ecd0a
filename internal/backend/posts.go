package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/snapgram/backend/internal/models"
	"go.uber.org/zap"
)

// RecentPostsLimit caps the home feed
const RecentPostsLimit = 20

// CreatePostDocument writes a new post document
func (b *Backend) CreatePostDocument(ctx context.Context, post models.NewPost) (*models.Post, error) {
	const op = "createPost"

	doc, err := b.db.CreateDocument(ctx, b.cfg.PostsCollectionID, b.newID(), map[string]any{
		fieldCreator:  post.Creator,
		fieldCaption:  post.Caption,
		fieldImageURL: post.ImageURL,
		fieldImageID:  post.ImageID,
		fieldLocation: post.Location,
		fieldTags:     post.Tags,
		fieldLikes:    []string{},
	})
	if err != nil {
		return nil, b.fail(op, err, zap.String("creator", post.Creator), zap.String("image_id", post.ImageID))
	}

	created := postFromDocument(doc)
	b.indexPost(ctx, created)
	return created, nil
}

// UpdatePostDocument overwrites the editable fields of an existing post
func (b *Backend) UpdatePostDocument(ctx context.Context, post models.UpdatePost) (*models.Post, error) {
	const op = "updatePost"

	doc, err := b.db.UpdateDocument(ctx, b.cfg.PostsCollectionID, post.PostID, map[string]any{
		fieldCaption:  post.Caption,
		fieldImageURL: post.ImageURL,
		fieldImageID:  post.ImageID,
		fieldLocation: post.Location,
		fieldTags:     post.Tags,
	})
	if err != nil {
		return nil, b.fail(op, err, zap.String("post_id", post.PostID))
	}

	updated := postFromDocument(doc)
	b.indexPost(ctx, updated)
	return updated, nil
}

// GetPostByID fetches a single post
func (b *Backend) GetPostByID(ctx context.Context, postID string) (*models.Post, error) {
	const op = "getPostById"

	doc, err := b.db.GetDocument(ctx, b.cfg.PostsCollectionID, postID)
	if err != nil {
		return nil, b.fail(op, err, zap.String("post_id", postID))
	}
	return postFromDocument(doc), nil
}

// DeletePost removes a post document and then its image
func (b *Backend) DeletePost(ctx context.Context, postID, imageID string) error {
	const op = "deletePost"

	if err := b.db.DeleteDocument(ctx, b.cfg.PostsCollectionID, postID); err != nil {
		return b.fail(op, err, zap.String("post_id", postID))
	}
	if imageID != "" {
		// the document is gone either way; a leftover file is only logged
		_ = b.DeleteFile(ctx, imageID)
	}
	if b.index != nil {
		if err := b.index.Remove(ctx, postID); err != nil {
			b.logger.Warn("remove post from index", zap.String("post_id", postID), zap.Error(err))
		}
	}
	return nil
}

// LikePost replaces the likes list of a post
func (b *Backend) LikePost(ctx context.Context, postID string, likes []string) (*models.Post, error) {
	const op = "likePost"

	if likes == nil {
		likes = []string{}
	}
	doc, err := b.db.UpdateDocument(ctx, b.cfg.PostsCollectionID, postID, map[string]any{
		fieldLikes: likes,
	})
	if err != nil {
		return nil, b.fail(op, err, zap.String("post_id", postID))
	}
	return postFromDocument(doc), nil
}

// SavePost bookmarks a post for a user
func (b *Backend) SavePost(ctx context.Context, userID, postID string) (*models.Save, error) {
	const op = "savePost"

	doc, err := b.db.CreateDocument(ctx, b.cfg.SavesCollectionID, b.newID(), map[string]any{
		fieldUser: userID,
		fieldPost: postID,
	})
	if err != nil {
		return nil, b.fail(op, err, zap.String("user_id", userID), zap.String("post_id", postID))
	}
	return saveFromDocument(doc), nil
}

// GetSave fetches a bookmark
func (b *Backend) GetSave(ctx context.Context, saveID string) (*models.Save, error) {
	const op = "getSave"

	doc, err := b.db.GetDocument(ctx, b.cfg.SavesCollectionID, saveID)
	if err != nil {
		return nil, b.fail(op, err, zap.String("save_id", saveID))
	}
	return saveFromDocument(doc), nil
}

// DeleteSavedPost removes a bookmark
func (b *Backend) DeleteSavedPost(ctx context.Context, saveID string) error {
	const op = "deleteSavedPost"

	if err := b.db.DeleteDocument(ctx, b.cfg.SavesCollectionID, saveID); err != nil {
		return b.fail(op, err, zap.String("save_id", saveID))
	}
	return nil
}

// GetRecentPosts lists the newest posts for the home feed
func (b *Backend) GetRecentPosts(ctx context.Context) ([]models.Post, error) {
	const op = "getRecentPosts"

	docs, err := b.db.ListDocuments(ctx, b.cfg.PostsCollectionID,
		OrderDesc(FieldCreatedAt),
		Limit(RecentPostsLimit),
	)
	if err != nil {
		return nil, b.fail(op, err)
	}

	posts := make([]models.Post, 0, len(docs))
	for i := range docs {
		posts = append(posts, *postFromDocument(&docs[i]))
	}
	return posts, nil
}

// SearchPosts looks term up in the post index and loads the matching posts
func (b *Backend) SearchPosts(ctx context.Context, term string) ([]models.Post, error) {
	const op = "searchPosts"

	if b.index == nil {
		return nil, b.fail(op, fmt.Errorf("post index not configured: %w", ErrUnavailable))
	}

	ids, err := b.index.Search(ctx, term, RecentPostsLimit)
	if err != nil {
		return nil, b.fail(op, err, zap.String("term", term))
	}

	posts := make([]models.Post, 0, len(ids))
	for _, id := range ids {
		doc, err := b.db.GetDocument(ctx, b.cfg.PostsCollectionID, id)
		if errors.Is(err, ErrNotFound) {
			b.logger.Debug("indexed post missing", zap.String("post_id", id))
			continue
		}
		if err != nil {
			return nil, b.fail(op, err, zap.String("post_id", id))
		}
		posts = append(posts, *postFromDocument(doc))
	}
	return posts, nil
}

func (b *Backend) indexPost(ctx context.Context, post *models.Post) {
	if b.index == nil {
		return
	}
	if err := b.index.Index(ctx, post); err != nil {
		b.logger.Warn("index post", zap.String("post_id", post.ID), zap.Error(err))
	}
}
