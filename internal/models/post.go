package models

import (
	"time"
)

// Post represents a social media post stored as a document in the backend
type Post struct {
	ID        string    `json:"id"`
	Creator   string    `json:"creator"` // User document ID of the author
	Caption   string    `json:"caption"`
	ImageURL  string    `json:"imageUrl"`
	ImageID   string    `json:"imageId"` // Storage file ID backing ImageURL
	Location  string    `json:"location,omitempty"`
	Tags      []string  `json:"tags"`
	Likes     []string  `json:"likes"` // User document IDs
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasImage reports whether the post references an uploaded file
func (p *Post) HasImage() bool {
	return p.ImageID != ""
}

// LikedBy reports whether userID is in the post's likes
func (p *Post) LikedBy(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// NewPost is the write payload for a post document
type NewPost struct {
	Creator  string
	Caption  string
	ImageURL string
	ImageID  string
	Location string
	Tags     []string
}

// UpdatePost is the write payload for an existing post document
type UpdatePost struct {
	PostID   string
	Caption  string
	ImageURL string
	ImageID  string
	Location string
	Tags     []string
}

// Save represents a bookmark of a post by a user
type Save struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Post      string    `json:"post"`
	CreatedAt time.Time `json:"createdAt"`
}

// LikeResponse is returned after toggling a like
type LikeResponse struct {
	PostID string   `json:"postId"`
	Liked  bool     `json:"liked"`
	Likes  []string `json:"likes"`
}
