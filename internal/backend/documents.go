package backend

import (
	"fmt"

	"github.com/anonto42/snapgram/backend/internal/models"
)

// Document field names shared by every driver
const (
	fieldAccountID = "accountId"
	fieldName      = "name"
	fieldEmail     = "email"
	fieldUsername  = "username"
	fieldImageURL  = "imageUrl"
	fieldImageID   = "imageId"
	fieldCreator   = "creator"
	fieldCaption   = "caption"
	fieldLocation  = "location"
	fieldTags      = "tags"
	fieldLikes     = "likes"
	fieldUser      = "user"
	fieldPost      = "post"
)

func userFields(u models.User) map[string]any {
	return map[string]any{
		fieldAccountID: u.AccountID,
		fieldName:      u.Name,
		fieldEmail:     u.Email,
		fieldUsername:  u.Username,
		fieldImageURL:  u.ImageURL,
	}
}

func userFromDocument(doc *Document) *models.User {
	return &models.User{
		ID:        doc.ID,
		AccountID: stringField(doc.Fields, fieldAccountID),
		Name:      stringField(doc.Fields, fieldName),
		Email:     stringField(doc.Fields, fieldEmail),
		Username:  stringField(doc.Fields, fieldUsername),
		ImageURL:  stringField(doc.Fields, fieldImageURL),
	}
}

func postFromDocument(doc *Document) *models.Post {
	return &models.Post{
		ID:        doc.ID,
		Creator:   stringField(doc.Fields, fieldCreator),
		Caption:   stringField(doc.Fields, fieldCaption),
		ImageURL:  stringField(doc.Fields, fieldImageURL),
		ImageID:   stringField(doc.Fields, fieldImageID),
		Location:  stringField(doc.Fields, fieldLocation),
		Tags:      stringsField(doc.Fields, fieldTags),
		Likes:     stringsField(doc.Fields, fieldLikes),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func saveFromDocument(doc *Document) *models.Save {
	return &models.Save{
		ID:        doc.ID,
		User:      stringField(doc.Fields, fieldUser),
		Post:      stringField(doc.Fields, fieldPost),
		CreatedAt: doc.CreatedAt,
	}
}

func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func stringsField(fields map[string]any, key string) []string {
	switch v := fields[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}
