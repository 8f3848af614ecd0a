package services

import (
	"strings"

	"github.com/anonto42/snapgram/backend/internal/models"
)

const (
	labelBusy   = "Uploading..."
	labelUpload = "Upload"
)

// Pending reports which post mutations of a user are in flight
type Pending struct {
	Create bool `json:"create"`
	Update bool `json:"update"`
}

// Busy is true while any mutation is in flight
func (p Pending) Busy() bool {
	return p.Create || p.Update
}

// PostFormControls derives the buttons of the shared create/edit form.
// Cancel is shown unless both mutations are in flight at once.
func PostFormControls(action models.FormAction, p Pending) models.FormControls {
	controls := models.FormControls{
		SubmitDisabled: p.Create || p.Update,
		ShowCancel:     !p.Create || !p.Update,
		SubmitLabel:    actionLabel(action),
	}
	if p.Busy() {
		controls.SubmitLabel = labelBusy
	}
	return controls
}

// CreatePostFormControls derives the buttons of the dedicated create page.
// Submit stays disabled while an update is in flight too, as Submit refuses it.
func CreatePostFormControls(p Pending) models.FormControls {
	controls := models.FormControls{
		SubmitDisabled: p.Busy(),
		ShowCancel:     !p.Create,
		SubmitLabel:    labelUpload,
	}
	if p.Busy() {
		controls.SubmitLabel = labelBusy
	}
	return controls
}

// PostFormDefaults are the initial field values for post, or empty ones for a new post
func PostFormDefaults(post *models.Post) models.PostFormDefaults {
	defaults := models.PostFormDefaults{File: []string{}}
	if post == nil {
		return defaults
	}
	defaults.Caption = post.Caption
	defaults.Location = post.Location
	defaults.Tags = JoinTags(post.Tags)
	defaults.MediaURL = post.ImageURL
	return defaults
}

func actionLabel(action models.FormAction) string {
	s := string(action)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
