package models

// FormAction selects which mutation a post form submits
type FormAction string

const (
	ActionCreate FormAction = "create"
	ActionUpdate FormAction = "update"
)

// PostForm holds the submitted fields of the create/edit post form
type PostForm struct {
	Action   FormAction `json:"-" validate:"required,oneof=create update"`
	Caption  string     `json:"caption" form:"caption" validate:"required,min=5,max=2200"`
	Files    []Upload   `json:"file" form:"-" validate:"required_if=Action create,max=1"`
	Location string     `json:"location" form:"location" validate:"max=1000"`
	Tags     string     `json:"tags" form:"tags" validate:"max=2200"`
}

// PostFormDefaults are the initial values rendered into a post form
type PostFormDefaults struct {
	Caption  string   `json:"caption"`
	File     []string `json:"file"`
	Location string   `json:"location"`
	Tags     string   `json:"tags"`
	MediaURL string   `json:"mediaUrl,omitempty"`
}

// FormControls describe the state of the form's buttons
type FormControls struct {
	SubmitDisabled bool   `json:"submitDisabled"`
	SubmitLabel    string `json:"submitLabel"`
	ShowCancel     bool   `json:"showCancel"`
}

// PostFormView is everything a client needs to render a post form
type PostFormView struct {
	Action   FormAction       `json:"action"`
	PostID   string           `json:"postId,omitempty"`
	Defaults PostFormDefaults `json:"defaults"`
	Controls FormControls     `json:"controls"`
}
