package model

// Bubble Tea message types

// PageLoadedMsg is sent when a page fetch completes. Cursor is the cursor
// the request was made with.
type PageLoadedMsg struct {
	Cursor string
	Page   Page
}

// PageFailedMsg is sent when a page fetch fails.
type PageFailedMsg struct {
	Cursor string
	Err    error
}

// SubmissionDoneMsg is sent when the create call and its uploads finish.
type SubmissionDoneMsg struct {
	Generation uint64
	Recipe     Recipe
	// Warning is non-empty when an upload failed after the recipe was saved.
	Warning string
}

// SubmissionFailedMsg is sent when the backend refuses a draft.
type SubmissionFailedMsg struct {
	Generation uint64
	Message    string
	Err        error
}

// ToastExpiredMsg clears the notification with the matching ID.
type ToastExpiredMsg struct {
	ID int
}

// SubmitCooldownDoneMsg re-enables the submit action.
type SubmitCooldownDoneMsg struct{}

// PageCooldownDoneMsg re-enables the load-more action.
type PageCooldownDoneMsg struct{}

// PreviewMsg carries a rendered thumbnail.
type PreviewMsg struct {
	URL string
	Art string
	Err error
}

// AttachmentMsg is sent when an image file has been read and resized.
type AttachmentMsg struct {
	Path   string
	Images RecipeImages
	Mime   MimeType
	Err    error
}

// Screen represents different app screens.
type Screen int

const (
	ScreenRecipes Screen = iota
	ScreenRecipeDetail
	ScreenRecipeForm
)
