package nav

import "reci/internal/model"

// Event is an external trigger consumed by Machine.Apply.
type Event interface {
	event()
}

type (
	// Init performs the one-time session start.
	Init struct{}
	// RequestAdd opens a blank draft.
	RequestAdd struct{}
	// RequestClose closes the pane and pops the history entry.
	RequestClose struct{}
	// Back closes the pane after the history entry was already consumed.
	Back struct{}
	// RequestRead opens the recipe with ID.
	RequestRead struct{ ID model.RecipeID }

	// SubmissionSucceeded carries the created recipe and the draft
	// generation the submission was started from.
	SubmissionSucceeded struct {
		Recipe     model.Recipe
		Generation uint64
	}
	// SubmissionFailed carries the user-facing message.
	SubmissionFailed struct {
		Message    string
		Generation uint64
	}

	EditTitle       struct{ Text string }
	EditDescription struct{ Text string }
	EditStep        struct {
		Index int
		Text  string
	}
	AddStep        struct{}
	RemoveLastStep struct{}

	// AttachImages records an intake result. An incomplete pair resets the
	// draft to the default MIME type.
	AttachImages struct {
		Images   model.RecipeImages
		MimeType model.MimeType
	}
	ClearImages struct{}
)

func (Init) event()                {}
func (RequestAdd) event()          {}
func (RequestClose) event()        {}
func (Back) event()                {}
func (RequestRead) event()         {}
func (SubmissionSucceeded) event() {}
func (SubmissionFailed) event()    {}
func (EditTitle) event()           {}
func (EditDescription) event()     {}
func (EditStep) event()            {}
func (AddStep) event()             {}
func (RemoveLastStep) event()      {}
func (AttachImages) event()        {}
func (ClearImages) event()         {}

// Effect is a side effect requested by a transition. The caller performs it.
type Effect interface {
	effect()
}

// Level is the tone of a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarn
)

type (
	// PushHistory records a navigable entry with the displayed path segment.
	PushHistory struct{ Path string }
	// PopHistory removes the newest entry.
	PopHistory struct{}
	// ArmNotification shows a one-shot notification.
	ArmNotification struct {
		Text  string
		Level Level
	}
	// FetchPage requests the next page at the store's current cursor.
	FetchPage struct{}
)

func (PushHistory) effect()     {}
func (PopHistory) effect()      {}
func (ArmNotification) effect() {}
func (FetchPage) effect()       {}
