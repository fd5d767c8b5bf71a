// Package nav is the view/action state machine: the one place that decides
// what the catalog shows and which recipe is active.
package nav

import (
	"reci/internal/draft"
	"reci/internal/model"
	"reci/internal/store"
)

// State is what the detail pane is showing.
type State int

const (
	StateUninitialized State = iota
	StateClosed
	StateAdding
	StateViewing
	// StateUpdated is entered and left within a single successful submission.
	StateUpdated
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateAdding:
		return "adding"
	case StateViewing:
		return "viewing"
	case StateUpdated:
		return "updated"
	default:
		return "uninitialized"
	}
}

// Open reports whether the detail pane is shown.
func (s State) Open() bool {
	return s == StateAdding || s == StateViewing
}

// AddPath is the history segment pushed when a draft is opened.
const AddPath = "add-recipe"

// SavedMessage is the notification armed after a successful submission.
const SavedMessage = "Your recipe has been saved. Thank you for your contribution!"

// Machine is the view state. Values are immutable from the caller's point of
// view: Apply returns the successor.
type Machine struct {
	store      *store.Store
	state      State
	active     model.Recipe
	images     model.RecipeImages
	generation uint64
}

// New returns an uninitialized machine reading from and merging into st.
func New(st *store.Store) Machine {
	return Machine{
		store:  st,
		active: model.BlankRecipe(),
	}
}

func (m Machine) State() State               { return m.state }
func (m Machine) Active() model.Recipe       { return m.active.Clone() }
func (m Machine) Images() model.RecipeImages { return m.images }
func (m Machine) Generation() uint64         { return m.generation }
func (m Machine) Store() *store.Store        { return m.store }

// ActiveID returns the id of the recipe being viewed, or "" for a draft.
func (m Machine) ActiveID() model.RecipeID {
	return m.active.ID
}

// Apply runs one transition. Events whose precondition does not hold leave
// the machine unchanged and produce no effects.
func (m Machine) Apply(ev Event) (Machine, []Effect) {
	switch ev := ev.(type) {
	case Init:
		if m.state != StateUninitialized {
			return m, nil
		}
		m.state = StateClosed
		return m, []Effect{FetchPage{}}

	case RequestAdd:
		if m.state != StateClosed {
			return m, nil
		}
		m.state = StateAdding
		m.active = model.BlankRecipe()
		m.images = model.RecipeImages{}
		m.generation++
		return m, []Effect{PushHistory{Path: AddPath}}

	case RequestClose:
		if !m.state.Open() {
			return m, nil
		}
		m = m.close()
		return m, []Effect{PopHistory{}}

	case Back:
		if !m.state.Open() {
			return m, nil
		}
		return m.close(), nil

	case RequestRead:
		if m.state != StateClosed {
			return m, nil
		}
		r, ok := m.store.Get(ev.ID)
		if !ok {
			return m, nil
		}
		m.state = StateViewing
		m.active = r
		return m, []Effect{PushHistory{Path: Slug(r.Title)}}

	case SubmissionSucceeded:
		merged := m.store.MergeCreatedRecipe(ev.Recipe)
		if !merged || m.state != StateAdding || ev.Generation != m.generation {
			return m, nil
		}
		m.state = StateUpdated
		m = m.close()
		return m, []Effect{PopHistory{}, ArmNotification{Text: SavedMessage, Level: LevelSuccess}}

	case SubmissionFailed:
		if m.state != StateAdding || ev.Generation != m.generation {
			return m, nil
		}
		return m, []Effect{ArmNotification{Text: ev.Message, Level: LevelWarn}}

	case EditTitle:
		if m.state != StateAdding {
			return m, nil
		}
		m.active.Title = ev.Text
		return m, nil

	case EditDescription:
		if m.state != StateAdding {
			return m, nil
		}
		m.active.Description = ev.Text
		return m, nil

	case EditStep:
		if m.state != StateAdding || ev.Index < 0 || ev.Index >= len(m.active.Steps) {
			return m, nil
		}
		m.active.Steps = draft.SetStep(m.active.Steps, ev.Index, ev.Text)
		return m, nil

	case AddStep:
		if m.state != StateAdding {
			return m, nil
		}
		m.active.Steps = draft.AddStep(m.active.Steps)
		return m, nil

	case RemoveLastStep:
		if m.state != StateAdding || len(m.active.Steps) == 0 {
			return m, nil
		}
		m.active.Steps = draft.RemoveLastStep(m.active.Steps)
		return m, nil

	case AttachImages:
		if m.state != StateAdding {
			return m, nil
		}
		if !ev.Images.Complete() || !ev.MimeType.Valid() {
			m.images = model.RecipeImages{}
			m.active.MimeType = model.DefaultMimeType
			return m, nil
		}
		m.images = ev.Images
		m.active.MimeType = ev.MimeType
		return m, nil

	case ClearImages:
		if m.state != StateAdding {
			return m, nil
		}
		m.images = model.RecipeImages{}
		m.active.MimeType = model.DefaultMimeType
		return m, nil
	}
	return m, nil
}

func (m Machine) close() Machine {
	m.state = StateClosed
	m.active = model.BlankRecipe()
	m.images = model.RecipeImages{}
	return m
}
