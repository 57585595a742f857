package events

import "github.com/PredictChain/server/internal/domain/ids"

// Event is a prediction-market question together with its approval state.
type Event struct {
	ID             string
	WalletID       string
	Name           string
	Category       string
	Description    string
	ResolutionDate string
	ImageLink      *string
	EventPublicKey string
	IsApproved     bool
}

// State reports where the event sits in the approval lifecycle.
func (e Event) State() State {
	if e.IsApproved {
		return StateApproved
	}
	return StatePending
}

type State string

const (
	StatePending  State = "pending"
	StateApproved State = "approved"
)

// Submission is the client-supplied part of an event. Pointer fields let
// validation tell an absent field apart from an empty one.
type Submission struct {
	Name           *string `json:"name" validate:"required"`
	Category       *string `json:"category" validate:"required"`
	Description    *string `json:"description" validate:"required"`
	ResolutionDate *string `json:"resolutionDate" validate:"required"`
	ImageLink      *string `json:"imageLink"`
}

// Document is the persisted shape of an Event.
type Document struct {
	ID             string  `bson:"_id" json:"id"`
	WalletID       string  `bson:"wallet_id" json:"wallet_id"`
	Name           string  `bson:"name" json:"name"`
	Category       string  `bson:"category" json:"category"`
	Description    string  `bson:"description" json:"description"`
	ResolutionDate string  `bson:"resolution_date" json:"resolution_date"`
	ImageLink      *string `bson:"image_link" json:"image_link"`
	EventPublicKey string  `bson:"event_public_key" json:"event_public_key"`
	IsApproved     bool    `bson:"is_approved" json:"is_approved"`
}

// Response is the client-facing projection of an Event. Every field is
// always present; imageLink is null when the submitter gave none.
type Response struct {
	ID             string  `json:"id"`
	WalletID       string  `json:"walletId"`
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Description    string  `json:"description"`
	ResolutionDate string  `json:"resolutionDate"`
	ImageLink      *string `json:"imageLink"`
	EventPublicKey string  `json:"eventPublicKey"`
	IsApproved     bool    `json:"isApproved"`
}

// NewFromSubmission builds a pending event owned by walletID with a freshly
// minted id. Descriptive fields are copied verbatim; only their presence is
// checked.
func NewFromSubmission(sub Submission, walletID string) (Event, error) {
	if err := ValidateSubmission(sub); err != nil {
		return Event{}, err
	}
	return Event{
		ID:             ids.NewULID(),
		WalletID:       walletID,
		Name:           *sub.Name,
		Category:       *sub.Category,
		Description:    *sub.Description,
		ResolutionDate: *sub.ResolutionDate,
		ImageLink:      cloneString(sub.ImageLink),
		EventPublicKey: "",
		IsApproved:     false,
	}, nil
}

func ToDocument(e Event) Document {
	return Document{
		ID:             e.ID,
		WalletID:       e.WalletID,
		Name:           e.Name,
		Category:       e.Category,
		Description:    e.Description,
		ResolutionDate: e.ResolutionDate,
		ImageLink:      cloneString(e.ImageLink),
		EventPublicKey: e.EventPublicKey,
		IsApproved:     e.IsApproved,
	}
}

func FromDocument(d Document) Event {
	return Event{
		ID:             d.ID,
		WalletID:       d.WalletID,
		Name:           d.Name,
		Category:       d.Category,
		Description:    d.Description,
		ResolutionDate: d.ResolutionDate,
		ImageLink:      cloneString(d.ImageLink),
		EventPublicKey: d.EventPublicKey,
		IsApproved:     d.IsApproved,
	}
}

func ToResponse(e Event) Response {
	return Response{
		ID:             e.ID,
		WalletID:       e.WalletID,
		Name:           e.Name,
		Category:       e.Category,
		Description:    e.Description,
		ResolutionDate: e.ResolutionDate,
		ImageLink:      cloneString(e.ImageLink),
		EventPublicKey: e.EventPublicKey,
		IsApproved:     e.IsApproved,
	}
}

// ToResponses projects a slice of events, never returning nil so the JSON
// encoding is always an array.
func ToResponses(items []Event) []Response {
	out := make([]Response, 0, len(items))
	for _, item := range items {
		out = append(out, ToResponse(item))
	}
	return out
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
