package common

// Message is the uniform envelope for non-entity responses. Clients branch
// on the HTTP status; the text is for humans.
type Message struct {
	Message string `json:"message"`
}

// Client-safe response bodies. Infrastructure failures always collapse to
// ServerError so nothing internal leaks.
var (
	MissingParametersError = Message{Message: "missing parameters"}
	WrongParametersError   = Message{Message: "wrong parameters"}
	UnauthorizedError      = Message{Message: "unauthorized"}
	ServerError            = Message{Message: "internal server error"}

	AccountExistsError   = Message{Message: "an account with this email already exists"}
	AccountNotFoundError = Message{Message: "account not found"}

	RatingExistsError   = Message{Message: "rating already exists"}
	RatingNotFoundError = Message{Message: "rating does not exist"}

	PlaceExistsError    = Message{Message: "place already exists"}
	PlaceNotFoundError  = Message{Message: "place does not exist"}
	InvalidPlaceIDError = Message{Message: "invalid place id"}

	RatingCreated  = Message{Message: "rating created"}
	RatingDeleted  = Message{Message: "rating deleted"}
	UserCreated    = Message{Message: "user created"}
	PromotionAdded = Message{Message: "promotion added"}
	ClickRecorded  = Message{Message: "click recorded"}
)
