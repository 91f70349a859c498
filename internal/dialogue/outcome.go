package dialogue

import "github.com/Yates-Labs/beacon/internal/narrative"

// State is a router state. GeneralChat, OutOfScope and Answer are terminal.
type State string

const (
	StateStart       State = "START"
	StateGeneralChat State = "GENERAL_CHAT"
	StateOutOfScope  State = "OUT_OF_SCOPE"
	StateRetrieve    State = "RETRIEVE"
	StateAnswer      State = "ANSWER"
)

// Fixed user-facing messages.
const (
	DeclineMessage = "I don't have enough relevant information to answer your question accurately. Could you please rephrase or ask something else?"
	ApologyMessage = "I apologize, but I encountered an error processing your request. Please try again."
)

// Why a request ended out of scope.
const (
	ReasonNoMatches       = "no_matches"
	ReasonGateClosed      = "gate_closed"
	ReasonRetrievalFailed = "retrieval_failed"
)

// Outcome is the terminal result of routing one request.
type Outcome interface {
	State() State
	Reply() string
}

// GeneralChat is a canned reply to a greeting, thanks or farewell.
type GeneralChat struct {
	Text  string
	Group Group
}

// OutOfScope declines to answer.
type OutOfScope struct {
	Text   string
	Reason string
}

// Grounded is a generated answer with the deduplicated citations it drew on.
type Grounded struct {
	Text         string
	Sources      []string
	SourceURLs   []string
	SourceTitles []string
	Model        string
}

func (o GeneralChat) State() State  { return StateGeneralChat }
func (o GeneralChat) Reply() string { return o.Text }
func (o OutOfScope) State() State   { return StateOutOfScope }
func (o OutOfScope) Reply() string  { return o.Text }
func (o Grounded) State() State     { return StateAnswer }
func (o Grounded) Reply() string    { return o.Text }

// Request is one chat turn from a client.
type Request struct {
	Message string              `json:"message"`
	History []narrative.Message `json:"history,omitempty"`
}

// Response is the transport contract returned to clients.
type Response struct {
	Response      string   `json:"response"`
	Sources       []string `json:"sources,omitempty"`
	SourceURLs    []string `json:"source_urls,omitempty"`
	SourceTitles  []string `json:"source_titles,omitempty"`
	IsGeneralChat bool     `json:"is_general_chat"`
}

// ToResponse renders an outcome for clients.
func ToResponse(o Outcome) Response {
	switch v := o.(type) {
	case GeneralChat:
		return Response{Response: v.Text, IsGeneralChat: true}
	case Grounded:
		return Response{
			Response:     v.Text,
			Sources:      v.Sources,
			SourceURLs:   v.SourceURLs,
			SourceTitles: v.SourceTitles,
		}
	case nil:
		return ErrorResponse()
	default:
		return Response{Response: o.Reply()}
	}
}

// ErrorResponse is what clients see when a request fails.
func ErrorResponse() Response {
	return Response{Response: ApologyMessage}
}
