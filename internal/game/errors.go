package game

import "errors"

// Kind buckets rejection reasons so transport can map them uniformly.
type Kind int

const (
	KindValidation Kind = iota
	KindAuthorization
	KindState
	KindIntegrity
	KindInternal
)

// Error is a typed rejection. Every invalid action is refused with one of
// these before any state is touched; none of them is fatal to the process.
type Error struct {
	Code    string
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrNameRequired          = &Error{Code: "NAME_REQUIRED", Kind: KindValidation, Message: "a display name is required"}
	ErrInvalidPlacement      = &Error{Code: "INVALID_PLACEMENT", Kind: KindValidation, Message: "placement names an unknown pan or side"}
	ErrInvalidGuess          = &Error{Code: "INVALID_GUESS", Kind: KindValidation, Message: "guess must assign a weight between 1 and 20 to each of the five colors"}
	ErrTooFewTokens          = &Error{Code: "TOO_FEW_TOKENS", Kind: KindValidation, Message: "a placement must include at least two tokens"}
	ErrNotHost               = &Error{Code: "NOT_HOST", Kind: KindAuthorization, Message: "only the host can start the session"}
	ErrNotYourTurn           = &Error{Code: "NOT_YOUR_TURN", Kind: KindAuthorization, Message: "it is not your turn"}
	ErrSessionNotFound       = &Error{Code: "SESSION_NOT_FOUND", Kind: KindState, Message: "session not found"}
	ErrSessionAlreadyStarted = &Error{Code: "SESSION_ALREADY_STARTED", Kind: KindState, Message: "session has already started"}
	ErrNameTaken             = &Error{Code: "NAME_TAKEN", Kind: KindState, Message: "that name is already taken in this session"}
	ErrNotEnoughPlayers      = &Error{Code: "NOT_ENOUGH_PLAYERS", Kind: KindState, Message: "at least two active players are required"}
	ErrAlreadyStarted        = &Error{Code: "ALREADY_STARTED", Kind: KindState, Message: "session is not waiting to start"}
	ErrWrongPhase            = &Error{Code: "WRONG_PHASE", Kind: KindState, Message: "action is not valid in the session's current phase"}
	ErrNotEligible           = &Error{Code: "NOT_ELIGIBLE", Kind: KindState, Message: "player can no longer place tokens"}
	ErrPanNotBalanced        = &Error{Code: "PAN_NOT_BALANCED", Kind: KindState, Message: "the main pan must be balanced before guessing"}
	ErrUnknownToken          = &Error{Code: "UNKNOWN_TOKEN", Kind: KindIntegrity, Message: "a referenced token is not in the player's inventory"}
	ErrPlayerNotFound        = &Error{Code: "PLAYER_NOT_FOUND", Kind: KindIntegrity, Message: "player is not part of this session"}
	ErrInternal              = &Error{Code: "INTERNAL", Kind: KindInternal, Message: "internal error"}
)

// AsError unwraps err into a typed game error if it is one.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
