package cribbage

import "errors"

// Rule violations. They are returned by Game.Apply and never leave the game
// in a partially updated state.
var (
	ErrWrongPhase           = errors.New("action not allowed in the current phase")
	ErrNotYourTurn          = errors.New("not your turn")
	ErrIllegalPlay          = errors.New("illegal play: count would exceed 31")
	ErrCardNotInHand        = errors.New("card not in hand")
	ErrInvalidCribSelection = errors.New("crib selection must be exactly 2 distinct cards")
	ErrAlreadyConfirmed     = errors.New("crib selection already confirmed")
	ErrHasLegalPlay         = errors.New("cannot call go with a legal play in hand")
	ErrOverclaim            = errors.New("declared score exceeds the hand value")
	ErrInvalidClaim         = errors.New("invalid muggins claim")
	ErrGameOver             = errors.New("game is over")
	ErrUnknownAction        = errors.New("unknown action")
)
