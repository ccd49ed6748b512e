// Package cribbage implements the rules of two-player cribbage.
//
// # Scoring
//
// HandScore and ScoreBreakdown score a hand or crib together with the
// starter: fifteens, pairs, runs, flush and nobs. ScorePlay scores a card
// laid during play from the tail of the play stack.
//
// # State machine
//
// Game holds everything both peers need: scores, dealer, the current Round
// with both hands, the crib, the starter and the play stack. Every change
// goes through Game.Apply, whether the Action was taken locally or received
// from the peer, so two peers applying the same actions reach the same state.
// Rule violations are returned as errors and leave the game unchanged.
//
// A round moves through crib selection, play, counting and round complete.
// Reaching 121 points ends the game immediately in any phase.
package cribbage
