// Package deck implements the cards and the deterministic deck used by both
// peers of a cribbage game.
//
// # Cards
//
// Card is an immutable value with a suit and a rank. It is encoded on the
// wire as {"suit":"hearts","rank":"10"} and can be parsed from the short
// notation used on the command line ("10h", "Js", "A♣").
//
// # Shuffling
//
// Peers never exchange the deck. The host publishes a Seed and every peer
// builds the standard deck and shuffles it with Shuffle. The permutation is
// a Fisher-Yates pass whose indices are read from the extendable output
// function of the Ed25519 suite, so equal seeds produce equal decks on any
// platform.
package deck
