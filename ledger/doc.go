// Package ledger keeps a tamper-evident log of every transition applied
// to a game, local or received from the peer.
//
// # Core Components
//
// Blockchain: an append-only list of blocks chained by SHA-256 hashes.
//
// Block: one applied action with its origin, the id of the message that
// carried it, the points it awarded and the game digest after it.
//
// # Properties
//
//   - Verifiability: Verify walks the chain and detects any edited block
//   - Auditability: Replay re-runs the actions on a fresh game and checks
//     each recorded digest, so two peers can compare their histories
//
// # Usage
//
// A session creates the chain when the game starts and appends a block
// after each successful Game.Apply. The chain is not shared with the peer.
package ledger
