package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/luca-patrignani/cribbage/domain/cribbage"
)

var ErrReplayDiverged = errors.New("replay diverged from recorded digest")

type Blockchain struct {
	mu     sync.RWMutex
	blocks []Block
}

// NewBlockchain creates a chain whose genesis block records the session id
// and the digest of the initial game.
func NewBlockchain(sessionID string, genesisDigest string) *Blockchain {
	bc := &Blockchain{blocks: make([]Block, 0, 64)}
	genesis := Block{
		Index:     0,
		Timestamp: time.Now().UnixMilli(),
		PrevHash:  "0",
		Origin:    OriginGenesis,
		Digest:    genesisDigest,
		Metadata:  Metadata{SessionID: sessionID},
	}
	genesis.Hash = calculateHash(genesis)
	bc.blocks = append(bc.blocks, genesis)
	return bc
}

// Append records an applied action together with the resulting digest.
// extra optionally carries contextual information such as a desync reason.
func (bc *Blockchain) Append(round int, origin Origin, a *cribbage.Action, messageID, digest string, awards []cribbage.Award, extra ...map[string]string) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	var extraMsg map[string]string
	if len(extra) > 0 {
		extraMsg = extra[0]
	}
	latest := bc.blocks[len(bc.blocks)-1]
	block := Block{
		Index:     latest.Index + 1,
		Timestamp: time.Now().UnixMilli(),
		PrevHash:  latest.Hash,
		Round:     round,
		Origin:    origin,
		Action:    a,
		MessageID: messageID,
		Digest:    digest,
		Metadata: Metadata{
			Awards: awards,
			Extra:  extraMsg,
		},
	}
	block.Hash = calculateHash(block)

	if err := validateBlock(block, latest); err != nil {
		return fmt.Errorf("invalid block: %w", err)
	}
	bc.blocks = append(bc.blocks, block)
	return nil
}

// GetLatest returns the most recently added block.
func (bc *Blockchain) GetLatest() (Block, error) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	if len(bc.blocks) == 0 {
		return Block{}, fmt.Errorf("blockchain is empty")
	}
	return bc.blocks[len(bc.blocks)-1], nil
}

// GetByIndex retrieves a block by its index in the chain.
func (bc *Blockchain) GetByIndex(index int) (Block, error) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	if index < 0 || index >= len(bc.blocks) {
		return Block{}, fmt.Errorf("index %d out of range", index)
	}
	return bc.blocks[index], nil
}

func (bc *Blockchain) Len() int {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return len(bc.blocks)
}

// Blocks returns a copy of the chain.
func (bc *Blockchain) Blocks() []Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return append([]Block(nil), bc.blocks...)
}

// Verify checks the genesis block and, for every following block, index
// continuity, the link to the previous hash and the block's own hash.
func (bc *Blockchain) Verify() error {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	if len(bc.blocks) == 0 {
		return fmt.Errorf("empty blockchain")
	}
	if bc.blocks[0].PrevHash != "0" || bc.blocks[0].Origin != OriginGenesis {
		return fmt.Errorf("invalid genesis block")
	}
	for i := 1; i < len(bc.blocks); i++ {
		if err := validateBlock(bc.blocks[i], bc.blocks[i-1]); err != nil {
			return fmt.Errorf("block %d invalid: %w", i, err)
		}
	}
	return nil
}

// Replay applies the recorded actions to a new game and checks that every
// transition reproduces the recorded digest. It stops at the first state
// adopted from the peer, since what preceded it cannot be replayed.
func (bc *Blockchain) Replay(opts cribbage.Options) (*cribbage.Game, error) {
	if err := bc.Verify(); err != nil {
		return nil, err
	}
	g := cribbage.NewGame(opts)
	for _, b := range bc.Blocks()[1:] {
		if b.Origin == OriginSync {
			break
		}
		if b.Action == nil {
			return nil, fmt.Errorf("block %d has no action", b.Index)
		}
		if _, err := g.Apply(*b.Action); err != nil {
			return nil, fmt.Errorf("block %d: %w", b.Index, err)
		}
		if d := g.Digest(); d != b.Digest {
			return nil, fmt.Errorf("%w at block %d: %s != %s", ErrReplayDiverged, b.Index, d, b.Digest)
		}
	}
	return g, nil
}

// MarshalJSON exports the whole chain, e.g. to save an audit trail.
func (bc *Blockchain) MarshalJSON() ([]byte, error) {
	return json.Marshal(bc.Blocks())
}

func validateBlock(current, previous Block) error {
	if current.Index != previous.Index+1 {
		return fmt.Errorf("invalid index: expected %d, got %d", previous.Index+1, current.Index)
	}
	if current.PrevHash != previous.Hash {
		return fmt.Errorf("invalid prev hash: expected %s, got %s", previous.Hash, current.PrevHash)
	}
	if expected := calculateHash(current); current.Hash != expected {
		return fmt.Errorf("invalid hash: expected %s, got %s", expected, current.Hash)
	}
	if current.Origin != OriginSync && current.Action == nil {
		return fmt.Errorf("block without action")
	}
	return nil
}

// calculateHash hashes every field of the block but the hash itself.
func calculateHash(block Block) string {
	actionBytes, _ := json.Marshal(block.Action)
	metaBytes, _ := json.Marshal(block.Metadata)

	data := fmt.Sprintf("%d|%d|%s|%d|%s|%s|%s|%s|%s",
		block.Index,
		block.Timestamp,
		block.PrevHash,
		block.Round,
		block.Origin,
		string(actionBytes),
		block.MessageID,
		block.Digest,
		string(metaBytes),
	)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
