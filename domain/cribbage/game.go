package cribbage

import (
	"fmt"

	"github.com/luca-patrignani/cribbage/domain/deck"
)

// Game is the whole state of a two-player game. Both peers hold an identical
// copy, hands included, and keep it identical by applying the same actions.
type Game struct {
	Options Options   `json:"options"`
	Seed    deck.Seed `json:"seed"`
	Phase   Phase     `json:"phase"`
	Dealer  Seat      `json:"dealer"`
	Scores  [2]int    `json:"scores"`
	Winner  *Seat     `json:"winner,omitempty"`
	Round   Round     `json:"round"`
}

// NewGame returns a game waiting for its seed.
func NewGame(opts Options) *Game {
	return &Game{Options: opts, Phase: PhaseDeal}
}

// Clone returns a deep copy of g.
func (g *Game) Clone() *Game {
	c := *g
	if g.Winner != nil {
		w := *g.Winner
		c.Winner = &w
	}
	c.Round = g.Round.clone()
	return &c
}

// Apply is the only transition of the state machine. On error the game is
// left untouched.
func (g *Game) Apply(a Action) (Outcome, error) {
	next := g.Clone()
	out := Outcome{Action: a, From: g.Phase}
	if err := next.apply(a, &out); err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", a.Kind, err)
	}
	out.To = next.Phase
	*g = *next
	return out, nil
}

func (g *Game) apply(a Action, out *Outcome) error {
	if a.Seat > Guest {
		return fmt.Errorf("invalid seat %d", a.Seat)
	}
	if g.Phase == PhaseGameOver {
		return ErrGameOver
	}
	switch a.Kind {
	case ActionStartGame:
		return g.startGame(a)
	case ActionAdvanceRound:
		return g.advanceRound(a, out)
	case ActionConfirmCrib:
		if g.Phase != PhaseCribSelection {
			return fmt.Errorf("%w: %s", ErrWrongPhase, g.Phase)
		}
		return g.confirmCrib(a, out)
	case ActionPlayCard:
		if err := g.checkPlayTurn(a.Seat); err != nil {
			return err
		}
		return g.playCard(a, out)
	case ActionCallGo:
		if err := g.checkPlayTurn(a.Seat); err != nil {
			return err
		}
		return g.callGo(a, out)
	case ActionDeclareScore:
		if g.Phase != PhaseCounting {
			return fmt.Errorf("%w: %s", ErrWrongPhase, g.Phase)
		}
		return g.declareScore(a, out)
	case ActionClaimMuggins:
		if g.Phase != PhaseCounting {
			return fmt.Errorf("%w: %s", ErrWrongPhase, g.Phase)
		}
		return g.claimMuggins(a, out)
	}
	return fmt.Errorf("%w %d", ErrUnknownAction, a.Kind)
}

func (g *Game) checkPlayTurn(s Seat) error {
	if g.Phase != PhasePlay {
		return fmt.Errorf("%w: %s", ErrWrongPhase, g.Phase)
	}
	if g.Round.Turn != s {
		return ErrNotYourTurn
	}
	return nil
}

// award pegs points and reports whether the game just ended.
func (g *Game) award(out *Outcome, s Seat, points int, reason Reason) bool {
	if points <= 0 {
		return false
	}
	g.Scores[s] += points
	out.Awards = append(out.Awards, Award{Seat: s, Points: points, Reason: reason})
	if g.Scores[s] >= WinningScore {
		w := s
		g.Winner = &w
		g.Phase = PhaseGameOver
		return true
	}
	return false
}

func (g *Game) startGame(a Action) error {
	if g.Phase != PhaseDeal || g.Round.Number != 0 {
		return fmt.Errorf("%w: game already started", ErrWrongPhase)
	}
	if a.Seed == "" {
		return fmt.Errorf("%w: empty seed", ErrWrongPhase)
	}
	if a.Dealer > Guest {
		return fmt.Errorf("invalid dealer %d", a.Dealer)
	}
	g.Seed = a.Seed
	g.Dealer = a.Dealer
	return g.deal(1)
}

func (g *Game) advanceRound(a Action, out *Outcome) error {
	if g.Round.Number == 0 {
		return fmt.Errorf("%w: game not started", ErrWrongPhase)
	}
	if a.Round <= g.Round.Number {
		out.NoOp = true
		return nil
	}
	if a.Round != g.Round.Number+1 || g.Phase != PhaseRoundComplete {
		return fmt.Errorf("%w: cannot start round %d from round %d in %s", ErrWrongPhase, a.Round, g.Round.Number, g.Phase)
	}
	g.Dealer = g.Dealer.Other()
	return g.deal(a.Round)
}

// deal shuffles the deck of round n and deals six cards to each seat,
// non-dealer first.
func (g *Game) deal(n int) error {
	d := deck.Shuffle(deck.BuildStandardDeck(), deck.RoundSeed(g.Seed, n))
	hands, rest, err := deck.Deal(d, DealSize, 2)
	if err != nil {
		return err
	}
	r := Round{Number: n, Deck: rest}
	r.Hands[g.Dealer.Other()] = hands[0]
	r.Hands[g.Dealer] = hands[1]
	r.Turn = g.Dealer.Other()
	g.Round = r
	g.Phase = PhaseCribSelection
	return nil
}

func (g *Game) confirmCrib(a Action, out *Outcome) error {
	r := &g.Round
	if r.CribDone[a.Seat] {
		return ErrAlreadyConfirmed
	}
	if len(a.Cards) != CribDiscard || a.Cards[0] == a.Cards[1] {
		return ErrInvalidCribSelection
	}
	hand, err := deck.Remove(r.Hands[a.Seat], a.Cards...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCardNotInHand, err)
	}
	r.Hands[a.Seat] = hand
	r.Crib[a.Seat] = append([]deck.Card(nil), a.Cards...)
	r.CribDone[a.Seat] = true
	if !r.CribDone[a.Seat.Other()] {
		return nil
	}
	for s := range 2 {
		r.Kept[s] = append([]deck.Card(nil), r.Hands[s]...)
	}
	starter, rest, err := deck.Cut(r.Deck, 0)
	if err != nil {
		return err
	}
	r.Starter = starter
	r.Deck = rest
	r.Turn = g.Dealer.Other()
	g.Phase = PhasePlay
	if starter.Rank() == deck.Jack {
		g.award(out, g.Dealer, pointsHisHeels, ReasonHisHeels)
	}
	return nil
}

func (g *Game) playCard(a Action, out *Outcome) error {
	r := &g.Round
	if !deck.Contains(r.Hands[a.Seat], a.Card) {
		return fmt.Errorf("%w: %s", ErrCardNotInHand, a.Card)
	}
	res, err := ApplyPlay(r.Stack, r.Count, a.Card, a.Seat)
	if err != nil {
		return err
	}
	hand, _ := deck.Remove(r.Hands[a.Seat], a.Card)
	r.Hands[a.Seat] = hand
	r.Stack = res.Stack
	r.Count = res.Count
	out.Count = res.Count
	out.Peg = res.Score
	if g.award(out, a.Seat, res.Score.Total(), ReasonPlay) {
		return nil
	}

	opp := a.Seat.Other()
	bothEmpty := len(r.Hands[Host]) == 0 && len(r.Hands[Guest]) == 0
	switch {
	case r.Count == MaxCount:
		// 31 already pegged its two points, no go point follows.
		r.resetCount()
		if bothEmpty {
			g.enterCounting(out)
			return nil
		}
		g.lead(opp)
	case bothEmpty:
		r.resetCount()
		if g.award(out, a.Seat, pointsGo, ReasonLastCard) {
			return nil
		}
		g.enterCounting(out)
	case r.canContinue(opp):
		r.Turn = opp
	case len(r.Hands[a.Seat]) > 0:
		r.Turn = a.Seat
	default:
		// Neither side can add to this sequence.
		r.resetCount()
		if g.award(out, a.Seat, pointsGo, ReasonGo) {
			return nil
		}
		g.lead(opp)
	}
	return nil
}

func (g *Game) callGo(a Action, out *Outcome) error {
	r := &g.Round
	if HasLegalPlay(r.Hands[a.Seat], r.Count) {
		return ErrHasLegalPlay
	}
	last, ok := r.LastPlayer()
	if !ok {
		return fmt.Errorf("%w: nothing played", ErrHasLegalPlay)
	}
	r.Passed[a.Seat] = true
	if r.canContinue(a.Seat.Other()) {
		r.Turn = a.Seat.Other()
		return nil
	}
	points := GoPoints(r.Count)
	r.resetCount()
	if g.award(out, last, points, ReasonGo) {
		return nil
	}
	g.lead(last.Other())
	return nil
}

// lead gives the next sequence to s, or to the other seat if s has no cards.
func (g *Game) lead(s Seat) {
	if len(g.Round.Hands[s]) == 0 {
		s = s.Other()
	}
	g.Round.Turn = s
}

// ToAct returns the seat expected to move next, if any. During crib
// selection both seats may act and ok is false.
func (g *Game) ToAct() (Seat, bool) {
	switch g.Phase {
	case PhasePlay, PhaseCounting:
		if g.Phase == PhaseCounting && g.Options.Counting == CountingAutomatic {
			return 0, false
		}
		return g.Round.Turn, true
	}
	return 0, false
}

// Hand returns a copy of the cards held by s.
func (g *Game) Hand(s Seat) []deck.Card {
	return append([]deck.Card(nil), g.Round.Hands[s]...)
}

// LegalPlays returns the cards s may play now.
func (g *Game) LegalPlays(s Seat) []deck.Card {
	if g.Phase != PhasePlay || g.Round.Turn != s {
		return nil
	}
	return LegalPlays(g.Round.Hands[s], g.Round.Count)
}

// MustGo reports whether s is to play and holds no legal card.
func (g *Game) MustGo(s Seat) bool {
	return g.Phase == PhasePlay && g.Round.Turn == s && !HasLegalPlay(g.Round.Hands[s], g.Round.Count)
}

// PendingClaim returns the record awaiting a muggins answer.
func (g *Game) PendingClaim() (CountRecord, bool) {
	c := g.Round.Counting
	if g.Phase != PhaseCounting || !c.Pending || len(c.Records) == 0 {
		return CountRecord{}, false
	}
	return c.Records[len(c.Records)-1], true
}
