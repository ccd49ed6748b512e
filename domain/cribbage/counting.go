package cribbage

import (
	"fmt"
	"slices"

	"github.com/luca-patrignani/cribbage/domain/deck"
)

// CountStep is the hand being counted. The order is fixed.
type CountStep uint8

const (
	StepNonDealerHand CountStep = iota
	StepDealerHand
	StepCrib
	StepDone
)

func (s CountStep) String() string {
	switch s {
	case StepNonDealerHand:
		return "non-dealer hand"
	case StepDealerHand:
		return "dealer hand"
	case StepCrib:
		return "crib"
	}
	return "done"
}

// CountRecord is the result of one counted step.
type CountRecord struct {
	Step      CountStep   `json:"step"`
	Owner     Seat        `json:"owner"`
	Cards     []deck.Card `json:"cards"`
	Breakdown Breakdown   `json:"breakdown"`
	Declared  int         `json:"declared"`
	Claimed   int         `json:"claimed"`
}

// Actual is the true value of the counted cards.
func (r CountRecord) Actual() int {
	return r.Breakdown.Total()
}

// Missed are the points the owner failed to declare.
func (r CountRecord) Missed() int {
	return r.Actual() - r.Declared
}

// CountingState tracks manual declarations.
type CountingState struct {
	Step    CountStep     `json:"step"`
	Pending bool          `json:"pending"` // declared, waiting for the opponent
	Records []CountRecord `json:"records"`
}

func (c CountingState) clone() CountingState {
	out := c
	out.Records = slices.Clone(c.Records)
	for i := range out.Records {
		out.Records[i].Cards = slices.Clone(c.Records[i].Cards)
	}
	return out
}

// StepOwner returns who scores the given step.
func (g *Game) StepOwner(step CountStep) Seat {
	if step == StepNonDealerHand {
		return g.Dealer.Other()
	}
	return g.Dealer
}

// StepCards returns the cards scored by step, without the starter.
func (g *Game) StepCards(step CountStep) []deck.Card {
	r := &g.Round
	switch step {
	case StepNonDealerHand:
		return append([]deck.Card(nil), r.Kept[g.Dealer.Other()]...)
	case StepDealerHand:
		return append([]deck.Card(nil), r.Kept[g.Dealer]...)
	case StepCrib:
		return r.CribCards(g.Dealer)
	}
	return nil
}

func (g *Game) stepBreakdown(step CountStep) Breakdown {
	return ScoreBreakdown(g.StepCards(step), g.Round.Starter, step == StepCrib)
}

func stepReason(step CountStep) Reason {
	if step == StepCrib {
		return ReasonCrib
	}
	return ReasonHand
}

// enterCounting starts the counting phase. Automatic counting scores every
// step at once and stops early if someone wins.
func (g *Game) enterCounting(out *Outcome) {
	g.Phase = PhaseCounting
	g.Round.Counting = CountingState{Step: StepNonDealerHand}
	g.Round.Turn = g.StepOwner(StepNonDealerHand)
	if g.Options.Counting != CountingAutomatic {
		return
	}
	for step := StepNonDealerHand; step < StepDone; step++ {
		b := g.stepBreakdown(step)
		owner := g.StepOwner(step)
		g.Round.Counting.Records = append(g.Round.Counting.Records, CountRecord{
			Step:      step,
			Owner:     owner,
			Cards:     g.StepCards(step),
			Breakdown: b,
			Declared:  b.Total(),
		})
		g.Round.Counting.Step = step + 1
		if g.award(out, owner, b.Total(), stepReason(step)) {
			return
		}
	}
	g.Phase = PhaseRoundComplete
}

func (g *Game) declareScore(a Action, out *Outcome) error {
	c := &g.Round.Counting
	if g.Options.Counting != CountingManual {
		return fmt.Errorf("%w: hands are counted automatically", ErrWrongPhase)
	}
	if c.Pending {
		return fmt.Errorf("%w: waiting for muggins answer", ErrWrongPhase)
	}
	owner := g.StepOwner(c.Step)
	if a.Seat != owner {
		return fmt.Errorf("%w: %s counts the %s", ErrNotYourTurn, owner, c.Step)
	}
	b := g.stepBreakdown(c.Step)
	if a.Points < 0 {
		return fmt.Errorf("%w: negative score", ErrInvalidClaim)
	}
	if a.Points > b.Total() {
		return fmt.Errorf("%w: declared %d, %s is worth %d", ErrOverclaim, a.Points, c.Step, b.Total())
	}
	c.Records = append(c.Records, CountRecord{
		Step:      c.Step,
		Owner:     owner,
		Cards:     g.StepCards(c.Step),
		Breakdown: b,
		Declared:  a.Points,
	})
	if g.award(out, owner, a.Points, stepReason(c.Step)) {
		return nil
	}
	if g.Options.Muggins {
		c.Pending = true
		g.Round.Turn = owner.Other()
		return nil
	}
	g.nextStep()
	return nil
}

func (g *Game) claimMuggins(a Action, out *Outcome) error {
	c := &g.Round.Counting
	if !c.Pending {
		return fmt.Errorf("%w: nothing to claim", ErrWrongPhase)
	}
	owner := g.StepOwner(c.Step)
	if a.Seat != owner.Other() {
		return fmt.Errorf("%w: only %s can claim muggins", ErrNotYourTurn, owner.Other())
	}
	rec := &c.Records[len(c.Records)-1]
	if a.Points < 0 || a.Points > rec.Missed() {
		return fmt.Errorf("%w: claimed %d, %d missed", ErrInvalidClaim, a.Points, rec.Missed())
	}
	rec.Claimed = a.Points
	c.Pending = false
	if g.award(out, a.Seat, a.Points, ReasonMuggins) {
		return nil
	}
	g.nextStep()
	return nil
}

func (g *Game) nextStep() {
	c := &g.Round.Counting
	c.Step++
	if c.Step >= StepDone {
		g.Phase = PhaseRoundComplete
		return
	}
	g.Round.Turn = g.StepOwner(c.Step)
}
