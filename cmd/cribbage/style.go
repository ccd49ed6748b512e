package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/luca-patrignani/cribbage/domain/cribbage"
	"github.com/luca-patrignani/cribbage/domain/deck"
	"github.com/luca-patrignani/cribbage/session"
)

// players names the two seats for display.
type players [2]string

func (p players) of(s cribbage.Seat) string {
	if p[s] == "" {
		return s.String()
	}
	return p[s]
}

func cardText(c deck.Card) string {
	if c.IsZero() {
		return pterm.Gray("--")
	}
	if c.Suit().Red() {
		return pterm.LightRed(c.String())
	}
	return pterm.LightWhite(c.String())
}

func cardsText(cards []deck.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = cardText(c)
	}
	return strings.Join(parts, " ")
}

func scoreLine(g *cribbage.Game, names players) string {
	return fmt.Sprintf("%s %d - %s %d",
		names.of(cribbage.Host), g.Scores[cribbage.Host],
		names.of(cribbage.Guest), g.Scores[cribbage.Guest])
}

func playerInfo(g *cribbage.Game, s cribbage.Seat, names players, main bool) string {
	hpadding := 4
	if main {
		hpadding = 10
	}
	pbox := pterm.DefaultBox.WithHorizontalPadding(hpadding).WithTopPadding(1).WithBottomPadding(1)
	role := pterm.LightCyan("Pone")
	if g.Dealer == s {
		role = pterm.LightYellow("Dealer")
	}
	hand := strings.Repeat("🂠 ", len(g.Round.Hands[s]))
	if main {
		hand = cardsText(g.Round.Hands[s])
	}
	return pbox.WithTitle(names.of(s)).WithTitleTopLeft().Sprintf("%s\nScore: %d/%d\n%s", role, g.Scores[s], cribbage.WinningScore, hand)
}

func boardInfo(g *cribbage.Game) string {
	r := g.Round
	board := "Round " + strconv.Itoa(r.Number) + " | " + g.Phase.String()
	if !r.Starter.IsZero() {
		board += " | Starter " + cardText(r.Starter)
	}
	if g.Phase == cribbage.PhasePlay {
		board += " | Count " + strconv.Itoa(r.Count)
		if len(r.Stack) > 0 {
			board += " | " + cardsText(cribbage.Cards(r.Stack))
		}
	}
	board += " | Crib " + strconv.Itoa(r.CribSize()) + "/4"
	return board
}

// printState renders the table from the point of view of seat.
func printState(g *cribbage.Game, seat cribbage.Seat, names players, additionalPanel ...pterm.Panel) {
	opponent := pterm.Panel{Data: playerInfo(g, seat.Other(), names, false)}
	board := pterm.Panel{Data: pterm.DefaultHeader.WithBackgroundStyle(pterm.BgGreen.ToStyle()).Sprint(boardInfo(g))}
	dashboard := []pterm.Panel{{Data: playerInfo(g, seat, names, true)}}
	dashboard = append(dashboard, additionalPanel...)

	_ = pterm.DefaultPanel.WithPanels([][]pterm.Panel{
		{opponent},
		{board},
		dashboard,
	}).Render()
}

// describeAction tells what a move did, e.g. "bob played 5♥ (count 15, +2)".
func describeAction(a cribbage.Action, out *cribbage.Outcome, names players) string {
	who := pterm.LightCyan(names.of(a.Seat))
	var text string
	switch a.Kind {
	case cribbage.ActionStartGame:
		return fmt.Sprintf("%s dealt, %s deals first", who, names.of(a.Dealer))
	case cribbage.ActionConfirmCrib:
		text = fmt.Sprintf("%s put two cards in the crib", who)
	case cribbage.ActionPlayCard:
		text = fmt.Sprintf("%s played %s", who, cardText(a.Card))
		if out != nil {
			text += fmt.Sprintf(" (count %d)", out.Count)
		}
	case cribbage.ActionCallGo:
		text = fmt.Sprintf("%s said go", who)
	case cribbage.ActionDeclareScore:
		text = fmt.Sprintf("%s declared %d", who, a.Points)
	case cribbage.ActionClaimMuggins:
		if a.Points == 0 {
			text = fmt.Sprintf("%s accepted the count", who)
		} else {
			text = fmt.Sprintf("%s claimed %d muggins", who, a.Points)
		}
	case cribbage.ActionAdvanceRound:
		return fmt.Sprintf("%s started round %d", who, a.Round)
	default:
		text = fmt.Sprintf("%s: %s", who, a)
	}
	if out == nil {
		return text
	}
	for _, aw := range out.Awards {
		text += pterm.LightGreen(fmt.Sprintf(" +%d %s to %s", aw.Points, aw.Reason, names.of(aw.Seat)))
	}
	return text
}

func breakdownTable(b cribbage.Breakdown) pterm.TableData {
	return pterm.TableData{
		{"Category", "Points"},
		{"Fifteens", strconv.Itoa(b.Fifteens)},
		{"Pairs", strconv.Itoa(b.Pairs)},
		{"Runs", strconv.Itoa(b.Runs)},
		{"Flush", strconv.Itoa(b.Flush)},
		{"Nobs", strconv.Itoa(b.Nobs)},
		{"Total", strconv.Itoa(b.Total())},
	}
}

// countPanel shows the hands counted in the last round.
func countPanel(g *cribbage.Game, names players) pterm.Panel {
	pbox := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)
	info := ""
	for _, rec := range g.Round.Counting.Records {
		info += pterm.Sprintfln("%s %s: %s + %s = %d", names.of(rec.Owner), rec.Step, cardsText(rec.Cards), cardText(g.Round.Starter), rec.Actual())
		if rec.Declared != rec.Actual() {
			info += pterm.Sprintfln("  declared %d, %d claimed as muggins", rec.Declared, rec.Claimed)
		}
	}
	return pterm.Panel{Data: pbox.WithTitle(pterm.LightYellow("|COUNT|")).WithTitleTopCenter().Sprint(info)}
}

func winnerPanel(g *cribbage.Game, names players) pterm.Panel {
	pbox := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)
	info := ""
	if g.Winner != nil {
		info = pterm.Sprintfln("%s wins %s", pterm.LightCyan(names.of(*g.Winner)), scoreLine(g, names))
		loser := g.Scores[g.Winner.Other()]
		switch {
		case loser < 61:
			info += pterm.Sprintln("Double skunk!")
		case loser < 91:
			info += pterm.Sprintln("Skunk!")
		}
	}
	return pterm.Panel{Data: pbox.WithTitle(pterm.LightGreen("|GAME OVER|")).WithTitleTopCenter().Sprint(info)}
}

func eventLine(e session.Event, names players) string {
	switch e.Kind {
	case session.EventRemoteAction:
		return describeAction(*e.Action, e.Outcome, names)
	case session.EventPeerJoined:
		return fmt.Sprintf("%s joined", pterm.LightCyan(e.Text))
	}
	return e.String()
}
