package main

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/luca-patrignani/cribbage/domain/cribbage"
	"github.com/luca-patrignani/cribbage/domain/deck"
)

var scoreCmd = &cobra.Command{
	Use:     "score <card> <card> <card> <card>",
	Short:   "Count a hand or a crib",
	Example: "  cribbage score 5h 5d 5c Js --starter 5s",
	Args:    cobra.ExactArgs(cribbage.PlaySize),
	RunE: func(cmd *cobra.Command, args []string) error {
		starter, _ := cmd.Flags().GetString("starter")
		isCrib, _ := cmd.Flags().GetBool("crib")
		return scoreHand(cmd.OutOrStdout(), args, starter, isCrib)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.Flags().StringP("starter", "s", "", "The starter card, e.g. 5s")
	scoreCmd.Flags().Bool("crib", false, "Count the cards as a crib (flush needs five cards)")
	_ = scoreCmd.MarkFlagRequired("starter")
}

func scoreHand(out io.Writer, cards []string, starterText string, isCrib bool) error {
	hand := make([]deck.Card, 0, len(cards))
	for _, s := range cards {
		c, err := deck.ParseCard(s)
		if err != nil {
			return err
		}
		hand = append(hand, c)
	}
	starter, err := deck.ParseCard(starterText)
	if err != nil {
		return fmt.Errorf("starter: %w", err)
	}
	all := append(append([]deck.Card(nil), hand...), starter)
	for i, c := range all {
		if deck.IndexOf(all, c) != i {
			return fmt.Errorf("card %s appears twice", c)
		}
	}

	b := cribbage.ScoreBreakdown(hand, starter, isCrib)
	fmt.Fprintf(out, "%s + %s\n", cardsText(hand), cardText(starter))
	table, err := pterm.DefaultTable.WithHasHeader().WithData(breakdownTable(b)).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, table)
	return nil
}
