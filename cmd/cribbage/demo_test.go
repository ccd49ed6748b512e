package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luca-patrignani/cribbage/config"
	"github.com/luca-patrignani/cribbage/domain/cribbage"
	"github.com/luca-patrignani/cribbage/domain/deck"
	"github.com/luca-patrignani/cribbage/internal/logging"
	"github.com/luca-patrignani/cribbage/observability"
)

func TestDemo(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	for _, mode := range []string{"manual", "automatic"} {
		t.Run(mode, func(t *testing.T) {
			cfg := config.Default()
			cfg.Game.Counting = mode
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			var out bytes.Buffer
			g, err := runDemo(ctx, &out, demoOptions{
				cfg:     cfg,
				seed:    deck.Seed("demo-" + mode),
				quiet:   true,
				logger:  logging.NewNop(),
				metrics: observability.New(),
			})
			require.NoError(t, err)
			require.NotNil(t, g.Winner)
			assert.Equal(t, cribbage.PhaseGameOver, g.Phase)
			assert.GreaterOrEqual(t, g.Scores[*g.Winner], cribbage.WinningScore)
			assert.Contains(t, out.String(), "transitions recorded")
		})
	}
}
