package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RoundsPlayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crownanchor_rounds_played_total",
		Help: "Rounds resolved by the orchestrator.",
	})

	CreditsWagered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crownanchor_credits_wagered_total",
		Help: "Total credits staked across resolved rounds.",
	})

	CreditsWon = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crownanchor_credits_won_total",
		Help: "Total credits paid out across resolved rounds.",
	})

	DepositsCredited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crownanchor_deposits_credited_total",
		Help: "External payments credited to a balance (each counted once).",
	})

	Logins = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crownanchor_logins_total",
		Help: "Successful logins.",
	})
)
