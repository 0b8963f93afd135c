package service

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	GamesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "schnicken_games_created_total",
			Help: "Total games created",
		},
	)
	GamesFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schnicken_games_finished_total",
			Help: "Finished games by result",
		},
		[]string{"result"},
	)
	SubmissionsAccepted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schnicken_submissions_accepted_total",
			Help: "Accepted numbers by round",
		},
		[]string{"round"},
	)
	SubmissionsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schnicken_submissions_rejected_total",
			Help: "Rejected numbers by reason",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(GamesCreated)
	prometheus.MustRegister(GamesFinished)
	prometheus.MustRegister(SubmissionsAccepted)
	prometheus.MustRegister(SubmissionsRejected)
}

func roundLabel(r int) string {
	return strconv.Itoa(r)
}
