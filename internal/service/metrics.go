package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "microvote_polls_created_total",
		Help: "Number of polls created.",
	})
	lawsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "microvote_laws_created_total",
		Help: "Number of laws created.",
	})
	votesCast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "microvote_votes_cast_total",
		Help: "Vote cast attempts by outcome.",
	}, []string{"status"})
	rateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "microvote_rate_limited_total",
		Help: "Creation attempts rejected by the rolling daily limit.",
	}, []string{"category"})
)
