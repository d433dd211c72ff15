package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chatRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portfolio_chat_requests_total",
		Help: "Chat requests received, before any screening.",
	})
	rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portfolio_chat_rate_limited_total",
		Help: "Chat requests rejected by the per-IP rate limiter.",
	})
	guardRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_chat_guard_rejected_total",
		Help: "Chat requests rejected by the input guard.",
	}, []string{"reason"})
	providerFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_chat_provider_failures_total",
		Help: "External provider call failures.",
	}, []string{"stage"})
	retrievedChunks = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "portfolio_chat_retrieved_chunks",
		Help:    "Number of chunks that cleared the relevance threshold per question.",
		Buckets: prometheus.LinearBuckets(0, 1, 6),
	})
)
