package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

var (
	Logger *zap.Logger

	moderationActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_actions_total",
			Help: "Total number of executed moderation actions",
		},
		[]string{"action", "outcome"},
	)

	globalBanEnforcementsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "global_ban_enforcements_total",
			Help: "Total number of messages removed due to a global ban",
		},
	)

	pipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moderation_pipeline_duration_seconds",
			Help:    "Time spent running the moderation pipeline",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
)

func Init(ctx context.Context, metricsAddr string) error {
	var err error
	Logger, err = zap.NewProduction()
	if err != nil {
		return err
	}

	prometheus.MustRegister(moderationActionsTotal)
	prometheus.MustRegister(globalBanEnforcementsTotal)
	prometheus.MustRegister(pipelineDuration)

	tp := trace.NewTracerProvider()
	otel.SetTracerProvider(tp)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
		Logger.Info("metrics endpoint listening", zap.String("addr", metricsAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("metrics server failed")
		}
	}()

	return nil
}

// RecordModerationAction counts an executed moderation action and its outcome.
func RecordModerationAction(action string, success bool) {
	outcome := "ok"
	if !success {
		outcome = "error"
	}
	moderationActionsTotal.WithLabelValues(action, outcome).Inc()
}

// RecordGlobalBanEnforcement counts a message removed by global-ban enforcement.
func RecordGlobalBanEnforcement() {
	globalBanEnforcementsTotal.Inc()
}

// StartPipelineTimer returns a function to record pipeline duration by outcome.
func StartPipelineTimer() func(outcome string) {
	start := time.Now()
	return func(outcome string) {
		pipelineDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}
}
