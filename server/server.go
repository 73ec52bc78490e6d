// Package server exposes prompt composition, recommendation parsing and
// model-backed generation over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/santiagomed/blendgen/core"
	"github.com/santiagomed/blendgen/llm"
	"github.com/santiagomed/blendgen/logger"
	"github.com/santiagomed/blendgen/metrics"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	Addr           string
	AllowedOrigins []string
	MatchMode      core.MatchMode
	Registry       *prometheus.Registry
}

type Server struct {
	client   llm.LlmClient
	parser   *core.Parser
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	logger   logger.Logger
	opts     Options
}

// New wires client behind the model-call metrics. A nil Registry gets a fresh one.
func New(client llm.LlmClient, opts Options, l logger.Logger) *Server {
	if l == nil {
		l = logger.NewNullLogger()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := metrics.New(reg)
	return &Server{
		client:   m.InstrumentClient(client),
		parser:   core.NewParser(core.WithMatchMode(opts.MatchMode)),
		metrics:  m,
		gatherer: reg,
		logger:   l,
		opts:     opts,
	}
}

// Router builds the gin engine with all routes and middleware.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(CORS(s.opts.AllowedOrigins))
	r.Use(Metrics(s.metrics))
	r.Use(AccessLog(s.logger))

	r.GET("/healthz", s.healthz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	v1 := r.Group("/v1")
	{
		v1.POST("/prompts/:kind", s.composePrompt)
		v1.POST("/recommendations/parse", s.parseRecommendations)
		v1.POST("/generate/:kind", s.generate)
		v1.POST("/recommend", s.recommend)
		v1.POST("/modify", s.modify)
	}
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.WithField("addr", s.opts.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) pipeline(l logger.Logger) *core.Pipeline {
	return core.NewPipeline(core.NewDefaultStepManager(s.client, s.parser), nil, l)
}
