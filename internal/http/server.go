package http

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/RagnarAgustsson/HandritiB/internal/config"
	"github.com/RagnarAgustsson/HandritiB/internal/metrics"
	"github.com/RagnarAgustsson/HandritiB/internal/pipeline"
	"github.com/RagnarAgustsson/HandritiB/internal/services"
	"github.com/RagnarAgustsson/HandritiB/internal/storage"
)

type Server struct {
	engine *gin.Engine
	cfg    config.Config
}

func NewServer(cfg config.Config) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	store, err := storage.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	openaiSvc := services.NewOpenAIService(cfg)
	pdfSvc := services.NewPDFService()
	shareSvc := services.NewShareService(cfg)

	processor := pipeline.NewProcessor(store, openaiSvc, m)
	finalizer := pipeline.NewFinalizer(store, openaiSvc, services.LogNotifier{}, m)
	uploader := pipeline.NewUploader(store, processor, finalizer)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger(m))
	engine.Use(MaxBodySize(cfg.MaxUploadBytes))
	engine.Use(CORS())

	api := NewAPI(cfg, store, processor, finalizer, uploader, pdfSvc, shareSvc, m)
	registerRoutes(engine, api)

	return &Server{engine: engine, cfg: cfg}, nil
}

func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.cfg.Port)
	return s.engine.Run(addr)
}
