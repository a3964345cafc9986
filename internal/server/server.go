package server

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wx-shi/utxo-dashboard/internal/config"
	"github.com/wx-shi/utxo-dashboard/internal/dashboard"
	"github.com/wx-shi/utxo-dashboard/internal/metrics"
	"github.com/wx-shi/utxo-dashboard/internal/wallet"
	"github.com/wx-shi/utxo-dashboard/pkg"
	"go.uber.org/zap"
)

const (
	// readTimeout is the maximum duration for reading the entire
	// request, including the body.
	readTimeout = 30 * time.Second

	// writeTimeout is the maximum duration before timing out
	// writes of the response. A render waits on the remote
	// providers, so it must exceed render.timeout.
	writeTimeout = time.Minute

	// idleTimeout is the maximum amount of time to wait for the
	// next request when keep-alives are enabled.
	idleTimeout = 5 * time.Minute
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

type Server struct {
	conf      *config.Config
	logger    *zap.Logger
	sessions  *wallet.Sessions
	builder   *dashboard.Builder
	validator wallet.Validator
	metrics   *metrics.Metrics
	engine    *gin.Engine
	hs        *http.Server
}

func NewServer(conf *config.Config, logger *zap.Logger, sessions *wallet.Sessions,
	builder *dashboard.Builder, validator wallet.Validator, m *metrics.Metrics) (*Server, error) {

	s := &Server{
		conf:      conf,
		logger:    logger,
		sessions:  sessions,
		builder:   builder,
		validator: validator,
		metrics:   m,
	}

	if err := s.initGin(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) initGin() error {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(pkg.LogMiddleware(s.logger), pkg.CORSMiddleware(), gin.Recovery())
	engine.SetHTMLTemplate(tmpl)

	engine.GET("health", s.healthHandle())
	engine.GET("metrics", gin.WrapH(s.metrics.Handler()))

	page := engine.Group("/", s.sessionMiddleware())
	page.GET("", s.indexHandle())
	page.POST("wallets", s.addWalletPageHandle())
	page.POST("wallets/delete", s.removeWalletPageHandle())
	page.POST("wallets/select", s.selectWalletPageHandle())

	api := engine.Group("api", s.sessionMiddleware())
	api.GET("dashboard", s.dashboardHandle())
	api.GET("wallets", s.walletsHandle())
	api.POST("wallets", s.addWalletHandle())
	api.DELETE("wallets/:name", s.removeWalletHandle())
	api.PUT("wallets/selected", s.selectWalletHandle())
	api.POST("address/validate", s.validateAddressHandle())

	s.engine = engine
	return nil
}

func (s *Server) Run() {
	addr := fmt.Sprintf("%s:%d", s.conf.Server.Host, s.conf.Server.Port)
	hs := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	s.hs = hs

	go func() {
		if err := hs.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("listen", zap.Error(err))
		}
	}()
	s.logger.Info("listen", zap.String("addr", addr))
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.hs == nil {
		return nil
	}
	return s.hs.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	return s.engine
}
