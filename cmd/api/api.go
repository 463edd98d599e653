package api

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/KAsare1/Yatube-server/cmd/config"
	"github.com/KAsare1/Yatube-server/cmd/utils"
	"github.com/KAsare1/Yatube-server/cmd/views"
	"github.com/KAsare1/Yatube-server/service/follow"
	"github.com/KAsare1/Yatube-server/service/posts"
	"github.com/KAsare1/Yatube-server/service/user"
	"github.com/KAsare1/Yatube-server/service/ws"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type APIServer struct {
	address string
	db      *gorm.DB
	cfg     *config.Config
	mailer  utils.Mailer

	Cache     *utils.PageCache
	Hub       *ws.Hub
	AccessLog io.Writer
}

func NewApiServer(cfg *config.Config, db *gorm.DB, mailer utils.Mailer) *APIServer {
	return &APIServer{
		address:   ":" + cfg.Port,
		db:        db,
		cfg:       cfg,
		mailer:    mailer,
		Cache:     utils.NewPageCache(time.Minute),
		Hub:       ws.NewHub(),
		AccessLog: os.Stdout,
	}
}

// Handler builds the full middleware chain around the router.
func (s *APIServer) Handler() (http.Handler, error) {
	renderer, err := views.New()
	if err != nil {
		return nil, err
	}
	auth := utils.NewAuthenticator(s.db, s.cfg.SecretKey)
	images := utils.NewImageStore(s.cfg.MediaRoot)

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(renderer.NotFound)

	postHandler := posts.NewPostHandler(s.db, renderer, images, s.Hub, s.Cache, s.cfg.IndexCache)
	postHandler.RegisterRoutes(router)

	followHandler := follow.NewFollowHandler(s.db, renderer)
	followHandler.RegisterRoutes(router)

	userHandler := user.NewHandler(s.db, renderer, auth, s.mailer, s.cfg.SiteURL)
	userHandler.RegisterRoutes(router)

	wsHandler := ws.NewHandler(s.Hub)
	wsHandler.RegisterRoutes(router)

	fileServer := http.FileServer(http.Dir(s.cfg.MediaRoot))
	router.PathPrefix(utils.MediaURL).Handler(http.StripPrefix(utils.MediaURL, noDirListing(fileServer, renderer)))

	var handler http.Handler = auth.Identify(router)
	handler = handlers.CombinedLoggingHandler(s.AccessLog, handler)
	handler = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(handler)
	return handler, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *APIServer) Run(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              s.address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Println("Server running at", s.address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func noDirListing(next http.Handler, renderer *views.Renderer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			renderer.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
