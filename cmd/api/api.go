package api

import (
	"log"
	"net/http"

	"github.com/artcorner/art-corner-server/service/admin"
	"github.com/artcorner/art-corner-server/service/article"
	"github.com/artcorner/art-corner-server/service/comment"
	"github.com/artcorner/art-corner-server/service/event"
	"github.com/artcorner/art-corner-server/service/events"
	"github.com/artcorner/art-corner-server/service/favorite"
	"github.com/artcorner/art-corner-server/service/gallery"
	"github.com/artcorner/art-corner-server/service/message"
	"github.com/artcorner/art-corner-server/service/notification"
	"github.com/artcorner/art-corner-server/service/order"
	"github.com/artcorner/art-corner-server/service/product"
	"github.com/artcorner/art-corner-server/service/report"
	"github.com/artcorner/art-corner-server/service/review"
	"github.com/artcorner/art-corner-server/service/user"
	"github.com/artcorner/art-corner-server/service/ws"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type APIServer struct {
	address string
	db      *gorm.DB
}

func NewApiServer(address string, db *gorm.DB) *APIServer {
	return &APIServer{
		address: address,
		db:      db,
	}
}

func (s *APIServer) Run() error {
	router := mux.NewRouter()
	subrouter := router.PathPrefix("/api/v1").Subrouter()

	bus := events.NewDefaultBus()
	hub := ws.NewHub(s.db)

	userHandler := user.NewHandler(s.db)
	userHandler.RegisterRoutes(subrouter)

	productHandler := product.NewHandler(s.db)
	productHandler.RegisterRoutes(subrouter)

	galleryHandler := gallery.NewHandler(s.db, bus)
	galleryHandler.RegisterRoutes(subrouter)

	eventHandler := event.NewHandler(s.db)
	eventHandler.RegisterRoutes(subrouter)

	articleHandler := article.NewHandler(s.db)
	articleHandler.RegisterRoutes(subrouter)

	commentHandler := comment.NewHandler(s.db)
	commentHandler.RegisterRoutes(subrouter)

	messageHandler := message.NewHandler(s.db, bus, hub)
	messageHandler.RegisterRoutes(subrouter)

	favoriteHandler := favorite.NewHandler(s.db, bus)
	favoriteHandler.RegisterRoutes(subrouter)

	orderHandler := order.NewHandler(s.db, bus)
	orderHandler.RegisterRoutes(subrouter)

	notificationHandler := notification.NewHandler(s.db)
	notificationHandler.RegisterRoutes(subrouter)

	reviewHandler := review.NewHandler(s.db)
	reviewHandler.RegisterRoutes(subrouter)

	reportHandler := report.NewHandler(s.db, bus)
	reportHandler.RegisterRoutes(subrouter)

	adminHandler := admin.NewHandler(s.db, bus)
	adminHandler.RegisterRoutes(subrouter)

	hub.RegisterRoutes(router)

	// Uploaded media is served straight off disk.
	router.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir("uploads"))),
	)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowCredentials(),
	)

	log.Println("Server running at", s.address)
	return http.ListenAndServe(s.address, cors(router))
}
