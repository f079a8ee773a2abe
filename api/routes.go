package api

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

func (s *Server) Routes() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/", s.Index).Methods("GET")
	router.HandleFunc("/predict", s.Predict).Methods("GET")

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)

	return cors(router)
}
