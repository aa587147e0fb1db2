// Package api is the HTTP surface of the licence gateway
package api // import "github.com/w3licence/licence-gateway/pkg/api"

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/w3licence/licence-gateway/pkg/auth"
	"github.com/w3licence/licence-gateway/pkg/gateway"
	"github.com/w3licence/licence-gateway/pkg/jobs"
)

const (
	defaultMaxUploadBytes = 32 << 20
	defaultRequestWait    = 60 * time.Second
)

// ServerParams are the dependencies of the HTTP handlers
type ServerParams struct {
	Gate               *auth.Gate
	Contents           *gateway.ContentGateway
	Licences           *gateway.LicenceGateway
	Tracker            *jobs.Tracker
	RequestWait        time.Duration
	MaxUploadBytes     int64
	CorsAllowedOrigins []string
}

// NewServer returns a new Server
func NewServer(params *ServerParams) *Server {
	wait := params.RequestWait
	if wait <= 0 {
		wait = defaultRequestWait
	}
	maxUpload := params.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	origins := params.CorsAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Server{
		gate:           params.Gate,
		contents:       params.Contents,
		licences:       params.Licences,
		tracker:        params.Tracker,
		requestWait:    wait,
		maxUploadBytes: maxUpload,
		corsOrigins:    origins,
	}
}

// Server serves the gateway endpoints
type Server struct {
	gate           *auth.Gate
	contents       *gateway.ContentGateway
	licences       *gateway.LicenceGateway
	tracker        *jobs.Tracker
	requestWait    time.Duration
	maxUploadBytes int64
	corsOrigins    []string
}

// Handler returns the routed handler wrapped in CORS and request logging
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(requestLoggerMiddleware)

	r.HandleFunc("/health", s.healthHandler).Methods("GET")

	r.HandleFunc("/api/auth", s.authHandler).Methods("POST")
	r.HandleFunc("/api/auth/nonce", s.nonceHandler).Methods("POST")
	r.Handle("/api/auth/disconnect", http.HandlerFunc(s.disconnectHandler)).Methods("POST")

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.Handle("/authorship-proof", s.requireSession(s.uploadHandler)).Methods("POST")
	v1.Handle("/content", s.optionalSession(s.contentHandler)).Methods("GET")
	v1.Handle("/my-content", s.requireSession(s.myContentHandler)).Methods("GET")
	v1.Handle("/disable-content", s.requireSession(s.disableContentHandler)).Methods("POST")
	v1.Handle("/set-title", s.requireSession(s.setTitleHandler)).Methods("POST")
	v1.Handle("/set-price", s.requireSession(s.setPriceHandler)).Methods("POST")
	v1.Handle("/set-fee", s.requireSession(s.setFeeHandler)).Methods("POST")
	v1.HandleFunc("/fee", s.feeHandler).Methods("GET")
	v1.HandleFunc("/content-by-cid", s.contentByCIDHandler).Methods("POST")
	v1.Handle("/buy-licence", s.requireSession(s.buyLicenceHandler)).Methods("POST")
	v1.Handle("/my-licences", s.requireSession(s.myLicencesHandler)).Methods("GET")
	v1.Handle("/revoke-licence", s.requireSession(s.revokeLicenceHandler)).Methods("POST")
	v1.HandleFunc("/licence-status", s.licenceStatusHandler).Methods("GET")
	v1.Handle("/jobs/{id}", s.requireSession(s.jobHandler)).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	})
	return c.Handler(r)
}

// healthHandler handles health check requests
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
