package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/w3licence/licence-gateway/pkg/gateway"
	"github.com/w3licence/licence-gateway/pkg/model"
)

func (s *Server) buyLicenceHandler(w http.ResponseWriter, r *http.Request) {
	values, err := requestValues(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	job, err := s.licences.BuyLicence(r.Context(), sessionFromContext(r.Context()), values["cid"],
		values["duration"])
	if err != nil {
		writeError(w, err)
		return
	}
	s.respondJob(w, r, job, job.CID)
}

func (s *Server) myLicencesHandler(w http.ResponseWriter, r *http.Request) {
	licences, err := s.licences.ListMine(r.Context(), sessionFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	records := make([]*gateway.LicenceRecord, 0, len(licences))
	for _, licence := range licences {
		records = append(records, gateway.NewLicenceRecord(licence))
	}
	jsonResponse(w, http.StatusOK, records)
}

func (s *Server) revokeLicenceHandler(w http.ResponseWriter, r *http.Request) {
	values, err := requestValues(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	job, err := s.licences.Revoke(r.Context(), sessionFromContext(r.Context()), values["cid"])
	if err != nil {
		writeError(w, err)
		return
	}
	s.respondJob(w, r, job, job.CID)
}

// licenceStatusHandler answers whether a holder may use a CID right now
func (s *Server) licenceStatusHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	status, err := s.licences.Verify(r.Context(), query.Get("holder"), query.Get("cid"))
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, status)
}

// jobHandler returns a job to the wallet that started it
func (s *Server) jobHandler(w http.ResponseWriter, r *http.Request) {
	job, err := s.tracker.Job(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if job.Address != sessionFromContext(r.Context()).Address {
		writeError(w, model.ErrNotFound)
		return
	}
	jsonResponse(w, http.StatusOK, job)
}
