package api

import (
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/w3licence/licence-gateway/pkg/gateway"
	"github.com/w3licence/licence-gateway/pkg/model"
)

const uploadMemoryBytes = 8 << 20

// uploadHandler stores a multipart file and registers it for the caller
func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.maxUploadBytes {
		writeError(w, &http.MaxBytesError{Limit: s.maxUploadBytes})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	err := r.ParseMultipartForm(uploadMemoryBytes)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, err)
			return
		}
		writeError(w, model.ValidationError("multipart body required"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close() // nolint: errcheck
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, errors.Wrap(err, "reading upload"))
		return
	}

	cid, job, err := s.contents.Upload(r.Context(), sessionFromContext(r.Context()), &gateway.UploadRequest{
		File:     data,
		MimeType: header.Header.Get("Content-Type"),
		Price:    r.FormValue("price"),
		Title:    r.FormValue("title"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	s.respondJob(w, r, job, cid)
}

// contentHandler lists every available record
func (s *Server) contentHandler(w http.ResponseWriter, r *http.Request) {
	contents, err := s.contents.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, gateway.NewContentRecords(contents, s.contents.GatewayHost()))
}

// myContentHandler lists the caller's records, disabled ones included
func (s *Server) myContentHandler(w http.ResponseWriter, r *http.Request) {
	contents, err := s.contents.ListMine(r.Context(), sessionFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, gateway.NewContentRecords(contents, s.contents.GatewayHost()))
}

func (s *Server) contentByCIDHandler(w http.ResponseWriter, r *http.Request) {
	values, err := requestValues(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	content, err := s.contents.ContentByCID(r.Context(), values["contentCid"])
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, gateway.NewContentRecord(content, s.contents.GatewayHost()))
}

func (s *Server) disableContentHandler(w http.ResponseWriter, r *http.Request) {
	values, err := requestValues(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	job, err := s.contents.SetDisabled(r.Context(), sessionFromContext(r.Context()), values["cid"])
	if err != nil {
		writeError(w, err)
		return
	}
	s.respondJob(w, r, job, job.CID)
}

func (s *Server) setTitleHandler(w http.ResponseWriter, r *http.Request) {
	values, err := requestValues(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	job, err := s.contents.SetTitle(r.Context(), sessionFromContext(r.Context()), values["cid"], values["title"])
	if err != nil {
		writeError(w, err)
		return
	}
	s.respondJob(w, r, job, job.CID)
}

func (s *Server) setPriceHandler(w http.ResponseWriter, r *http.Request) {
	values, err := requestValues(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	job, err := s.contents.SetPrice(r.Context(), sessionFromContext(r.Context()), values["cid"], values["price"])
	if err != nil {
		writeError(w, err)
		return
	}
	s.respondJob(w, r, job, job.CID)
}

// feeHandler returns the platform fee in wei as a JSON string
func (s *Server) feeHandler(w http.ResponseWriter, r *http.Request) {
	fee, err := s.contents.PlatformFee(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, fee.String())
}

func (s *Server) setFeeHandler(w http.ResponseWriter, r *http.Request) {
	values, err := requestValues(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	job, err := s.contents.SetPlatformFee(r.Context(), sessionFromContext(r.Context()), values["fee"])
	if err != nil {
		writeError(w, err)
		return
	}
	s.respondJob(w, r, job, "")
}
