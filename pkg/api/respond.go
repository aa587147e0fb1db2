package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	log "github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/w3licence/licence-gateway/pkg/model"
)

const (
	maxBodyBytes  = 1 << 20
	messageOK     = "Success!"
	messagePended = "Transaction submitted"
)

// jobResponse is returned by every write endpoint
type jobResponse struct {
	Message  string   `json:"message"`
	JobID    string   `json:"jobId,omitempty"`
	Status   string   `json:"status,omitempty"`
	TxHashes []string `json:"txHashes,omitempty"`
	CID      string   `json:"cid,omitempty"`
}

// jsonResponse sends a JSON response
func jsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		log.Errorf("Error writing response: err: %v", err)
	}
}

// jsonError sends a JSON error response
func jsonError(w http.ResponseWriter, statusCode int, message string) {
	jsonResponse(w, statusCode, map[string]string{"message": message})
}

// errorStatus maps gateway errors to a status and a client message
func errorStatus(err error) (int, string) {
	var txErr *model.ChainTransactionError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, model.ErrUnauthenticated):
		return http.StatusUnauthorized, model.ErrUnauthenticated.Error()
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrInvalidPrice):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, model.ErrContentNotFound), errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.As(err, &txErr):
		if txErr.Reason == "" {
			return http.StatusUnprocessableEntity, model.ErrChainTransactionFailed.Error()
		}
		return http.StatusUnprocessableEntity, txErr.Reason
	case errors.Is(err, model.ErrStorageUploadFailed):
		return http.StatusBadGateway, model.ErrStorageUploadFailed.Error()
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, fmt.Sprintf("Request larger than %v bytes", tooLarge.Limit)
	}
	return http.StatusInternalServerError, "Internal error"
}

func writeError(w http.ResponseWriter, err error) {
	status, message := errorStatus(err)
	if status >= 500 {
		log.Errorf("Request failed: err: %v", err)
	}
	jsonError(w, status, message)
}

// requestValues reads a JSON or form encoded body into string values
func requestValues(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	values := map[string]string{}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		raw := map[string]interface{}{}
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
		dec.UseNumber()
		err := dec.Decode(&raw)
		if err != nil && err != io.EOF {
			return nil, model.ValidationError("invalid JSON body")
		}
		for key, value := range raw {
			switch v := value.(type) {
			case string:
				values[key] = v
			case json.Number:
				values[key] = v.String()
			case bool:
				values[key] = strconv.FormatBool(v)
			case nil:
			default:
				return nil, model.ValidationError("field %v must be a string or number", key)
			}
		}
		return values, nil
	}

	var err error
	if mediaType == "multipart/form-data" {
		err = r.ParseMultipartForm(maxBodyBytes)
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		err = r.ParseForm()
	}
	if err != nil {
		return nil, model.ValidationError("invalid form body")
	}
	for key := range r.Form {
		values[key] = r.Form.Get(key)
	}
	return values, nil
}

// respondJob waits for a write to finish within the request wait, or
// answers 202 with the job id when it is still running
func (s *Server) respondJob(w http.ResponseWriter, r *http.Request, job *model.TxJob, cid string) {
	if r.URL.Query().Get("async") == "true" {
		jsonResponse(w, http.StatusAccepted, newJobResponse(messagePended, job, cid))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.requestWait)
	defer cancel()
	done, err := s.tracker.Wait(ctx, job.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !done.Done() {
		jsonResponse(w, http.StatusAccepted, newJobResponse(messagePended, done, cid))
		return
	}
	jsonResponse(w, http.StatusOK, newJobResponse(messageOK, done, cid))
}

func newJobResponse(message string, job *model.TxJob, cid string) *jobResponse {
	hashes := make([]string, 0, len(job.TxHashes))
	for _, hash := range job.TxHashes {
		hashes = append(hashes, hash.Hex())
	}
	return &jobResponse{
		Message:  message,
		JobID:    job.ID,
		Status:   string(job.Status),
		TxHashes: hashes,
		CID:      cid,
	}
}
