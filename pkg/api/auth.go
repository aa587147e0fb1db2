package api

import (
	"net/http"
	"time"
)

type authResponse struct {
	Token     string `json:"token"`
	Address   string `json:"address"`
	ExpiresAt string `json:"expiresAt"`
}

type nonceResponse struct {
	Nonce     string `json:"nonce"`
	Message   string `json:"message"`
	ExpiresAt string `json:"expiresAt"`
}

// authHandler exchanges a signed message for a bearer token
func (s *Server) authHandler(w http.ResponseWriter, r *http.Request) {
	values, err := requestValues(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	token, session, err := s.gate.Authenticate(r.Context(), values["account"], values["signature"],
		values["message"])
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, &authResponse{
		Token:     token,
		Address:   session.Address.Hex(),
		ExpiresAt: session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// nonceHandler issues the message a wallet has to sign to log in
func (s *Server) nonceHandler(w http.ResponseWriter, r *http.Request) {
	values, err := requestValues(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	challenge, err := s.gate.Challenge(r.Context(), values["account"])
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, &nonceResponse{
		Nonce:     challenge.Nonce,
		Message:   challenge.Message,
		ExpiresAt: challenge.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// disconnectHandler ends the session of the bearer token
func (s *Server) disconnectHandler(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		jsonError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	err := s.gate.Disconnect(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Disconnected"})
}
