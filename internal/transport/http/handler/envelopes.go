package handler

import (
	"encoding/json"
	"net/http"
)

// ErrorEnvelope is the body of every failed response.
type ErrorEnvelope struct {
	Error string `json:"error"`
}

// MessageEnvelope acknowledges an action that returns no data.
type MessageEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LoginEnvelope wraps direct-login responses.
type LoginEnvelope struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	UID     string `json:"uid"`
}

// VerifyOTPEnvelope wraps OTP verification responses.
type VerifyOTPEnvelope struct {
	Success    bool   `json:"success"`
	Token      string `json:"token"`
	UserExists bool   `json:"userExists"`
	UID        string `json:"uid"`
}

type TokenEnvelope struct {
	UID string `json:"uid"`
}

type StatusEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorEnvelope{Error: msg})
}
