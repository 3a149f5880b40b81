package httpapi

import (
	"net/http"

	"cryptoJournal/internal/app"
	"cryptoJournal/internal/domain"
)

type registerPayload struct {
	Username         string `json:"username" validate:"required,min=3,max=64"`
	Password         string `json:"password" validate:"required,min=6"`
	Email            string `json:"email" validate:"omitempty,email"`
	RegistrationCode string `json:"registrationCode"`
}

type loginPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type profilePayload struct {
	Email         string `json:"email" validate:"omitempty,email"`
	Bio           string `json:"bio" validate:"max=1000"`
	RiskTolerance string `json:"riskTolerance" validate:"omitempty,oneof=low medium high"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload registerPayload
	if !s.decode(w, r, &payload) {
		return
	}
	user, err := s.auth.Register(r.Context(), app.RegisterInput{
		Username:         payload.Username,
		Password:         payload.Password,
		Email:            payload.Email,
		RegistrationCode: payload.RegistrationCode,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if !s.decode(w, r, &payload) {
		return
	}
	session, user, err := s.auth.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, loginResponse{Token: session.Token, User: user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), tokenFromContext(r.Context())); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	s.writeJSON(w, r, http.StatusOK, user)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	var payload profilePayload
	if !s.decode(w, r, &payload) {
		return
	}
	updated, err := s.auth.UpdateProfile(r.Context(), user, app.ProfileInput{
		Email:         payload.Email,
		Bio:           payload.Bio,
		RiskTolerance: payload.RiskTolerance,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, updated)
}
