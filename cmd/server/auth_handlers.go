package main

import (
	"errors"
	"log"
	"net/http"

	"jigsaw-online/internal/auth"
	"jigsaw-online/internal/model"
)

type authResponse struct {
	User    *model.User    `json:"user"`
	Profile *model.Profile `json:"profile,omitempty"`
}

func (s *server) setAuthCookie(w http.ResponseWriter, user *model.User) error {
	token, err := s.issuer.GenerateJWT(user.ID, user.Email)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.issuer.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req auth.SignUpRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 6 {
		http.Error(w, "Password must be at least 6 characters", http.StatusBadRequest)
		return
	}

	user, err := s.users.CreateUser(r.Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			http.Error(w, "User already exists", http.StatusConflict)
			return
		}
		log.Printf("Error creating user: %v", err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	if err := s.setAuthCookie(w, user); err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	log.Printf("Set auth cookie for new user %s", user.Email)

	profile, _ := s.users.GetProfile(r.Context(), user.ID)
	writeJSON(w, http.StatusCreated, authResponse{User: user, Profile: profile})
}

func (s *server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req auth.SignInRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	user, err := s.users.ValidateCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Printf("Sign-in failed for email %s: %v", req.Email, err)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := s.setAuthCookie(w, user); err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	profile, _ := s.users.GetProfile(r.Context(), user.ID)
	writeJSON(w, http.StatusOK, authResponse{User: user, Profile: profile})
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logged out successfully",
	})
}

func (s *server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	user, err := s.users.GetUserByID(r.Context(), id.UserID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	profile, err := s.users.GetProfile(r.Context(), id.UserID)
	if err != nil && !errors.Is(err, auth.ErrUserNotFound) {
		log.Printf("Error loading profile: %v", err)
	}
	writeJSON(w, http.StatusOK, authResponse{User: user, Profile: profile})
}
