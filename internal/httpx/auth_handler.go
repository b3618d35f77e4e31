package httpx

import (
	"net/http"
	"strings"

	"github.com/ariefcatur/go-inventory-orders/internal/auth"
	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	Gate *auth.Gate
	errs errorWriter
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterPublic mounts the routes that need no session.
func (h *AuthHandler) RegisterPublic(r chi.Router) {
	r.Post("/auth/login", h.login)
}

func (h *AuthHandler) RegisterSession(r chi.Router) {
	r.Post("/auth/logout", h.logout)
	r.Get("/auth/me", h.me)
}

func (h *AuthHandler) RegisterAdmin(r chi.Router) {
	r.Get("/users", h.listUsers)
	r.Post("/users", h.createUser)
	r.Put("/users/{id}/role", h.setRole)
	r.Patch("/users/{id}/active", h.setActive)
}

// login accepts JSON or an OAuth2 password form.
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			h.errs.write(w, r, errInvalidJSON)
			return
		}
		req.Username, req.Password = r.PostForm.Get("username"), r.PostForm.Get("password")
	} else if err := decodeJSON(w, r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	sess, err := h.Gate.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Gate.Logout(r.Context(), auth.BearerToken(r)); err != nil {
		h.errs.write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	writeJSON(w, http.StatusOK, id)
}

func (h *AuthHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	us, err := h.Gate.ListUsers(r.Context())
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	if us == nil {
		us = []auth.User{}
	}
	writeJSON(w, http.StatusOK, us)
}

type createUserReq struct {
	Username string    `json:"username"`
	Password string    `json:"password"`
	Role     auth.Role `json:"role"`
}

func (h *AuthHandler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserReq
	if err := decodeJSON(w, r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	if req.Role == "" {
		req.Role = auth.RoleEmployee
	}
	u, err := h.Gate.Register(r.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *AuthHandler) setRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role auth.Role `json:"role"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	u, err := h.Gate.SetRole(r.Context(), chi.URLParam(r, "id"), req.Role)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *AuthHandler) setActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active *bool `json:"is_active"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	if req.Active == nil {
		h.errs.write(w, r, errInvalidJSON)
		return
	}
	u, err := h.Gate.SetActive(r.Context(), chi.URLParam(r, "id"), *req.Active)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
