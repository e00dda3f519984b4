package http

import (
	"net/http"

	"seta/internal/auth"
	applog "seta/internal/log"
	"seta/internal/profile"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFromContext(r.Context())
	NewJSONResponse().Body(s.profiles.Get(owner)).Write(w)
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFromContext(r.Context())

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		if fields, ok := ProcessValidationErrors(err); ok {
			ValidationError(fields).Write(w)
			return
		}
		BadRequestError(err.Error()).Write(w)
		return
	}

	p, err := s.profiles.Put(owner, profile.Profile{DisplayName: req.DisplayName, AvatarRef: req.AvatarRef})
	if err != nil {
		ErrorResponse(http.StatusUnprocessableEntity, err.Error()).Write(w)
		return
	}
	NewJSONResponse().Body(p).Write(w)
}

// handleSignOut forgets everything held for the owner: the cached profile,
// the open dashboard and the record snapshot.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFromContext(r.Context())

	s.profiles.Clear(owner)
	s.dashboards.Close(owner)
	s.ledger.InvalidateOwner(owner)

	applog.FromContext(r.Context()).WithComponent(applog.ComponentAuth).InfoContext(r.Context(), "Signed out")
	w.WriteHeader(http.StatusNoContent)
}
