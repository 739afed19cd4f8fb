package controllers

import (
	"net/http"

	"github.com/troupekit/troupe-backend/api/middleware"
	"github.com/troupekit/troupe-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "private", "status": "ok"}
		if director := middleware.DirectorIDFromContext(r.Context()); director != "" {
			payload["director_id"] = director
		}
		responses.WriteSuccess(w, payload)
	}
}
