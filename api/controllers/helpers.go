package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/troupekit/troupe-backend/api/middleware"
	pkgerrors "github.com/troupekit/troupe-backend/pkg/errors"
)

// actingDirector resolves the authenticated director from the request
// context. Routes behind the auth middleware always have one; a missing or
// malformed value means the middleware chain is miswired.
func actingDirector(ctx context.Context) (uuid.UUID, error) {
	raw := middleware.DirectorIDFromContext(ctx)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "director context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid director id")
	}
	return id, nil
}

// pathUUID parses a chi URL parameter as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}
