package main

import (
	"net/http"

	"github.com/google/uuid"
)

// POST /v1/authentication/guest
//
// Issues a signed token for a new guest cart. Sending it as a bearer token
// keeps the same cart across devices that share it.
func (app *application) createGuestTokenHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := uuid.NewString()

	token, err := app.authenticator.GenerateToken(sessionID, app.config.auth.token.exp)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, map[string]string{
		"session_id": sessionID,
		"token":      token,
	})
}
