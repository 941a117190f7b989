package controllers

import (
	"net/http"

	"github.com/mnhs-dev/registrar-backend/api/responses"
	"github.com/mnhs-dev/registrar-backend/internal/files"
)

// FileTypes publishes the upload policy table so clients can validate before
// sending bytes.
func FileTypes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{
			"file_types": files.Policies(),
		})
	}
}
