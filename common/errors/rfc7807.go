// Package errors renders registry failures as RFC 7807 problem details on
// the admin API.
package errors

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/halcyonex/assetadmin/internal/registry"
)

// ProblemDetails is the RFC 7807 error body.
type ProblemDetails struct {
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Status    int       `json:"status"`
	Detail    string    `json:"detail"`
	Instance  string    `json:"instance,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (p *ProblemDetails) Error() string {
	return fmt.Sprintf("[%d] %s: %s", p.Status, p.Title, p.Detail)
}

const typeBase = "https://api.halcyonex.io/errors/"

type mapping struct {
	status int
	slug   string
	title  string
}

var kindMappings = map[registry.ErrorKind]mapping{
	registry.KindAuthorization:       {http.StatusForbidden, "authorization", "Authorization Required"},
	registry.KindNotFound:            {http.StatusNotFound, "not-found", "Asset Not Found"},
	registry.KindAlreadyExists:       {http.StatusConflict, "already-exists", "Asset Already Exists"},
	registry.KindInvalidArgument:     {http.StatusBadRequest, "invalid-argument", "Invalid Argument"},
	registry.KindArithmeticUnderflow: {http.StatusUnprocessableEntity, "arithmetic-underflow", "Arithmetic Underflow"},
	registry.KindStaleData:           {http.StatusBadGateway, "stale-data", "Stale Market Data"},
}

// FromError converts any error into problem details for the given request
// path. Unclassified errors become a 500 without leaking internals.
func FromError(err error, instance string) *ProblemDetails {
	kind := registry.KindOf(err)
	m, ok := kindMappings[kind]
	if !ok {
		return &ProblemDetails{
			Type:      typeBase + "internal-error",
			Title:     "Internal Server Error",
			Status:    http.StatusInternalServerError,
			Detail:    "an unexpected error occurred",
			Instance:  instance,
			Timestamp: time.Now().UTC(),
		}
	}
	return &ProblemDetails{
		Type:      typeBase + m.slug,
		Title:     m.title,
		Status:    m.status,
		Detail:    err.Error(),
		Instance:  instance,
		Timestamp: time.Now().UTC(),
	}
}

// Handle writes err to the response as RFC 7807 JSON.
func Handle(c *gin.Context, err error) {
	problem := FromError(err, c.Request.URL.Path)
	c.Header("Content-Type", "application/problem+json")
	c.AbortWithStatusJSON(problem.Status, problem)
}

// BadRequest writes a validation failure as RFC 7807 JSON.
func BadRequest(c *gin.Context, detail string) {
	problem := &ProblemDetails{
		Type:      typeBase + "validation-error",
		Title:     "Validation Error",
		Status:    http.StatusBadRequest,
		Detail:    detail,
		Instance:  c.Request.URL.Path,
		Timestamp: time.Now().UTC(),
	}
	c.Header("Content-Type", "application/problem+json")
	c.AbortWithStatusJSON(problem.Status, problem)
}
