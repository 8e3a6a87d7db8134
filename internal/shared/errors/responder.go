package errors

import (
	"errors"

	"github.com/gin-gonic/gin"
)

// ContentTypeProblemJSON is the media type every error response carries.
const ContentTypeProblemJSON = "application/problem+json"

// Responder writes Problem Details responses for the storefront handlers.
// Problem type URIs are relative ("/problems/insufficient-stock"); a BaseURI
// turns them absolute so clients can dereference them.
type Responder struct {
	BaseURI string
}

// NewResponder creates a responder. An empty baseURI keeps type URIs relative.
func NewResponder(baseURI string) *Responder {
	return &Responder{BaseURI: baseURI}
}

// DefaultResponder serves relative problem type URIs.
var DefaultResponder = NewResponder("")

// Respond writes the problem with the problem+json content type. The instance
// defaults to the request path, so a client report names the exact route that
// failed.
func (r *Responder) Respond(c *gin.Context, problem ProblemDetail) {
	if r.BaseURI != "" && len(problem.Type) > 0 && problem.Type[0] == '/' {
		problem.Type = r.BaseURI + problem.Type
	}
	if problem.Instance == "" {
		problem.Instance = c.Request.URL.Path
	}
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.JSON(problem.Status, problem)
}

// RespondError writes err as a problem. Errors that already are a
// ProblemDetail pass through unchanged; anything else becomes a 500 so an
// unmapped storage or gateway fault never leaks a bare error body.
func (r *Responder) RespondError(c *gin.Context, err error) {
	var problem ProblemDetail
	if errors.As(err, &problem) {
		r.Respond(c, problem)
		return
	}
	r.Respond(c, ErrInternal.WithDetail(err.Error()))
}

// NotFound writes a 404 for a named resource, e.g. NotFound(c, "book", 42).
func (r *Responder) NotFound(c *gin.Context, resourceType string, identifier any) {
	r.Respond(c, NewNotFoundProblem(resourceType, identifier))
}

// ValidationFailed writes a 400 carrying per-field messages.
func (r *Responder) ValidationFailed(c *gin.Context, fieldErrors map[string]string) {
	r.Respond(c, NewValidationProblem(fieldErrors))
}

// Respond writes a problem through the default responder.
func Respond(c *gin.Context, problem ProblemDetail) {
	DefaultResponder.Respond(c, problem)
}

// RespondError writes an error through the default responder.
func RespondError(c *gin.Context, err error) {
	DefaultResponder.RespondError(c, err)
}
