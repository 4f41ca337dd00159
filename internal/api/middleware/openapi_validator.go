package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eagle-eye.io/fieldagent/internal/api/openapi"
	apperrors "eagle-eye.io/fieldagent/internal/pkg/errors"
	"eagle-eye.io/fieldagent/internal/pkg/logger"
)

// Error codes written by the contract validator itself.
const (
	CodeOpenAPIRouteInvalid    = "OPENAPI_ROUTE_INVALID"
	CodeOpenAPIRequestInvalid  = "OPENAPI_REQUEST_INVALID"
	CodeOpenAPIResponseInvalid = "OPENAPI_RESPONSE_INVALID"
)

const responseContractMessage = "response does not conform to the agents API contract"

// MustOpenAPIValidator is NewOpenAPIValidator for static wiring; it panics
// if the embedded document cannot be loaded.
func MustOpenAPIValidator(basePath string) gin.HandlerFunc {
	mw, err := NewOpenAPIValidator(basePath)
	if err != nil {
		panic(fmt.Sprintf("init openapi validator: %v", err))
	}
	return mw
}

// NewOpenAPIValidator checks every request and response under basePath
// against the embedded agents OpenAPI document.
//
// Requests that break the contract (a non-integer id, a string count) are
// rejected with 400 before any handler runs, naming the offending field.
// Responses are buffered and replaced by a 500 when they break the contract.
// Paths and methods the document does not describe pass through untouched.
//
// It must run before ErrorHandler so error bodies are validated too.
func NewOpenAPIValidator(basePath string) (gin.HandlerFunc, error) {
	doc, err := openapi.Load()
	if err != nil {
		return nil, err
	}
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("create openapi router: %w", err)
	}

	v := &contractValidator{
		router:   router,
		basePath: normalizeBasePath(basePath),
		options: &openapi3filter.Options{
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
	}
	return v.handle, nil
}

type contractValidator struct {
	router   routers.Router
	basePath string
	options  *openapi3filter.Options
}

func (v *contractValidator) handle(c *gin.Context) {
	route, pathParams, err := v.findRoute(c.Request)
	if err != nil {
		if errors.Is(err, routers.ErrPathNotFound) || errors.Is(err, routers.ErrMethodNotAllowed) {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Code:    CodeOpenAPIRouteInvalid,
			Message: err.Error(),
		})
		return
	}

	reqInput := &openapi3filter.RequestValidationInput{
		Request:    c.Request,
		PathParams: pathParams,
		Route:      route,
		Options:    v.options,
	}
	if err := openapi3filter.ValidateRequest(c.Request.Context(), reqInput); err != nil {
		logger.Ctx(c.Request.Context()).Debug("Request rejected by the agents API contract",
			zap.String("method", c.Request.Method),
			zap.String("route", route.Path),
			zap.Error(err),
		)
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Code:        CodeOpenAPIRequestInvalid,
			Message:     err.Error(),
			FieldErrors: contractFieldErrors(err),
		})
		return
	}

	rec := newResponseRecorder(c.Writer)
	c.Writer = rec
	c.Next()
	c.Writer = rec.ResponseWriter

	respInput := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: reqInput,
		Status:                 rec.Status(),
		Header:                 rec.Header().Clone(),
		Options:                v.options,
	}
	if rec.Size() > 0 {
		respInput.SetBodyBytes(rec.body.Bytes())
	}

	if err := openapi3filter.ValidateResponse(c.Request.Context(), respInput); err != nil {
		logger.Ctx(c.Request.Context()).Error("Response violates the agents API contract",
			zap.String("method", c.Request.Method),
			zap.String("route", route.Path),
			zap.Int("status", rec.Status()),
			zap.Error(err),
		)
		rec.replaceJSON(http.StatusInternalServerError, ErrorResponse{
			Code:    CodeOpenAPIResponseInvalid,
			Message: responseContractMessage,
		})
	}

	if err := rec.flush(); err != nil {
		logger.Ctx(c.Request.Context()).Warn("Failed to write validated response", zap.Error(err))
	}
}

// findRoute resolves the request against the document, whose paths are
// relative to basePath. The request itself is not modified.
func (v *contractValidator) findRoute(req *http.Request) (*routers.Route, map[string]string, error) {
	u := *req.URL
	u.Path = normalizeValidationPath(v.basePath, req.URL.Path)
	if u.RawPath != "" {
		u.RawPath = normalizeValidationPath(v.basePath, u.RawPath)
	}
	probe := req.WithContext(req.Context())
	probe.URL = &u
	return v.router.FindRoute(probe)
}

func normalizeBasePath(basePath string) string {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" || basePath == "/" {
		return ""
	}
	return "/" + strings.Trim(basePath, "/")
}

func normalizeValidationPath(basePath, path string) string {
	switch {
	case basePath == "":
		if path == "" {
			return "/"
		}
		return path
	case path == basePath:
		return "/"
	case strings.HasPrefix(path, basePath+"/"):
		return strings.TrimPrefix(path, basePath)
	default:
		return path
	}
}

// contractFieldErrors names the parameter or body field a contract
// violation is about, in the same shape the service uses for its own
// validation failures.
func contractFieldErrors(err error) []apperrors.FieldError {
	var reqErr *openapi3filter.RequestError
	if !errors.As(err, &reqErr) {
		return nil
	}

	fe := apperrors.FieldError{Code: apperrors.ReasonBadFormat, Message: reqErr.Reason}
	switch {
	case reqErr.Parameter != nil:
		fe.Field = reqErr.Parameter.Name
	case reqErr.RequestBody != nil:
		fe.Field = "body"
		var schemaErr *openapi3.SchemaError
		if errors.As(reqErr.Err, &schemaErr) {
			if ptr := schemaErr.JSONPointer(); len(ptr) > 0 {
				fe.Field = strings.Join(ptr, ".")
			}
			fe.Message = schemaErr.Reason
		}
	default:
		return nil
	}

	if errors.Is(reqErr.Err, openapi3filter.ErrInvalidRequired) {
		fe.Code = apperrors.ReasonRequired
	}
	if fe.Message == "" && reqErr.Err != nil {
		fe.Message = reqErr.Err.Error()
	}
	return []apperrors.FieldError{fe}
}

// responseRecorder holds the handler's response until it has been checked
// against the contract.
type responseRecorder struct {
	gin.ResponseWriter
	body   bytes.Buffer
	status int
	wrote  bool
}

func newResponseRecorder(w gin.ResponseWriter) *responseRecorder {
	return &responseRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (w *responseRecorder) WriteHeader(code int) {
	if w.wrote {
		return
	}
	w.status = code
	w.wrote = true
}

func (w *responseRecorder) WriteHeaderNow() {
	w.wrote = true
}

func (w *responseRecorder) Write(data []byte) (int, error) {
	w.wrote = true
	return w.body.Write(data)
}

func (w *responseRecorder) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *responseRecorder) Status() int { return w.status }

func (w *responseRecorder) Size() int { return w.body.Len() }

func (w *responseRecorder) Written() bool { return w.wrote }

func (w *responseRecorder) replaceJSON(status int, payload ErrorResponse) {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte(`{"code":"` + CodeOpenAPIResponseInvalid + `","message":"` + responseContractMessage + `"}`)
	}
	w.status = status
	w.wrote = true
	w.body.Reset()
	w.body.Write(data)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
}

func (w *responseRecorder) flush() error {
	w.ResponseWriter.WriteHeader(w.status)
	if w.body.Len() == 0 {
		return nil
	}
	_, err := w.ResponseWriter.Write(w.body.Bytes())
	return err
}
