package utils

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"log"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hushcampus-dev/hushcampus/internal/errors"
)

var contentPolicy = bluemonday.StrictPolicy()

// SanitizeContent strips any markup from user-supplied text.
func SanitizeContent(content string) string {
	return strings.TrimSpace(contentPolicy.Sanitize(content))
}

type ContentValidator struct{}

func (e *ContentValidator) Text(text string) error {
	if utf8.RuneCountInString(text) > 10_000 {
		return &errors.ErrorWithStatusCode{Message: "Text is too long", StatusCode: 400}
	}
	if len(text) == 0 {
		return &errors.ErrorWithStatusCode{Message: "Text is too short", StatusCode: 400}
	}
	return nil
}

type ReasonValidator struct{}

func (e *ReasonValidator) Reason(reason string) error {
	if utf8.RuneCountInString(reason) > 500 {
		return &errors.ErrorWithStatusCode{Message: "Reason is too long", StatusCode: 400}
	}
	if len(reason) == 0 {
		return &errors.ErrorWithStatusCode{Message: "Reason is too short", StatusCode: 400}
	}
	return nil
}

// WriteErrorAndStatusCode maps the error taxonomy onto HTTP status codes.
func WriteErrorAndStatusCode(w http.ResponseWriter, err error) {
	if e, ok := err.(*errors.ErrorWithStatusCode); ok {
		http.Error(w, err.Error(), e.StatusCode)
		return
	}
	if errors.Is[*errors.ValidationError](err) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if errors.Is[*errors.PermissionError](err) {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	if stderrors.Is(err, errors.NotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if stderrors.Is(err, errors.InsufficientBalance) {
		http.Error(w, err.Error(), http.StatusPaymentRequired)
		return
	}
	if stderrors.Is(err, errors.ClaimFailed) {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	// default error is 500
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func DecodeValidate(r io.ReadCloser, body any) error {
	if err := json.NewDecoder(r).Decode(body); err != nil {
		log.Printf(err.Error())
		return &errors.ErrorWithStatusCode{Message: "Body is invalid json", StatusCode: 400}
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(body); err != nil {
		log.Printf(err.Error())
		return &errors.ErrorWithStatusCode{Message: "Required fields missing", StatusCode: 400}
	}
	return nil
}

func Decode(r io.ReadCloser, body any) error {
	if err := json.NewDecoder(r).Decode(body); err != nil {
		log.Printf(err.Error())
		return &errors.ErrorWithStatusCode{Message: "Body is invalid json", StatusCode: 400}
	}
	return nil
}
