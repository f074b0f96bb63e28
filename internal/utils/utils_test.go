package utils

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hushcampus-dev/hushcampus/internal/errors"
)

func TestSanitizeContent(t *testing.T) {
	assert.Equal(t, "hello", SanitizeContent("  hello  "))
	assert.Equal(t, "hello", SanitizeContent("<script>alert(1)</script>hello"))
	assert.Equal(t, "bold", SanitizeContent("<b>bold</b>"))
}

func TestContentValidator(t *testing.T) {
	v := &ContentValidator{}

	assert.NoError(t, v.Text("a perfectly fine post"))
	assert.Error(t, v.Text(""))
	assert.Error(t, v.Text(strings.Repeat("x", 10_001)))
	// rune count, not byte count
	assert.NoError(t, v.Text(strings.Repeat("й", 10_000)))
}

func TestReasonValidator(t *testing.T) {
	v := &ReasonValidator{}

	assert.NoError(t, v.Reason("spam"))
	assert.Error(t, v.Reason(""))
	assert.Error(t, v.Reason(strings.Repeat("x", 501)))
}

func TestWriteErrorAndStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"explicit status code wins", &errors.ErrorWithStatusCode{Message: "teapot", StatusCode: 418}, 418},
		{"validation maps to 400", &errors.ValidationError{Message: "bad"}, 400},
		{"permission maps to 403", &errors.PermissionError{Message: "no"}, 403},
		{"not found maps to 404", errors.NotFound, 404},
		{"insufficient balance maps to 402", errors.InsufficientBalance, 402},
		{"claim failure maps to 502", errors.ClaimFailed, 502},
		{"anything else maps to 500", io.ErrUnexpectedEOF, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteErrorAndStatusCode(w, tt.err)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestDecodeValidate(t *testing.T) {
	type body struct {
		Content string `json:"content" validate:"required"`
	}

	t.Run("valid body decodes", func(t *testing.T) {
		var b body
		err := DecodeValidate(io.NopCloser(strings.NewReader(`{"content":"hi"}`)), &b)
		require.NoError(t, err)
		assert.Equal(t, "hi", b.Content)
	})

	t.Run("invalid json is a 400", func(t *testing.T) {
		var b body
		err := DecodeValidate(io.NopCloser(strings.NewReader(`{nope`)), &b)
		require.Error(t, err)
		assert.Equal(t, 400, err.(*errors.ErrorWithStatusCode).StatusCode)
	})

	t.Run("missing required field is a 400", func(t *testing.T) {
		var b body
		err := DecodeValidate(io.NopCloser(strings.NewReader(`{}`)), &b)
		require.Error(t, err)
		assert.Equal(t, 400, err.(*errors.ErrorWithStatusCode).StatusCode)
	})
}
