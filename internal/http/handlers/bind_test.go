package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/pethub/internal/domain/pet"
	"github.com/geocoder89/pethub/internal/domain/user"
	"github.com/geocoder89/pethub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

type bindErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			JSON   string                `json:"json"`
			Form   string                `json:"form"`
			Field  string                `json:"field"`
			Fields []handlers.FieldError `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func decodeBindError(t *testing.T, w *httptest.ResponseRecorder) bindErrorResponse {
	t.Helper()

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}

	if resp.Error.Code != "invalid_request" {
		t.Fatalf("unexpected code: %s", resp.Error.Code)
	}
	return resp
}

func assertRequiredFields(t *testing.T, resp bindErrorResponse, want ...string) {
	t.Helper()

	found := map[string]handlers.FieldError{}
	for _, fieldErr := range resp.Error.Details.Fields {
		found[fieldErr.Field] = fieldErr
	}

	for _, field := range want {
		fieldErr, ok := found[field]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", field, resp.Error.Details.Fields)
		}
		if fieldErr.Rule != "required" {
			t.Fatalf("field %q rule mismatch: got %q want required", field, fieldErr.Rule)
		}
		if fieldErr.Message == "" {
			t.Fatalf("field %q should include a non-empty message", field)
		}
	}
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	r := gin.New()
	r.POST("/signup", func(ctx *gin.Context) {
		var req user.SignUpRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusOK)
	})

	w := postJSON(r, "/signup", `{"email":"ada@example.com"}`)

	resp := decodeBindError(t, w)
	assertRequiredFields(t, resp, "first_name", "last_name", "phone_number", "password")
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	r := gin.New()
	r.POST("/login", func(ctx *gin.Context) {
		var req user.LoginRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusOK)
	})

	w := postJSON(r, "/login", `{"email":42,"password":"x"}`)

	resp := decodeBindError(t, w)
	if resp.Error.Details.JSON != "invalid_json_type" {
		t.Fatalf("expected invalid_json_type, got %q", resp.Error.Details.JSON)
	}
	if resp.Error.Details.Field != "email" {
		t.Fatalf("expected detail field to be email, got %q", resp.Error.Details.Field)
	}
	if len(resp.Error.Details.Fields) == 0 || resp.Error.Details.Fields[0].Rule != "type" {
		t.Fatalf("expected a type field error, got %+v", resp.Error.Details.Fields)
	}
}

func TestBindJSON_SyntaxError(t *testing.T) {
	r := gin.New()
	r.POST("/login", func(ctx *gin.Context) {
		var req user.LoginRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusOK)
	})

	w := postJSON(r, "/login", `{"email":`)

	resp := decodeBindError(t, w)
	if resp.Error.Details.JSON != "invalid_json_syntax" && resp.Error.Details.JSON != "" {
		t.Fatalf("unexpected json detail %q", resp.Error.Details.JSON)
	}
}

func postForm(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBindForm_ValidationErrorsUseFormFieldNames(t *testing.T) {
	r := gin.New()
	r.POST("/form", func(ctx *gin.Context) {
		var form pet.PetForm
		if !handlers.BindForm(ctx, &form) {
			return
		}
		ctx.Status(http.StatusOK)
	})

	w := postForm(r, "/form", "age=3&breed=Beagle")

	resp := decodeBindError(t, w)
	assertRequiredFields(t, resp, "name", "status")
}

func TestBindForm_NonNumericAge(t *testing.T) {
	r := gin.New()
	r.POST("/form", func(ctx *gin.Context) {
		var form pet.PetForm
		if !handlers.BindForm(ctx, &form) {
			return
		}
		ctx.Status(http.StatusOK)
	})

	w := postForm(r, "/form", "name=Rex&status=Active&age=three")

	resp := decodeBindError(t, w)
	if resp.Error.Details.Form != "invalid_form_type" {
		t.Fatalf("expected invalid_form_type, got %s", w.Body.String())
	}
}

func TestBindForm_EmptyAgeIsZero(t *testing.T) {
	var got pet.PetForm

	r := gin.New()
	r.POST("/form", func(ctx *gin.Context) {
		if !handlers.BindForm(ctx, &got) {
			return
		}
		ctx.Status(http.StatusOK)
	})

	w := postForm(r, "/form", "name=Rex&status=Active&age=")
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
	if got.Age != 0 || got.Name != "Rex" {
		t.Fatalf("unexpected form: %+v", got)
	}
}
