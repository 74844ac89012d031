package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// maxBodyBytes caps request bodies; category edits are small.
const maxBodyBytes = 1 << 20

// errBadRequest marks malformed input: unreadable JSON or invalid URL
// parameters.
var errBadRequest = errors.New("bad request")

// nameRequest is the body of AddRoot and AddChild. The name may be blank
// while editing; blank names are rejected on save.
type nameRequest struct {
	Name string `json:"name" validate:"max=255"`
}

// updateRequest is the body of a node PATCH. Absent fields are left alone.
type updateRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
}

// moveRequest is the body of a node move. A null or absent parent promotes
// the node to a root; Position optionally places it among its new siblings.
type moveRequest struct {
	Parent   *uint64 `json:"parent"`
	Position *int    `json:"position" validate:"omitempty,min=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeRequest reads a JSON body into dst and validates its struct tags.
// An empty body decodes to the zero value.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fieldError(verrs[0])
		}
		return err
	}
	return nil
}

// fieldError turns the first failed validator rule into a readable message.
func fieldError(fe validator.FieldError) error {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "max":
		return fmt.Errorf("%w: %s is too long (max %s characters)", errValidation, field, fe.Param())
	case "min":
		return fmt.Errorf("%w: %s must be at least %s", errValidation, field, fe.Param())
	default:
		return fmt.Errorf("%w: %s is invalid", errValidation, field)
	}
}
