package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Response is the envelope of every JSON reply
type Response struct {
	Status  string      `json:"status"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(data)
}

func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ValidationError renders every failed field as "field: reason", joined by "; "
func ValidationError(errs validator.ValidationErrors) Response {
	messages := make([]string, 0, len(errs))
	for _, err := range errs {
		messages = append(messages, strings.ToLower(err.Field())+": "+reason(err))
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(messages, "; "),
	}
}

func reason(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", err.Param())
	case "max":
		if err.Kind().String() == "slice" {
			return fmt.Sprintf("must have at most %s entries", err.Param())
		}
		return fmt.Sprintf("must be at most %s characters", err.Param())
	case "genre":
		return "is not a supported genre"
	case "tag":
		return "is not a supported tag"
	}
	return "failed " + err.Tag() + " validation"
}

func RequestOK(message string, data interface{}) Response {
	return Response{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	}
}
