package shared

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// selfValidator lets a request type replace tag-based validation with its own
// logic.
type selfValidator interface {
	Validate() error
}

// validate is shared across requests; validator.Validate caches struct
// metadata and is safe for concurrent use.
var validate = validator.New()

// DecodeJSON decodes the request body into v.
func DecodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// ValidateRequest checks v against its `validate` struct tags, unless v
// implements selfValidator, in which case its Validate method wins.
func ValidateRequest(v interface{}) error {
	if sv, ok := v.(selfValidator); ok {
		return sv.Validate()
	}
	return validate.Struct(v)
}
