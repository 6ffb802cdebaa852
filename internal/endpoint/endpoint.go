package endpoint

import (
	"fmt"
	"net/url"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Endpoint is a named URL to be health-checked. Names are labels only and
// need not be unique; an endpoint is identified by its position in the
// resolved list.
type Endpoint struct {
	Name string `mapstructure:"name" json:"name" yaml:"name"`
	URL  string `mapstructure:"url" json:"url" yaml:"url"`
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s (%s)", e.Name, e.URL)
}

// Validate reports whether the endpoint carries an absolute http(s) URL.
// Resolution never drops entries that fail here; an invalid URL is left to
// fail its probe.
func (e Endpoint) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.URL,
			validation.Required,
			validation.By(validateURL),
		),
	)
}

// Violation ties a validation error to a position in an endpoint list.
type Violation struct {
	Position int
	Err      error
}

// Invalid returns the endpoints that fail Validate, in list order.
func Invalid(endpoints []Endpoint) []Violation {
	var invalid []Violation
	for i, e := range endpoints {
		if err := e.Validate(); err != nil {
			invalid = append(invalid, Violation{Position: i, Err: err})
		}
	}
	return invalid
}

func validateURL(value interface{}) error {
	raw, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	parsedURL, err := url.Parse(raw)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	return nil
}
