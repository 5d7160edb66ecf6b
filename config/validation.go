package config

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError is a single invalid field.
type ValidationError struct {
	FieldPath string
	Message   string
}

// ValidationErrors is returned for an unusable configuration. Startup must
// not continue past it.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "invalid config, %d error(s):", len(ve))
	for _, err := range ve {
		fmt.Fprintf(&sb, " %s: %s;", err.FieldPath, err.Message)
	}
	return strings.TrimSuffix(sb.String(), ";")
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := validate.RegisterValidation("hostport", validateHostPort); err != nil {
		panic(err)
	}
}

// validateHostPort accepts "host:port" where host is an IP literal
// (bracketed for IPv6), a hostname or empty.
func validateHostPort(fl validator.FieldLevel) bool {
	host, port, err := net.SplitHostPort(fl.Field().String())
	if err != nil {
		return false
	}

	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return false
	}

	if host == "" {
		return true
	}

	if _, err := netip.ParseAddr(host); err == nil {
		return true
	}

	return validate.Var(host, "hostname_rfc1123") == nil
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "field is required"
	case "min":
		return fmt.Sprintf("must be >= %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "hostport":
		return "must be in format 'host:port'"
	case "cidr":
		return "must be a CIDR block"
	case "url":
		return "must be a valid URL"
	case "endswith":
		return fmt.Sprintf("must end with %q", e.Param())
	default:
		return fmt.Sprintf("validation failed: %s", e.Tag())
	}
}

// Validate checks every field and returns ValidationErrors on failure.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}

		for _, e := range verrs {
			// drop the root struct name
			path := e.Namespace()
			if i := strings.IndexByte(path, '.'); i >= 0 {
				path = path[i+1:]
			}

			errs = append(errs, ValidationError{FieldPath: path, Message: validationMessage(e)})
		}
	}

	if c.Timeout.Duration <= 0 {
		errs = append(errs, ValidationError{FieldPath: "timeout", Message: "must be a positive duration"})
	}

	if c.Tor.Enabled && c.Upstream.HTTP3 {
		errs = append(errs, ValidationError{FieldPath: "upstream.http3", Message: "cannot be used together with tor"})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}
