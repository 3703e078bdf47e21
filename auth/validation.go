package auth

import (
	"strings"

	"github.com/skylens/go-api-client/apiclient"
)

const minPasswordLength = 8

// Validator provides client-side pre-validation of auth form input, so
// obviously malformed requests never reach the network. The server remains
// the authority; these checks only mirror its cheapest rules.
type Validator struct{}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateCredentials checks login input. Returns a field name -> message map,
// empty when the input is acceptable.
func (v *Validator) ValidateCredentials(credentials apiclient.Credentials) map[string]string {
	fieldErrors := map[string]string{}

	email := strings.TrimSpace(credentials.Email)
	if email == "" {
		fieldErrors["email"] = "email is required"
	} else if !looksLikeEmail(email) {
		fieldErrors["email"] = "invalid email format"
	}

	if credentials.Password == "" {
		fieldErrors["password"] = "password is required"
	}

	return fieldErrors
}

// ValidateSignup checks account creation input.
func (v *Validator) ValidateSignup(details apiclient.SignupDetails) map[string]string {
	fieldErrors := map[string]string{}

	email := strings.TrimSpace(details.Email)
	if email == "" {
		fieldErrors["email"] = "email is required"
	} else if !looksLikeEmail(email) {
		fieldErrors["email"] = "invalid email format"
	}

	if details.Password == "" {
		fieldErrors["password"] = "password is required"
	} else if len(details.Password) < minPasswordLength {
		fieldErrors["password"] = "password must be at least 8 characters"
	}

	if strings.TrimSpace(details.FirstName) == "" {
		fieldErrors["first_name"] = "first name is required"
	}

	return fieldErrors
}

// looksLikeEmail is a cheap shape check, not RFC validation.
func looksLikeEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return strings.Contains(email[at+1:], ".")
}
