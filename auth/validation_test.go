package auth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skylens/go-api-client/apiclient"
	"github.com/skylens/go-api-client/auth"
)

func TestValidateCredentials(t *testing.T) {
	validator := auth.NewValidator()

	tests := []struct {
		name        string
		credentials apiclient.Credentials
		wantFields  []string
	}{
		{
			name:        "valid input",
			credentials: apiclient.Credentials{Email: testEmail, Password: testPassword},
		},
		{
			name:        "missing email",
			credentials: apiclient.Credentials{Password: testPassword},
			wantFields:  []string{"email"},
		},
		{
			name:        "malformed email",
			credentials: apiclient.Credentials{Email: "jane-at-example", Password: testPassword},
			wantFields:  []string{"email"},
		},
		{
			name:        "missing password",
			credentials: apiclient.Credentials{Email: testEmail},
			wantFields:  []string{"password"},
		},
		{
			name:       "everything missing",
			wantFields: []string{"email", "password"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fieldErrors := validator.ValidateCredentials(tt.credentials)
			require.Len(t, fieldErrors, len(tt.wantFields))
			for _, field := range tt.wantFields {
				require.Contains(t, fieldErrors, field)
			}
		})
	}
}

func TestValidateSignup(t *testing.T) {
	validator := auth.NewValidator()

	valid := apiclient.SignupDetails{
		Email:     testEmail,
		Password:  testPassword,
		FirstName: "Jane",
	}
	require.Empty(t, validator.ValidateSignup(valid))

	shortPassword := valid
	shortPassword.Password = "short"
	require.Contains(t, validator.ValidateSignup(shortPassword), "password")

	noName := valid
	noName.FirstName = "  "
	require.Contains(t, validator.ValidateSignup(noName), "first_name")
}
