package user_test

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/teas/core/user"
	"github.com/trezcool/teas/testutil"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name  string
		pwd   string
		attrs []string
		want  string
	}{
		{name: "too short", pwd: "s3cr3t!", want: "password must contain at least 8 characters"},
		{name: "all numeric", pwd: "0123456789", want: "password cannot be entirely numeric"},
		{name: "similar to username", pwd: "johndoe1", attrs: []string{"johndoe"}, want: "password is too similar to the user's attributes"},
		{name: "similar to email", pwd: "JohnDoe@mail", attrs: []string{"jdoe", "johndoe@mail.cd"}, want: "password is too similar to the user's attributes"},
		{name: "blank attrs ignored", pwd: "S3cure!Passw0rd", attrs: []string{"", ""}},
		{name: "valid", pwd: "S3cure!Passw0rd", attrs: []string{"jdoe", "John", "Doe", "jdoe@test.cd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, user.ValidatePassword(tt.pwd, tt.attrs...))
		})
	}
}

func TestNewUser_validation(t *testing.T) {
	validate, translator := testutil.NewValidator()

	tests := []struct {
		name string
		nu   user.NewUser
		want map[string]string
	}{
		{
			name: "required",
			want: map[string]string{"username": "this field is required", "password": "this field is required"},
		},
		{
			name: "invalid username and email",
			nu:   user.NewUser{Username: "j doe!", Email: "lol", Password: "S3cure!Passw0rd"},
			want: map[string]string{
				"username": "enter a valid username: only letters, numbers and @/./+/-/_ characters are allowed",
				"email":    "email must be a valid email address",
			},
		},
		{
			name: "password policy",
			nu:   user.NewUser{Username: "jdoe", Password: "12345678"},
			want: map[string]string{"password": "password cannot be entirely numeric"},
		},
		{
			name: "valid",
			nu:   user.NewUser{Username: "j.doe+work@corp", FirstName: "John", Email: "jdoe@test.cd", Password: "S3cure!Passw0rd"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(&tt.nu)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			got := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				got[fe.Field()] = fe.Translate(translator)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUser_names(t *testing.T) {
	usr := user.User{Username: "jdoe"}
	assert.Equal(t, "jdoe", usr.DisplayName())

	usr.FirstName, usr.LastName = "John", "Doe"
	assert.Equal(t, "John Doe", usr.FullName())

	require.NoError(t, usr.SetPassword("S3cure!Passw0rd"))
	assert.NoError(t, usr.CheckPassword("S3cure!Passw0rd"))
	assert.Error(t, usr.CheckPassword("wrong"))
}
