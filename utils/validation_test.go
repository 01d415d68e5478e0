package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"notblank"`
	Age      int    `json:"age" validate:"gte=0,max=150"`
}

func validSignup() signupRequest {
	return signupRequest{
		Username: "alice",
		Email:    "alice@x.com",
		Password: "password123",
		FullName: "Alice",
		Age:      30,
	}
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		s := validSignup()
		assert.NoError(t, ValidateStruct(&s))
	})

	tests := []struct {
		name    string
		mutate  func(*signupRequest)
		field   string
		message string
	}{
		{
			name:    "missing username",
			mutate:  func(s *signupRequest) { s.Username = "" },
			field:   "username",
			message: "username is required",
		},
		{
			name:    "short username",
			mutate:  func(s *signupRequest) { s.Username = "al" },
			field:   "username",
			message: "username must be at least 3 characters",
		},
		{
			name:    "long username",
			mutate:  func(s *signupRequest) { s.Username = strings.Repeat("a", 51) },
			field:   "username",
			message: "username must be at most 50 characters",
		},
		{
			name:   "username with spaces",
			mutate: func(s *signupRequest) { s.Username = "alice smith" },
			field:  "username",
		},
		{
			name:    "invalid email",
			mutate:  func(s *signupRequest) { s.Email = "not-an-email" },
			field:   "email",
			message: "email must be a valid email",
		},
		{
			name:    "short password",
			mutate:  func(s *signupRequest) { s.Password = "short" },
			field:   "password",
			message: "password must be at least 8 characters",
		},
		{
			name:    "blank full name",
			mutate:  func(s *signupRequest) { s.FullName = "   " },
			field:   "full_name",
			message: "full_name is required",
		},
		{
			name:    "numeric max",
			mutate:  func(s *signupRequest) { s.Age = 200 },
			field:   "age",
			message: "age must be at most 150",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSignup()
			tt.mutate(&s)

			err := ValidateStruct(&s)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))

			fields := GetValidationFields(err)
			require.Contains(t, fields, tt.field)
			if tt.message != "" {
				assert.Equal(t, tt.message, fields[tt.field])
			}
		})
	}
}

func TestValidateStruct_MultibyteLength(t *testing.T) {
	s := validSignup()
	s.Password = "пароль12" // 8 characters, 14 bytes
	assert.NoError(t, ValidateStruct(&s))
}

func TestGetValidationFields_NonValidationError(t *testing.T) {
	assert.Nil(t, GetValidationFields(assert.AnError))
	assert.False(t, IsValidationError(assert.AnError))
}

func TestValidateUUID(t *testing.T) {
	assert.NoError(t, ValidateUUID("6ba7b810-9dad-11d1-80b4-00c04fd430c8"))
	assert.Error(t, ValidateUUID("123"))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("user@example.com"))
	assert.NoError(t, ValidateEmail("first.last+tag@sub.example.org"))
	assert.Error(t, ValidateEmail("user@"))
	assert.Error(t, ValidateEmail("user.example.com"))
}

func TestValidateStringLength(t *testing.T) {
	assert.NoError(t, ValidateStringLength("hello", "title", 5, 200))
	assert.EqualError(t, ValidateStringLength("hey", "title", 5, 200), "title must be at least 5 characters")
	assert.EqualError(t, ValidateStringLength(strings.Repeat("x", 201), "title", 5, 200), "title must be at most 200 characters")
	assert.NoError(t, ValidateStringLength("héllo", "title", 5, 5))
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Title string `json:"title"`
	}

	decode := func(body string) (payload, error) {
		var p payload
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		err := DecodeJSON(httptest.NewRecorder(), req, &p)
		return p, err
	}

	t.Run("valid body", func(t *testing.T) {
		p, err := decode(`{"title":"Hello"}`)
		require.NoError(t, err)
		assert.Equal(t, "Hello", p.Title)
	})

	t.Run("trailing whitespace is fine", func(t *testing.T) {
		_, err := decode("{\"title\":\"Hello\"}\n")
		assert.NoError(t, err)
	})

	t.Run("empty body", func(t *testing.T) {
		_, err := decode("")
		assert.EqualError(t, err, "request body must not be empty")
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := decode(`{"title":"Hello","author_id":"x"}`)
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := decode(`{"title":`)
		assert.Error(t, err)
	})

	t.Run("multiple objects", func(t *testing.T) {
		_, err := decode(`{"title":"a"}{"title":"b"}`)
		assert.EqualError(t, err, "request body must contain a single JSON object")
	})

	t.Run("oversized body", func(t *testing.T) {
		_, err := decode(`{"title":"` + strings.Repeat("x", MaxBodyBytes) + `"}`)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "larger than")
	})
}
