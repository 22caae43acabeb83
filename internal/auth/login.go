package auth

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,20}$`)
	emailPattern    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	contactPattern  = regexp.MustCompile(`^[0-9]{10}$`)
)

// Login resolves the account by email first, then username, verifies the
// password against the stored bcrypt hash and opens a session.
func Login(ctx context.Context, dir *Directory, usernameOrEmail, password string) (Credentials, *User, error) {
	user, err := dir.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(usernameOrEmail)))
	if err != nil {
		return Credentials{}, nil, err
	}
	if user == nil {
		user, err = dir.FindUserByUsername(ctx, strings.TrimSpace(usernameOrEmail))
		if err != nil {
			return Credentials{}, nil, err
		}
	}
	if user == nil {
		return Credentials{}, nil, fmt.Errorf("username/email not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Credentials{}, nil, fmt.Errorf("invalid password")
	}

	session, err := dir.CreateSession(ctx, string(user.ID))
	if err != nil {
		return Credentials{}, nil, fmt.Errorf("create session: %w", err)
	}

	return Credentials{Token: session.Token, SessionID: string(session.ID)}, user, nil
}

// Logout deletes the server-side session. Local credential purge is the
// caller's job.
func Logout(ctx context.Context, dir *Directory, creds Credentials) error {
	if creds.SessionID == "" {
		return nil
	}
	return dir.DeleteSession(ctx, creds.SessionID)
}

type SignupInput struct {
	Name          string
	Username      string
	Email         string
	ContactNumber string
	Password      string
	ProfileImage  string
}

// Signup validates the registration fields, checks email/username
// uniqueness against the directory and creates the user with a bcrypt
// password hash. Plaintext passwords are never stored.
func Signup(ctx context.Context, dir *Directory, input SignupInput) (*User, error) {
	name := strings.TrimSpace(input.Name)
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	contact := strings.TrimSpace(input.ContactNumber)

	if len(name) < 2 {
		return nil, fmt.Errorf("name required (min 2 chars)")
	}
	if !usernamePattern.MatchString(username) {
		return nil, fmt.Errorf("username must be 3-20 chars (letters, digits, . _ -)")
	}
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("valid email required")
	}
	if !contactPattern.MatchString(contact) {
		return nil, fmt.Errorf("contact number must be 10 digits")
	}
	if !passwordAcceptable(input.Password) {
		return nil, fmt.Errorf("password must be at least 8 chars and include upper, lower and digit")
	}

	if existing, err := dir.FindUserByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("email already in use")
	}
	if existing, err := dir.FindUserByUsername(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := dir.CreateUser(ctx, User{
		Name:          name,
		Username:      username,
		Email:         email,
		ContactNumber: contact,
		PasswordHash:  string(hash),
		ProfileImage:  input.ProfileImage,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &created, nil
}

func passwordAcceptable(password string) bool {
	if len(password) < 8 {
		return false
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}
