package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// sessionTTL bounds how long an issued session stays valid.
const sessionTTL = 24 * time.Hour

// ID tolerates the directory returning numeric record ids; the core always
// compares ids as strings.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

type User struct {
	ID            ID     `json:"id"`
	Name          string `json:"name"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	ContactNumber string `json:"contactNumber,omitempty"`
	PasswordHash  string `json:"passwordHash,omitempty"`
	ProfileImage  string `json:"profileImage,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
}

type Session struct {
	ID        ID         `json:"id"`
	UserID    ID         `json:"userId"`
	Token     string     `json:"token"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Directory is the external user/session service. It speaks the flat REST
// dialect of a json-server instance: query-parameter filters return arrays,
// single records live under /users/{id}.
type Directory struct {
	baseURL string
	client  *http.Client
}

func NewDirectory(baseURL string) *Directory {
	return &Directory{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// LookupSessionByToken returns nil when no session exists for the token.
func (d *Directory) LookupSessionByToken(ctx context.Context, token string) (*Session, error) {
	var sessions []Session
	query := url.Values{"token": {token}}
	if err := d.getJSON(ctx, "/sessions?"+query.Encode(), &sessions); err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return &sessions[0], nil
}

// LookupUserByID returns nil when the user does not exist.
func (d *Directory) LookupUserByID(ctx context.Context, id string) (*User, error) {
	var user User
	err := d.getJSON(ctx, "/users/"+url.PathEscape(id), &user)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (d *Directory) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	return d.findUser(ctx, url.Values{"email": {email}})
}

func (d *Directory) FindUserByUsername(ctx context.Context, username string) (*User, error) {
	return d.findUser(ctx, url.Values{"username": {username}})
}

func (d *Directory) findUser(ctx context.Context, query url.Values) (*User, error) {
	var users []User
	if err := d.getJSON(ctx, "/users?"+query.Encode(), &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

func (d *Directory) CreateUser(ctx context.Context, user User) (User, error) {
	var created User
	if err := d.postJSON(ctx, "/users", user, &created); err != nil {
		return User{}, err
	}
	return created, nil
}

// CreateSession issues a fresh opaque token for the user and registers it
// with the directory.
func (d *Directory) CreateSession(ctx context.Context, userID string) (Session, error) {
	now := time.Now().UTC()
	expires := now.Add(sessionTTL)
	session := Session{
		UserID:    ID(userID),
		Token:     uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: &expires,
	}

	var created Session
	if err := d.postJSON(ctx, "/sessions", session, &created); err != nil {
		return Session{}, err
	}
	return created, nil
}

func (d *Directory) DeleteSession(ctx context.Context, sessionID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, d.baseURL+"/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete session: directory returned %s", resp.Status)
	}
	return nil
}

type statusError struct {
	status int
	url    string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("directory returned %d for %s", e.status, e.url)
}

func isNotFound(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.status == http.StatusNotFound
}

func (d *Directory) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("directory request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &statusError{status: resp.StatusCode, url: path}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode directory response: %w", err)
	}
	return nil
}

func (d *Directory) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("directory request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &statusError{status: resp.StatusCode, url: path}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode directory response: %w", err)
	}
	return nil
}
