package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/chronicleink/newswave/internal/config"
	"github.com/chronicleink/newswave/internal/models"
)

// Firebase — клиент REST API Firebase Authentication.
type Firebase struct {
	apiKey         string
	identityURL    string
	secureTokenURL string
	requestURI     string
	httpClient     *http.Client
}

// NewFirebase создаёт клиента по настройкам identity.
func NewFirebase(cfg config.Identity) *Firebase {
	timeout := cfg.TimeoutIdentity
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Firebase{
		apiKey:         cfg.APIKey,
		identityURL:    strings.TrimRight(cfg.IdentityURL, "/"),
		secureTokenURL: strings.TrimRight(cfg.SecureTokenURL, "/"),
		requestURI:     cfg.RequestURI,
		httpClient:     &http.Client{Timeout: timeout},
	}
}

type accountResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	PhotoURL     string `json:"photoUrl"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (f *Firebase) SignUp(ctx context.Context, email, password string) (models.IdentityAssertion, error) {
	const op = "identity.Firebase.SignUp"
	return f.account(ctx, op, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
}

func (f *Firebase) SignInWithPassword(ctx context.Context, email, password string) (models.IdentityAssertion, error) {
	const op = "identity.Firebase.SignInWithPassword"
	return f.account(ctx, op, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
}

func (f *Firebase) SignInWithIdp(ctx context.Context, providerID, idpToken string) (models.IdentityAssertion, error) {
	const op = "identity.Firebase.SignInWithIdp"
	postBody := url.Values{}
	postBody.Set("id_token", idpToken)
	postBody.Set("providerId", providerID)
	return f.account(ctx, op, "accounts:signInWithIdp", map[string]any{
		"postBody":            postBody.Encode(),
		"requestUri":          f.requestURI,
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	})
}

func (f *Firebase) UpdateProfile(ctx context.Context, idToken, displayName, photoURL string) (models.IdentityAssertion, error) {
	const op = "identity.Firebase.UpdateProfile"
	body := map[string]any{
		"idToken":           idToken,
		"returnSecureToken": true,
	}
	if displayName != "" {
		body["displayName"] = displayName
	}
	if photoURL != "" {
		body["photoUrl"] = photoURL
	}
	return f.account(ctx, op, "accounts:update", body)
}

func (f *Firebase) Refresh(ctx context.Context, refreshToken string) (models.IdentityAssertion, error) {
	const op = "identity.Firebase.Refresh"

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		f.secureTokenURL+"/token?key="+url.QueryEscape(f.apiKey), strings.NewReader(form.Encode()))
	if err != nil {
		return models.IdentityAssertion{}, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out refreshResponse
	if err := f.do(req, &out); err != nil {
		return models.IdentityAssertion{}, fmt.Errorf("%s: %w", op, err)
	}
	a, err := assertionFromToken(out.IDToken, out.RefreshToken, models.IdentityAssertion{
		UID:       out.UserID,
		ExpiresAt: expiresAt(out.ExpiresIn),
	})
	if err != nil {
		return models.IdentityAssertion{}, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// SignOut у REST API нет серверного шага: сессия живёт только в токенах клиента.
func (f *Firebase) SignOut(_ context.Context, _ string) error {
	return nil
}

func (f *Firebase) account(ctx context.Context, op, method string, body any) (models.IdentityAssertion, error) {
	req, err := f.newRequest(ctx, method, body)
	if err != nil {
		return models.IdentityAssertion{}, fmt.Errorf("%s: %w", op, err)
	}
	var out accountResponse
	if err := f.do(req, &out); err != nil {
		return models.IdentityAssertion{}, fmt.Errorf("%s: %w", op, err)
	}
	a, err := assertionFromToken(out.IDToken, out.RefreshToken, models.IdentityAssertion{
		UID:         out.LocalID,
		DisplayName: out.DisplayName,
		Email:       out.Email,
		PhotoURL:    out.PhotoURL,
		ExpiresAt:   expiresAt(out.ExpiresIn),
	})
	if err != nil {
		return models.IdentityAssertion{}, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

func (f *Firebase) newRequest(ctx context.Context, method string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		f.identityURL+"/"+method+"?key="+url.QueryEscape(f.apiKey), &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (f *Firebase) do(req *http.Request, out any) error {
	resp, err := f.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: unexpected status %s", ErrNetworkUnavailable, resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		var er errorResponse
		if err := json.Unmarshal(data, &er); err != nil || er.Error.Message == "" {
			return errors.New("unexpected status: " + resp.Status)
		}
		return errorFromCode(er.Error.Message)
	}
	return json.Unmarshal(data, out)
}

func expiresAt(expiresIn string) time.Time {
	sec, err := strconv.Atoi(expiresIn)
	if err != nil || sec <= 0 {
		return time.Time{}
	}
	return time.Now().Add(time.Duration(sec) * time.Second)
}
