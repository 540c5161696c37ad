package gh

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"context"

	"github.com/golang-jwt/jwt/v5"
)

// AppAuth mints GitHub App installation tokens. It implements
// TokenSource for deployments where no interactive gh login exists
// (CI, bots). Tokens are cached until shortly before expiry.
type AppAuth struct {
	AppID      string
	PrivateKey string
	Repo       string // owner/repo used to resolve the installation

	mu      sync.Mutex
	token   string
	expires time.Time
}

// Token returns a valid installation token, minting a new one when the
// cached token is within a minute of expiring.
func (a *AppAuth) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && time.Until(a.expires) > time.Minute {
		return a.token, nil
	}

	jwtToken, err := a.generateJWT()
	if err != nil {
		return "", err
	}

	installationID, err := a.getInstallationID(ctx, jwtToken)
	if err != nil {
		return "", err
	}

	token, expires, err := a.getInstallationAccessToken(ctx, jwtToken, installationID)
	if err != nil {
		return "", err
	}

	a.token = token
	a.expires = expires
	return token, nil
}

// generateJWT creates a short-lived app JWT signed with the private key.
func (a *AppAuth) generateJWT() (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(a.PrivateKey))
	if err != nil {
		return "", fmt.Errorf("failed to parse private key: %w", err)
	}

	appID, err := strconv.ParseInt(a.AppID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid app ID: %w", err)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
		Issuer:    strconv.FormatInt(appID, 10),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}

	return signedToken, nil
}

func (a *AppAuth) getInstallationID(ctx context.Context, jwtToken string) (int64, error) {
	parts := strings.Split(a.Repo, "/")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid repo format: %s (expected owner/repo)", a.Repo)
	}

	url := fmt.Sprintf("https://api.github.com/repos/%s/%s/installation", parts[0], parts[1])
	body, err := a.appAPICall(ctx, http.MethodGet, url, jwtToken, http.StatusOK)
	if err != nil {
		return 0, err
	}

	var result struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("failed to decode installation response: %w", err)
	}
	return result.ID, nil
}

func (a *AppAuth) getInstallationAccessToken(ctx context.Context, jwtToken string, installationID int64) (string, time.Time, error) {
	url := fmt.Sprintf("https://api.github.com/app/installations/%d/access_tokens", installationID)
	body, err := a.appAPICall(ctx, http.MethodPost, url, jwtToken, http.StatusCreated)
	if err != nil {
		return "", time.Time{}, err
	}

	var result struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to decode token response: %w", err)
	}
	return result.Token, result.ExpiresAt, nil
}

func (a *AppAuth) appAPICall(ctx context.Context, method, url, jwtToken string, wantStatus int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+jwtToken)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GitHub App API call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != wantStatus {
		return nil, fmt.Errorf("GitHub API error: %d - %s", resp.StatusCode, string(body))
	}
	return body, nil
}
