package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/synaptica-ai/cardio/pkg/common/logger"
	"github.com/synaptica-ai/cardio/pkg/gateway/httpclient"
	"golang.org/x/oauth2"
)

// OIDCAuthenticator accepts access tokens the issuer's userinfo endpoint
// recognises.
type OIDCAuthenticator struct {
	config      *oauth2.Config
	issuer      string
	userInfoURL string
	httpClient  *http.Client
}

func NewOIDCAuthenticator(issuer, clientID, clientSecret string) (*OIDCAuthenticator, error) {
	if issuer == "" || clientID == "" {
		return nil, fmt.Errorf("OIDC configuration incomplete")
	}
	issuer = strings.TrimRight(issuer, "/")

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  fmt.Sprintf("%s/authorize", issuer),
			TokenURL: fmt.Sprintf("%s/token", issuer),
		},
		Scopes: []string{"openid", "profile", "email"},
	}

	return &OIDCAuthenticator{
		config:      config,
		issuer:      issuer,
		userInfoURL: fmt.Sprintf("%s/userinfo", issuer),
		httpClient:  httpclient.New(5 * time.Second),
	}, nil
}

var userInfoRetry = httpclient.Policy{
	Attempts:  2,
	BaseDelay: 100 * time.Millisecond,
	Retriable: httpclient.IsRetriable,
}

type userInfo struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}

func (a *OIDCAuthenticator) Verify(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: token is empty", ErrUnauthenticated)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	client := a.config.Client(ctx, &oauth2.Token{AccessToken: token, TokenType: "Bearer"})

	var resp *http.Response
	err := httpclient.Retry(ctx, userInfoRetry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.userInfoURL, nil)
		if err != nil {
			return err
		}
		resp, err = client.Do(req)
		return err
	})
	if err != nil {
		logger.Log.WithError(err).Warn("userinfo request failed")
		return nil, fmt.Errorf("%w: userinfo unreachable", ErrUnauthenticated)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: userinfo returned %d", ErrUnauthenticated, resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: decode userinfo: %v", ErrUnauthenticated, err)
	}
	if info.Subject == "" {
		return nil, fmt.Errorf("%w: userinfo missing subject", ErrUnauthenticated)
	}

	return &Principal{Subject: info.Subject, Email: info.Email, Role: info.Role, Issuer: a.issuer}, nil
}
