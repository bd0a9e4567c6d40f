package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"

	googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	githubUserURL     = "https://api.github.com/user"
	githubEmailsURL   = "https://api.github.com/user/emails"
)

// OAuthIdentity is the provider-verified identity behind an authorization code.
type OAuthIdentity struct {
	Subject string
	Email   string
}

// OAuthProvider runs one provider's authorization-code flow.
type OAuthProvider interface {
	AuthURL(state string) string
	Identify(ctx context.Context, code string) (*OAuthIdentity, error)
}

type oauth2Provider struct {
	conf    *oauth2.Config
	profile func(ctx context.Context, client *http.Client) (*OAuthIdentity, error)
}

func (p *oauth2Provider) AuthURL(state string) string {
	return p.conf.AuthCodeURL(state)
}

func (p *oauth2Provider) Identify(ctx context.Context, code string) (*OAuthIdentity, error) {
	token, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange: %w", err)
	}
	return p.profile(ctx, p.conf.Client(ctx, token))
}

// NewGoogleProvider returns nil when clientID is empty.
func NewGoogleProvider(clientID, clientSecret, callbackURL string) OAuthProvider {
	if clientID == "" {
		return nil
	}
	return newGoogleProvider(&oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  callbackURL,
		Endpoint:     endpoints.Google,
		Scopes:       []string{"openid", "email", "profile"},
	}, googleUserInfoURL)
}

func newGoogleProvider(conf *oauth2.Config, userInfoURL string) *oauth2Provider {
	return &oauth2Provider{
		conf: conf,
		profile: func(ctx context.Context, client *http.Client) (*OAuthIdentity, error) {
			var info struct {
				Sub   string `json:"sub"`
				Email string `json:"email"`
			}
			if err := getJSON(ctx, client, userInfoURL, &info); err != nil {
				return nil, err
			}
			return &OAuthIdentity{Subject: info.Sub, Email: info.Email}, nil
		},
	}
}

// NewGitHubProvider returns nil when clientID is empty.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) OAuthProvider {
	if clientID == "" {
		return nil
	}
	return newGitHubProvider(&oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  callbackURL,
		Endpoint:     endpoints.GitHub,
		Scopes:       []string{"user:email"},
	}, githubUserURL, githubEmailsURL)
}

func newGitHubProvider(conf *oauth2.Config, userURL, emailsURL string) *oauth2Provider {
	return &oauth2Provider{
		conf: conf,
		profile: func(ctx context.Context, client *http.Client) (*OAuthIdentity, error) {
			var user struct {
				ID    int64  `json:"id"`
				Email string `json:"email"`
			}
			if err := getJSON(ctx, client, userURL, &user); err != nil {
				return nil, err
			}

			email := user.Email
			if email == "" {
				// Private emails are only listed on the emails endpoint.
				var emails []struct {
					Email    string `json:"email"`
					Primary  bool   `json:"primary"`
					Verified bool   `json:"verified"`
				}
				if err := getJSON(ctx, client, emailsURL, &emails); err != nil {
					return nil, err
				}
				for _, e := range emails {
					if e.Primary && e.Verified {
						email = e.Email
						break
					}
				}
			}
			return &OAuthIdentity{Subject: strconv.FormatInt(user.ID, 10), Email: email}, nil
		},
	}
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("fetch profile: status %d: %s", resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
