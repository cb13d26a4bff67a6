package tieba

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/nao1215/tiebasign/internal/model"
)

// Fixed fields of the passport login form.
const (
	loginTpl        = "mn"
	loginAPIVersion = "v3"
	loginReturnURL  = "https://tieba.baidu.com/"
	loginStaticPage = "https://tieba.baidu.com/tb/static-common/html/pass/v3Jump.html"
	loginCallback   = "parent.bdPass.api.login._postCallback"
)

var (
	// errNoPattern finds the err_no in the login callback page.
	errNoPattern = regexp.MustCompile(`err_no=(-?\d+)`)

	// looseTokenPattern reads the token from responses that are not strict
	// JSON (single quotes, JSONP wrappers).
	looseTokenPattern = regexp.MustCompile(`["']token["']\s*:\s*["']([^"']+)["']`)
)

// Login authenticates the session in three exchanges: the login page for
// the initial cookies, the login token, then the login form.
func (c *Client) Login(ctx context.Context, creds model.Credentials) error {
	if !creds.Complete() {
		return ErrEmptyCredentials
	}

	if _, err := c.get(ctx, "login page", c.endpoints.LoginPage); err != nil {
		return err
	}

	resp, err := c.get(ctx, "login token", c.endpoints.LoginToken)
	if err != nil {
		return err
	}
	token, err := parseLoginToken(resp.Body())
	if err != nil {
		return fmt.Errorf("login token: %w", err)
	}
	c.logger.Debug("login token received")

	form := map[string]string{
		"username":   creds.Username,
		"password":   creds.Password,
		"token":      token,
		"tpl":        loginTpl,
		"apiver":     loginAPIVersion,
		"tt":         strconv.FormatInt(c.now().UnixMilli(), 10),
		"codestring": "",
		"isPhone":    "false",
		"safeflg":    "0",
		"u":          loginReturnURL,
		"staticpage": loginStaticPage,
		"loginType":  "1",
		"callback":   loginCallback,
	}

	resp, err = c.postForm(ctx, "login", c.endpoints.Login, form)
	if err != nil {
		return err
	}

	code := loginErrNo(resp.String())
	if code != 0 {
		return &LoginError{Code: code}
	}
	c.logger.Debug("login succeeded")
	return nil
}

// parseLoginToken reads data.token from the login token response.
func parseLoginToken(body []byte) (string, error) {
	if doc, err := decodeJSON("login token", body); err == nil {
		if data, ok := doc["data"].(map[string]any); ok {
			if token, ok := data["token"].(string); ok && token != "" {
				return token, nil
			}
		}
		return "", ErrMissingLoginToken
	}

	if m := looseTokenPattern.FindSubmatch(body); m != nil {
		return string(m[1]), nil
	}
	return "", ErrMissingLoginToken
}

// loginErrNo returns the err_no in a login response, or -1 when absent.
func loginErrNo(body string) int {
	m := errNoPattern.FindStringSubmatch(body)
	if m == nil {
		return -1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return -1
	}
	return n
}
