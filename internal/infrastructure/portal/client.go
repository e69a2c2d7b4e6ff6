package portal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"nocarchive-service/pkg/logger"
)

const (
	loginPath      = "/Default.aspx"
	stationOpsPath = "/Dialogues/Operations/StationOperations.aspx"
)

// Client is the HTTP implementation of BoardSource against the ASP.NET
// operations portal. It keeps the session cookie jar between calls.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
	logger   logger.Logger
}

// NewClient creates a new portal client
func NewClient(baseURL, username, password string, log logger.Logger) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		http: &http.Client{
			Jar:     jar,
			Timeout: 90 * time.Second,
		},
		logger: log,
	}
}

// Login performs the ASP.NET form login. The hidden state fields of the
// login page are carried over into the POST.
func (c *Client) Login(ctx context.Context) error {
	page, err := c.get(ctx, c.baseURL+loginPath)
	if err != nil {
		return fmt.Errorf("load login page: %w", err)
	}

	form, err := hiddenFields(page)
	if err != nil {
		return fmt.Errorf("parse login page: %w", err)
	}
	form.Set("UserName", c.username)
	form.Set("Password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSessionLost, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSessionLost, err)
	}

	// Still seeing the password field means the credentials were rejected.
	if isLoginPage(string(body)) {
		return ErrAuthFailed
	}

	c.logger.Info("Portal login successful")
	return nil
}

// Fetch requests the station-operations board for one day in one time
// mode and returns the raw HTML.
func (c *Client) Fetch(ctx context.Context, day time.Time, mode Mode) (string, error) {
	dateStr := strings.ToUpper(day.Format("02Jan06"))

	params := url.Values{}
	params.Set("Date", dateStr)
	params.Set("TimeMode", string(mode))

	html, err := c.get(ctx, c.baseURL+stationOpsPath+"?"+params.Encode())
	if err != nil {
		return "", err
	}

	// A bounced session lands back on the login page.
	if isLoginPage(html) {
		return "", ErrSessionLost
	}

	return html, nil
}

// Restart discards the cookie jar so the next Login starts a clean session
func (c *Client) Restart(ctx context.Context) error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	c.http.Jar = jar
	c.logger.Info("Portal session reset")
	return nil
}

func (c *Client) get(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSessionLost, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return "", fmt.Errorf("%w: portal returned %d", ErrSessionLost, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSessionLost, err)
	}
	return string(body), nil
}

// hiddenFields collects the hidden inputs (__VIEWSTATE and friends) the
// ASP.NET form round-trips on every POST.
func hiddenFields(html string) (url.Values, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	form := url.Values{}
	doc.Find("input[type='hidden']").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		value, _ := s.Attr("value")
		if name != "" {
			form.Set(name, value)
		}
	})
	return form, nil
}

func isLoginPage(html string) bool {
	return strings.Contains(html, "type='password'") ||
		strings.Contains(html, `type="password"`)
}
