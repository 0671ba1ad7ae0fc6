package tumblr

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/lhecker/tumblr-dl/semaphore"
)

const (
	DefaultBaseURL = "https://www.tumblr.com"

	// Tumblr rejects requests without a browser-like user agent.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
)

// TokenState holds the API token shared by all clients it's handed to.
// The lock is never held across network calls.
type TokenState struct {
	lock     sync.RWMutex
	apiToken string
}

func (s *TokenState) Token() (string, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.apiToken, len(s.apiToken) != 0
}

func (s *TokenState) SetToken(token string) {
	s.lock.Lock()
	s.apiToken = token
	s.lock.Unlock()
}

type Client struct {
	client    *http.Client
	baseURL   string
	userAgent string
	limiter   *rate.Limiter
	parsePool *semaphore.Semaphore
	state     *TokenState
}

type Option func(c *Client)

// WithBaseURL points the client at a different host, mostly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if len(userAgent) != 0 {
			c.userAgent = userAgent
		}
	}
}

// WithRateLimit limits the number of page requests per second.
// A limit <= 0 disables rate limiting.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		if limit <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithParseWorkers sets the number of pages which may be parsed concurrently.
func WithParseWorkers(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.parsePool = semaphore.NewSemaphore(n)
		}
	}
}

func WithTokenState(state *TokenState) Option {
	return func(c *Client) {
		if state != nil {
			c.state = state
		}
	}
}

func NewClient(client *http.Client, opts ...Option) *Client {
	if client == nil {
		client = http.DefaultClient
	}

	c := &Client{
		client:    client,
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		limiter:   rate.NewLimiter(rate.Inf, 0),
		parsePool: semaphore.NewSemaphore(runtime.NumCPU()),
		state:     &TokenState{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) HTTPClient() *http.Client {
	return c.client
}

func (c *Client) UserAgent() string {
	return c.userAgent
}

func (c *Client) TokenState() *TokenState {
	return c.state
}

// ScrapeAPIToken fetches the home page and stores the API token embedded into it.
func (c *Client) ScrapeAPIToken(ctx context.Context) (string, error) {
	state, err := c.getInitialState(ctx, c.baseURL+"/")
	if err != nil {
		return "", err
	}

	token := state.APIFetchStore.APIToken
	if len(token) == 0 {
		return "", ErrMissingAPIToken
	}

	c.state.SetToken(token)
	return token, nil
}

// ScrapePost fetches the permalink page of a post and returns the post itself.
func (c *Client) ScrapePost(ctx context.Context, blogIdentifier string, postID uint64) (*Post, error) {
	url := PostURL(c.baseURL, blogIdentifier, postID)

	state, err := c.getInitialState(ctx, url)
	if err != nil {
		return nil, err
	}

	post, err := FindPost(state, blogIdentifier, postID)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", url, err)
	}
	return post, nil
}

func (c *Client) getInitialState(ctx context.Context, url string) (*InitialState, error) {
	body, err := c.getPage(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	state, err := c.parseInitialState(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return state, nil
}

func (c *Client) getPage(ctx context.Context, url string) ([]byte, error) {
	err := c.limiter.Wait(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: res.StatusCode, Status: res.Status}
	}

	return io.ReadAll(res.Body)
}
