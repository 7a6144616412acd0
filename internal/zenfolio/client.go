package zenfolio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	// DefaultAPIURL is the JSON-RPC endpoint of the Zenfolio API.
	DefaultAPIURL = "https://api.zenfolio.com/api/1.8/zfapi.asmx"

	// TokenHeader carries the session token on authenticated requests.
	TokenHeader = "X-Zenfolio-Token"
)

var (
	// ErrNotAuthenticated is returned when there is no session token or the
	// service rejected it. Callers log in again and retry.
	ErrNotAuthenticated = errors.New("zenfolio: not authenticated")
	// ErrInvalidCredentials is returned when the service rejects the login or password.
	ErrInvalidCredentials = errors.New("zenfolio: invalid credentials")
)

// Fault codes the service returns in the JSON-RPC error object.
const (
	faultNotAuthenticated   = "E_NOTAUTHENTICATED"
	faultInvalidCredentials = "E_INVALIDCREDENTIALS"
	faultAccessDenied       = "E_NOACCESS"
)

// InformationLevel selects how much of an object the service returns.
type InformationLevel string

const (
	LevelMinimal InformationLevel = "Minimal"
	Level1       InformationLevel = "Level1"
	Level2       InformationLevel = "Level2"
	LevelFull    InformationLevel = "Full"
)

// Photo is the part of a Zenfolio photo the uploader uses.
type Photo struct {
	Id         int64  `json:"Id"`
	FileName   string `json:"FileName"`
	Title      string `json:"Title,omitempty"`
	UploadedOn *struct {
		Value string `json:"Value"`
	} `json:"UploadedOn,omitempty"`
}

// PhotoSet is a gallery or collection.
type PhotoSet struct {
	Id         int64   `json:"Id"`
	Title      string  `json:"Title"`
	Type       string  `json:"Type"`
	PhotoCount int     `json:"PhotoCount"`
	UploadUrl  string  `json:"UploadUrl"`
	Photos     []Photo `json:"Photos"`
}

// Group is a node of the account's gallery tree.
type Group struct {
	Id       int64             `json:"Id"`
	Title    string            `json:"Title"`
	Elements []json.RawMessage `json:"Elements"`
}

// RPCError is a fault reported by the service.
type RPCError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("zenfolio: %s", e.Message)
	}
	return fmt.Sprintf("zenfolio: %s: %s", e.Code, e.Message)
}

// Is lets errors.Is match auth faults against the package sentinels.
func (e *RPCError) Is(target error) bool {
	switch target {
	case ErrNotAuthenticated:
		return e.Code == faultNotAuthenticated || e.Code == faultAccessDenied
	case ErrInvalidCredentials:
		return e.Code == faultInvalidCredentials
	}
	return false
}

type rpcRequest struct {
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
	Id     int64         `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
	Id     int64           `json:"id"`
}

// Options configures a Client.
type Options struct {
	APIURL    string
	UserAgent string
	// RPCTimeout bounds each API call, including retries.
	RPCTimeout time.Duration
	// UploadTimeout bounds each upload request.
	UploadTimeout     time.Duration
	RetryMax          int
	RequestsPerSecond float64
	// TokenLifetime is how long a session token is trusted. Zero means for the
	// whole run.
	TokenLifetime time.Duration
	Logger        *slog.Logger
}

// Client talks to the Zenfolio JSON-RPC API.
type Client struct {
	apiURL        string
	userAgent     string
	rpcTimeout    time.Duration
	tokenLifetime time.Duration
	rpc           *retryablehttp.Client
	upload        *http.Client
	limiter       *rate.Limiter
	nextID        atomic.Int64

	mu      sync.Mutex
	session oauth2.TokenSource
}

// NewClient creates a client. It is not logged in.
func NewClient(opts Options) *Client {
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.RetryMax
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 10 * time.Second
	rc.Logger = leveledLogger{opts.Logger}
	// Hand the last response back so fault bodies can be decoded.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.HTTPClient.Timeout = opts.RPCTimeout

	return &Client{
		apiURL:        opts.APIURL,
		userAgent:     opts.UserAgent,
		rpcTimeout:    opts.RPCTimeout,
		tokenLifetime: opts.TokenLifetime,
		rpc:           rc,
		upload:        &http.Client{Timeout: opts.UploadTimeout},
		limiter:       rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
	}
}

// UploadClient returns the HTTP client for photo uploads. It has no retry
// layer, so request bodies are streamed rather than buffered.
func (c *Client) UploadClient() *http.Client {
	return c.upload
}

// UserAgent returns the configured User-Agent, possibly empty.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// expiredSource is the fallback behind the cached session token. Sessions are
// never renewed silently, so once the token lapses the caller must log in again.
type expiredSource struct{}

func (expiredSource) Token() (*oauth2.Token, error) {
	return nil, ErrNotAuthenticated
}

// maxExpiryDelta matches the margin oauth2 applies by default.
const maxExpiryDelta = 10 * time.Second

// expiryDelta is how early a token with the given lifetime is treated as
// expired. Short lifetimes get a proportionally short margin, so a fresh
// token is always usable.
func expiryDelta(lifetime time.Duration) time.Duration {
	d := lifetime / 10
	if d > maxExpiryDelta {
		d = maxExpiryDelta
	}
	if d <= 0 {
		// Zero would select the oauth2 default.
		d = time.Nanosecond
	}
	return d
}

// Login authenticates with a plain login and password. It returns false with
// a nil error when the service rejects the credentials.
func (c *Client) Login(ctx context.Context, login, password string) (bool, error) {
	var token string
	err := c.call(ctx, "", "AuthenticatePlain", []interface{}{login, password}, &token)
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			// Any fault here means the service answered and refused us.
			return false, nil
		}
		return false, err
	}
	if token == "" {
		return false, nil
	}

	tok := &oauth2.Token{AccessToken: token, TokenType: TokenHeader}
	if c.tokenLifetime > 0 {
		tok.Expiry = time.Now().Add(c.tokenLifetime)
	}
	c.mu.Lock()
	c.session = oauth2.ReuseTokenSourceWithExpiry(tok, expiredSource{}, expiryDelta(c.tokenLifetime))
	c.mu.Unlock()
	return true, nil
}

// Logout drops the session token.
func (c *Client) Logout() {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
}

// Token returns the current session token.
func (c *Client) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	src := c.session
	c.mu.Unlock()
	if src == nil {
		return "", ErrNotAuthenticated
	}
	tok, err := src.Token()
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// LoadGallery loads a photo set. Photos are included only when includePhotos is set.
func (c *Client) LoadGallery(ctx context.Context, id int64, level InformationLevel, includePhotos bool) (*PhotoSet, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}
	var set PhotoSet
	if err := c.call(ctx, token, "LoadPhotoSet", []interface{}{id, level, includePhotos}, &set); err != nil {
		return nil, fmt.Errorf("failed to load gallery %d: %w", id, err)
	}
	return &set, nil
}

// ListGalleries returns every photo set in the account's group hierarchy,
// depth first.
func (c *Client) ListGalleries(ctx context.Context, login string) ([]PhotoSet, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}
	var root Group
	if err := c.call(ctx, token, "LoadGroupHierarchy", []interface{}{login}, &root); err != nil {
		return nil, fmt.Errorf("failed to load group hierarchy for %s: %w", login, err)
	}
	var sets []PhotoSet
	if err := flattenGroup(root, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

func flattenGroup(g Group, sets *[]PhotoSet) error {
	for _, raw := range g.Elements {
		var head struct {
			Type string `json:"$type"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return fmt.Errorf("failed to decode group element: %w", err)
		}
		switch head.Type {
		case "Group":
			var child Group
			if err := json.Unmarshal(raw, &child); err != nil {
				return fmt.Errorf("failed to decode group: %w", err)
			}
			if err := flattenGroup(child, sets); err != nil {
				return err
			}
		case "PhotoSet":
			var set PhotoSet
			if err := json.Unmarshal(raw, &set); err != nil {
				return fmt.Errorf("failed to decode photo set: %w", err)
			}
			*sets = append(*sets, set)
		}
	}
	return nil
}

// AddPhotoToCollection adds an uploaded photo to a collection.
func (c *Client) AddPhotoToCollection(ctx context.Context, collectionID int64, photoID string) error {
	id, err := strconv.ParseInt(photoID, 10, 64)
	if err != nil {
		return fmt.Errorf("photo id %q is not numeric: %w", photoID, err)
	}
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}
	if err := c.call(ctx, token, "CollectionAddPhoto", []interface{}{collectionID, id}, nil); err != nil {
		return fmt.Errorf("failed to add photo %d to collection %d: %w", id, collectionID, err)
	}
	return nil
}

// call performs one JSON-RPC call and decodes the result into out, if non-nil.
func (c *Client) call(ctx context.Context, token, method string, params []interface{}, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if c.rpcTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.rpcTimeout)
		defer cancel()
	}

	id := c.nextID.Add(1)
	body, err := json.Marshal(rpcRequest{Method: method, Params: params, Id: id})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if token != "" {
		req.Header.Set(TokenHeader, token)
	}

	resp, err := c.rpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%s: status %s: %w", method, resp.Status, ErrNotAuthenticated)
	}
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s: unexpected status %s: %s", method, resp.Status, bytes.TrimSpace(respBody))
		}
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %s", method, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

// leveledLogger adapts slog to retryablehttp.LeveledLogger.
type leveledLogger struct {
	l *slog.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.l.Error(msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.l.Debug(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.l.Debug(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.l.Warn(msg, keysAndValues...)
}
