// Package supplier implements the client for the Benzy flight API: the
// shared credential cache, the express-search orchestration with its
// polling loop, the two-step pricing protocol, and the itinerary, payment,
// retrieval and ancillary (seat/SSR) calls.
//
// Every supplier response carries a Code field; "200" means success and the
// human-readable reason for anything else lives in a Msg array.  The
// pricing call additionally treats "1500" as a normal price-change variant.
package supplier

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net"
    "net/http"
    "strings"
    "time"

    "github.com/sirupsen/logrus"
    "golang.org/x/time/rate"

    "github.com/iliyamo/flight-booking/internal/apperr"
    "github.com/iliyamo/flight-booking/internal/config"
)

// Client talks to the supplier API.  It owns the process-wide credential
// cache; construct one Client per process and share it.
type Client struct {
    cfg     config.SupplierConfig
    httpc   *http.Client
    limiter *rate.Limiter
    creds   *credentialCache
    clock   Clock
    log     *logrus.Entry
}

// New builds a Client from the supplier config.  The outbound limiter keeps
// us under the supplier's connection budget: polling alone can issue several
// requests per second across concurrent searches.
func New(cfg config.SupplierConfig, log *logrus.Logger) *Client {
    return &Client{
        cfg: cfg,
        // Per-call deadlines come from request contexts; the client-level
        // timeout is only a safety net.
        httpc:   &http.Client{Timeout: cfg.SearchDeadline + cfg.RequestTimeout},
        limiter: rate.NewLimiter(rate.Limit(10), 20),
        creds:   &credentialCache{},
        clock:   realClock{},
        log:     log.WithField("component", "supplier"),
    }
}

// respEnvelope is embedded in every supplier response type.  Code "200"
// means success; Msg carries the human-readable reason otherwise.
type respEnvelope struct {
    Code string   `json:"Code"`
    Msg  []string `json:"Msg"`
}

func (e respEnvelope) firstMsg() string {
    if len(e.Msg) > 0 {
        return e.Msg[0]
    }
    return ""
}

// postJSON performs one authenticated POST against the supplier and decodes
// the body into out.  It classifies transport failures (timeout vs request
// error) but does not inspect the supplier Code; callers that need plain
// success semantics use call() instead.
func (c *Client) postJSON(ctx context.Context, op, url, token string, payload, out any, timeout time.Duration) error {
    if err := c.limiter.Wait(ctx); err != nil {
        return &apperr.UpstreamRequestError{Op: op, Err: err}
    }

    body, err := json.Marshal(payload)
    if err != nil {
        return &apperr.UpstreamRequestError{Op: op, Err: err}
    }

    reqCtx, cancel := context.WithTimeout(ctx, timeout)
    defer cancel()

    req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
    if err != nil {
        return &apperr.UpstreamRequestError{Op: op, Err: err}
    }
    req.Header.Set("Content-Type", "application/json")
    if token != "" {
        req.Header.Set("Authorization", "Bearer "+token)
    }

    resp, err := c.httpc.Do(req)
    if err != nil {
        if isTimeout(err) {
            return &apperr.UpstreamTimeoutError{Op: op, Err: err}
        }
        return &apperr.UpstreamRequestError{Op: op, Err: err}
    }
    defer resp.Body.Close()

    if resp.StatusCode >= http.StatusBadRequest {
        return &apperr.UpstreamRequestError{Op: op, Err: fmt.Errorf("http status %d", resp.StatusCode)}
    }

    if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
        return &apperr.UpstreamRequestError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
    }
    return nil
}

// call is postJSON plus enforcement of the supplier success code.  out must
// embed respEnvelope.
func (c *Client) call(ctx context.Context, op, url, token string, payload any, out interface{ code() (string, string) }, timeout time.Duration) error {
    if err := c.postJSON(ctx, op, url, token, payload, out, timeout); err != nil {
        return err
    }
    if code, msg := out.code(); code != codeSuccess {
        return &apperr.UpstreamRequestError{Op: op, Code: code, Msg: msg}
    }
    return nil
}

func (e respEnvelope) code() (string, string) { return e.Code, e.firstMsg() }

const (
    codeSuccess     = "200"
    codePriceChange = "1500"
)

func isTimeout(err error) bool {
    if errors.Is(err, context.DeadlineExceeded) {
        return true
    }
    var ne net.Error
    return errors.As(err, &ne) && ne.Timeout()
}

// cleanString strips the escape characters and stray quotes the supplier
// sometimes wraps around correlation tokens.
func cleanString(s string) string {
    s = strings.ReplaceAll(s, `\"`, `"`)
    s = strings.ReplaceAll(s, `\`, "")
    s = strings.TrimPrefix(s, `"`)
    s = strings.TrimSuffix(s, `"`)
    return strings.TrimSpace(s)
}

func (c *Client) flightsURL(path string) string {
    return strings.TrimRight(c.cfg.FlightsBaseURL, "/") + path
}

func (c *Client) utilsURL(path string) string {
    return strings.TrimRight(c.cfg.UtilsBaseURL, "/") + path
}
