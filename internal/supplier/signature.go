package supplier

import (
    "context"
    "sync"
    "time"

    "github.com/iliyamo/flight-booking/internal/apperr"
)

// Credentials is the bearer token set issued by the supplier's signature
// endpoint.  One set is shared process-wide; callers must treat it as
// read-only.
type Credentials struct {
    Token     string
    ClientID  string
    TUI       string
    ExpiresAt time.Time
}

// credentialHorizon is deliberately shorter than the supplier's actual
// token lifetime so the token is renewed before it can expire upstream.
const credentialHorizon = 47 * time.Hour

// refreshCall is the single pending-operation slot.  All callers that
// arrive while a refresh is in flight wait on done and read the same
// outcome; there is never more than one upstream signature request at a
// time.
type refreshCall struct {
    done  chan struct{}
    creds Credentials
    err   error
}

type credentialCache struct {
    mu       sync.Mutex
    creds    Credentials
    inflight *refreshCall
}

// GetCredentials returns cached credentials when they are still inside the
// expiry horizon, otherwise refreshes them.  Exactly one refresh runs at a
// time; concurrent callers are coalesced onto it and all receive the same
// credentials or the same error.  A failed refresh clears the slot so the
// next call retries.
func (c *Client) GetCredentials(ctx context.Context) (Credentials, error) {
    cc := c.creds
    cc.mu.Lock()
    if cc.creds.Token != "" && c.clock.Now().Before(cc.creds.ExpiresAt) {
        creds := cc.creds
        cc.mu.Unlock()
        return creds, nil
    }
    if call := cc.inflight; call != nil {
        cc.mu.Unlock()
        select {
        case <-call.done:
            return call.creds, call.err
        case <-ctx.Done():
            return Credentials{}, ctx.Err()
        }
    }
    call := &refreshCall{done: make(chan struct{})}
    cc.inflight = call
    cc.mu.Unlock()

    creds, err := c.generateSignature(ctx)

    cc.mu.Lock()
    if err == nil {
        cc.creds = creds
    }
    cc.inflight = nil
    cc.mu.Unlock()

    call.creds, call.err = creds, err
    close(call.done)
    return creds, err
}

type signatureRequest struct {
    MerchantID string `json:"MerchantID"`
    APIKey     string `json:"ApiKey"`
    ClientID   string `json:"ClientID"`
    Password   string `json:"Password"`
    AgentCode  string `json:"AgentCode"`
    BrowserKey string `json:"BrowserKey"`
    Key        string `json:"Key"`
}

type signatureResponse struct {
    respEnvelope
    Token    string `json:"Token"`
    ClientID string `json:"ClientID"`
    TUI      string `json:"TUI"`
}

// generateSignature performs the upstream signature call.  The merchant
// credential set is forwarded verbatim; AgentCode is always blank for this
// integration.
func (c *Client) generateSignature(ctx context.Context) (Credentials, error) {
    payload := signatureRequest{
        MerchantID: c.cfg.MerchantID,
        APIKey:     c.cfg.APIKey,
        ClientID:   c.cfg.ClientID,
        Password:   c.cfg.Password,
        BrowserKey: c.cfg.BrowserKey,
        Key:        c.cfg.SigningKey,
    }

    var resp signatureResponse
    if err := c.postJSON(ctx, "signature", c.utilsURL("/Utils/Signature"), "", payload, &resp, c.cfg.RequestTimeout); err != nil {
        c.log.WithError(err).Error("signature request failed")
        return Credentials{}, &apperr.UpstreamAuthError{Err: err}
    }
    if resp.Code != codeSuccess {
        err := &apperr.UpstreamRequestError{Op: "signature", Code: resp.Code, Msg: resp.firstMsg()}
        c.log.WithField("code", resp.Code).Error("signature rejected")
        return Credentials{}, &apperr.UpstreamAuthError{Err: err}
    }

    creds := Credentials{
        Token:     resp.Token,
        ClientID:  cleanString(resp.ClientID),
        TUI:       cleanString(resp.TUI),
        ExpiresAt: c.clock.Now().Add(credentialHorizon),
    }
    c.log.WithField("expires_at", creds.ExpiresAt.Format(time.RFC3339)).Info("supplier credentials refreshed")
    return creds, nil
}
