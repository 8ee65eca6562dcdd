package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackdown/internal/shared"
	"golang.org/x/oauth2"
)

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler handles the OAuth2 authorization code callback.
// Implements [Handler] for registration with a [Router].
type OAuthHandler struct {
	config      *oauth2.Config
	state       string
	resultChan  chan OAuthResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewOAuthHandler creates a callback handler. The state token should be
// cryptographically random for CSRF protection.
func NewOAuthHandler(config *oauth2.Config, state string) *OAuthHandler {
	return &OAuthHandler{
		config:     config,
		state:      state,
		resultChan: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP validates the state parameter, exchanges the authorization code
// for tokens, and sends the result through the result channel. Only the
// first callback is processed.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	state := r.URL.Query().Get("state")
	if state != h.state {
		err := fmt.Errorf("%w: state parameter mismatch", shared.ErrAuthFailed)
		h.send(OAuthResult{err: err})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		errParam := r.URL.Query().Get("error")
		errDesc := r.URL.Query().Get("error_description")
		err := fmt.Errorf("%w: %s - %s", shared.ErrAuthFailed, errParam, errDesc)
		h.send(OAuthResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		h.send(OAuthResult{err: fmt.Errorf("token exchange failed: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.send(OAuthResult{Token: token})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

// send delivers the OAuth result exactly once and closes the channel.
func (h *OAuthHandler) send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the channel that receives exactly one flow result.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Authorization Successful</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`

// Flow runs a complete authorization code flow for a provider.
type Flow struct {
	config *oauth2.Config
	addr   string
	logger *log.Logger

	// OpenURL presents the consent page to the user. Defaults to opening
	// the system browser; tests replace it.
	OpenURL func(url string) error
}

// NewFlow creates a flow that listens on addr (host:port) for the callback.
// The config's redirect URL must point at that address.
func NewFlow(config *oauth2.Config, addr string, logger *log.Logger) *Flow {
	return &Flow{
		config:  config,
		addr:    addr,
		logger:  logger,
		OpenURL: shared.OpenBrowser,
	}
}

// Authorize runs the flow: start the callback server, open the consent page,
// wait for the callback or context cancellation, then shut the server down.
func (f *Flow) Authorize(ctx context.Context) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", f.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", f.addr, err)
	}

	// A registered redirect URL is used as-is. When the config leaves the
	// port to the OS (":0"), derive the redirect from the bound address.
	config := *f.config
	if config.RedirectURL == "" || strings.Contains(config.RedirectURL, ":0/") {
		config.RedirectURL = fmt.Sprintf("http://%s/callback", listener.Addr().String())
	}

	state := shared.GenerateID()
	handler := NewOAuthHandler(&config, state)

	router := NewBasicRouter()
	router.Use(LoggingMiddleware(f.logger))
	router.Handler(handler)

	srv := &http.Server{Handler: router}
	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			f.logger.Error("callback server failed", "error", err)
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline)
	f.logger.Info("opening authorization page", "url", authURL)
	if err := f.OpenURL(authURL); err != nil {
		f.logger.Warn("could not open browser, visit the URL manually", "url", authURL, "error", err)
	}

	select {
	case result := <-handler.Result():
		if result.Error() != nil {
			return nil, result.Error()
		}
		return result.Token, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, ctx.Err())
	}
}
