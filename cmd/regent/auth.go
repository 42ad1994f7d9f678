package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"regent/internal/config"
	"regent/internal/reddit"
)

const authRedirectAddr = "localhost:8080"

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Obtain a Reddit refresh token",
	Long: `Starts a one-shot local callback server, prints the Reddit
authorization URL, and exchanges the returned code for a permanent
refresh token. Add the printed token to ` + redditConfigPath + ` and
start the agent.`,
	RunE: runAuth,
}

type authCallback struct {
	code string
	err  error
}

func runAuth(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadRedditConfig(redditConfigPath, false)
	if err != nil {
		return err
	}
	creds := reddit.Credentials{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		UserAgent:    cfg.UserAgent,
	}

	redirectURI := "http://" + authRedirectAddr
	nonce := uuid.NewString()

	fmt.Println("To connect your Reddit account to this application, open the following URL in your browser:")
	fmt.Println(creds.AuthorizeURL(redirectURI, nonce, reddit.AuthScopes))

	code, err := awaitCallback(cmd.Context(), nonce)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	token, err := reddit.NewClient(creds, logger).ExchangeCode(ctx, redirectURI, code)
	if err != nil {
		return err
	}

	fmt.Printf("Refresh token: %s\n", token)
	fmt.Printf("A refresh token has been generated. Add it in %s and start the application.\n", redditConfigPath)
	return nil
}

// awaitCallback serves the OAuth redirect until a single valid callback
// arrives, then shuts the listener down.
func awaitCallback(ctx context.Context, nonce string) (string, error) {
	listener, err := net.Listen("tcp", authRedirectAddr)
	if err != nil {
		return "", fmt.Errorf("listen on %s: %w", authRedirectAddr, err)
	}

	results := make(chan authCallback, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("state") != nonce:
			http.Error(w, "State mismatch.", http.StatusBadRequest)
			results <- authCallback{err: fmt.Errorf("authorization state mismatch")}
		case q.Get("error") != "":
			http.Error(w, q.Get("error"), http.StatusBadRequest)
			results <- authCallback{err: fmt.Errorf("authorization refused: %s", q.Get("error"))}
		case q.Get("code") == "":
			http.Error(w, "Missing code.", http.StatusBadRequest)
			results <- authCallback{err: fmt.Errorf("authorization callback missing code")}
		default:
			fmt.Fprintln(w, "Authorization received. You can close this tab.")
			results <- authCallback{code: q.Get("code")}
		}
	})

	server := &http.Server{Handler: mux}
	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Serve(listener) }()
	defer server.Close()

	select {
	case res := <-results:
		return res.code, res.err
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return "", fmt.Errorf("callback server closed before authorization")
		}
		return "", fmt.Errorf("callback server: %w", err)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
