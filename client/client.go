// Package client is a typed client for the FlashMind HTTP API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/adamspd/FlashMind/models"
)

// APIError is a non-2xx response. Detail is the server's {"detail"} message.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Token() string { return c.token }

func (c *Client) SetToken(token string) { c.token = token }

// do sends the request and decodes a JSON response into out when out is not
// nil. form is sent as an urlencoded body.
func (c *Client) do(ctx context.Context, method, path string, query, form url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &APIError{StatusCode: res.StatusCode, Detail: errorDetail(data)}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorDetail reads {"detail": "..."} and also the list form
// {"detail": [{"msg": "..."}]} some servers use for validation errors.
func errorDetail(data []byte) string {
	if !gjson.ValidBytes(data) {
		return strings.TrimSpace(string(data))
	}
	detail := gjson.GetBytes(data, "detail")
	if detail.IsArray() {
		return detail.Get("0.msg").String()
	}
	return detail.String()
}

func (c *Client) Register(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	form := url.Values{"email": {email}, "password": {password}}
	if err := c.do(ctx, http.MethodPost, "/register", nil, form, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*models.TokenResponse, error) {
	var token models.TokenResponse
	form := url.Values{"username": {email}, "password": {password}}
	if err := c.do(ctx, http.MethodPost, "/token", nil, form, &token); err != nil {
		return nil, err
	}
	c.token = token.AccessToken
	return &token, nil
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/logout", nil, url.Values{}, nil)
	c.token = ""
	return err
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Decks(ctx context.Context) ([]models.Deck, error) {
	var decks []models.Deck
	if err := c.do(ctx, http.MethodGet, "/decks", nil, nil, &decks); err != nil {
		return nil, err
	}
	return decks, nil
}

type GenerateParams struct {
	Text       string
	Title      string
	Difficulty string
}

func (p GenerateParams) form() url.Values {
	form := url.Values{"text": {p.Text}}
	if p.Title != "" {
		form.Set("title", p.Title)
	}
	if p.Difficulty != "" {
		form.Set("difficulty", p.Difficulty)
	}
	return form
}

func (c *Client) Generate(ctx context.Context, params GenerateParams) (*models.GenerateResponse, error) {
	var resp models.GenerateResponse
	if err := c.do(ctx, http.MethodPost, "/generate", nil, params.form(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateAsync queues generation and returns the job id.
func (c *Client) GenerateAsync(ctx context.Context, params GenerateParams) (string, error) {
	form := params.form()
	form.Set("async", "true")

	var resp struct {
		JobID string `json:"job_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/generate", nil, form, &resp); err != nil {
		return "", err
	}
	return resp.JobID, nil
}

func (c *Client) Job(ctx context.Context, jobID string) (*models.JobStatus, error) {
	var status models.JobStatus
	if err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(jobID), nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) Import(ctx context.Context, title, difficulty, text string) (*models.ImportResult, error) {
	form := url.Values{"text": {text}}
	if title != "" {
		form.Set("title", title)
	}
	if difficulty != "" {
		form.Set("difficulty", difficulty)
	}

	var result models.ImportResult
	if err := c.do(ctx, http.MethodPost, "/import", nil, form, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func deckPath(deckID int) string {
	return "/decks/" + strconv.Itoa(deckID)
}

func (c *Client) Cards(ctx context.Context, deckID int) ([]models.Card, error) {
	var cards []models.Card
	if err := c.do(ctx, http.MethodGet, deckPath(deckID), nil, nil, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

func (c *Client) DeleteDeck(ctx context.Context, deckID int) error {
	return c.do(ctx, http.MethodDelete, deckPath(deckID), nil, nil, nil)
}

func (c *Client) Attempts(ctx context.Context, deckID int) ([]models.Attempt, error) {
	var attempts []models.Attempt
	if err := c.do(ctx, http.MethodGet, deckPath(deckID)+"/attempts", nil, nil, &attempts); err != nil {
		return nil, err
	}
	return attempts, nil
}

func (c *Client) SaveAttempt(ctx context.Context, deckID, correct, wrong int) (*models.Attempt, error) {
	query := url.Values{
		"correct": {strconv.Itoa(correct)},
		"wrong":   {strconv.Itoa(wrong)},
	}
	var attempt models.Attempt
	if err := c.do(ctx, http.MethodPost, deckPath(deckID)+"/attempts", query, nil, &attempt); err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (c *Client) Review(ctx context.Context, cardID int, known bool) (*models.ReviewResponse, error) {
	query := url.Values{"known": {strconv.FormatBool(known)}}
	var resp models.ReviewResponse
	if err := c.do(ctx, http.MethodPost, "/cards/"+strconv.Itoa(cardID)+"/review", query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	if err := c.do(ctx, http.MethodGet, "/stats", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// StudyData is what the study screen needs for one deck.
type StudyData struct {
	Cards    []models.Card
	Attempts []models.Attempt
}

// LoadStudy fetches a deck's cards and attempt history concurrently. If
// either request fails the other is cancelled and the first error returned.
func (c *Client) LoadStudy(ctx context.Context, deckID int) (*StudyData, error) {
	var data StudyData
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		cards, err := c.Cards(gctx, deckID)
		data.Cards = cards
		return err
	})
	g.Go(func() error {
		attempts, err := c.Attempts(gctx, deckID)
		data.Attempts = attempts
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &data, nil
}
