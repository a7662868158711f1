// Package client is a Go client for the dwitter REST API with an
// optimistic local cache: mutations are applied to cached views before the
// server confirms them and rolled back exactly if the request fails.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"dwitter/internal/models"
)

// APIError is the server's JSON error envelope.
type APIError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// DweetPage mirrors the server's list envelope.
type DweetPage struct {
	Results      []models.DweetView `json:"results"`
	Page         int                `json:"page"`
	TotalPages   int                `json:"totalPages"`
	TotalResults int                `json:"totalResults"`
}

type dweetEnvelope struct {
	Dweet *models.DweetView `json:"dweet"`
}

type authEnvelope struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Query is the closed filter set accepted by the list endpoint.
type Query struct {
	Author   string
	Likes    string
	Redweets string
	ReplyTo  string
	SortBy   string
	Limit    int
}

func (q Query) values() url.Values {
	values := url.Values{}
	if q.Author != "" {
		values.Set("author", q.Author)
	}
	if q.Likes != "" {
		values.Set("likes", q.Likes)
	}
	if q.Redweets != "" {
		values.Set("redweets", q.Redweets)
	}
	if q.ReplyTo != "" {
		values.Set("replyTo", q.ReplyTo)
	}
	if q.SortBy != "" {
		values.Set("sortBy", q.SortBy)
	}
	if q.Limit != 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	return values
}

// key is the canonical cache key for this query.
func (q Query) key() string {
	return "list?" + q.values().Encode()
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	token      string
	authUserID string
	cache      *Cache
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: http.DefaultClient,
		cache:      NewCache(),
	}
}

// SetAuth installs the bearer token and the id of the authenticated user.
// The user id drives the optimistic like/unlike effects.
func (c *Client) SetAuth(token, userID string) {
	c.token = token
	c.authUserID = userID
}

// Register creates an account and authenticates the client with it.
func (c *Client) Register(name, username, email, password string) (*models.User, error) {
	body := map[string]string{"name": name, "username": username, "email": email, "password": password}
	var out authEnvelope
	if err := c.do(http.MethodPost, "/api/auth/register", body, &out); err != nil {
		return nil, err
	}
	c.SetAuth(out.Token, out.User.ID)
	return out.User, nil
}

// Login authenticates the client.
func (c *Client) Login(email, password string) (*models.User, error) {
	body := map[string]string{"email": email, "password": password}
	var out authEnvelope
	if err := c.do(http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return nil, err
	}
	c.SetAuth(out.Token, out.User.ID)
	return out.User, nil
}

// ListDweets returns one page for the query, served from cache when the
// cached entry is fresh.
func (c *Client) ListDweets(q Query, page int) (*DweetPage, error) {
	if page == 0 {
		page = 1
	}
	key := q.key()

	if cached := c.cache.getPage(key, page); cached != nil {
		return cached, nil
	}

	values := q.values()
	values.Set("page", strconv.Itoa(page))

	var out DweetPage
	if err := c.do(http.MethodGet, "/api/dweets?"+values.Encode(), nil, &out); err != nil {
		return nil, err
	}

	c.cache.putPage(key, page, &out)
	return &out, nil
}

// FeedDweets returns one page of the following feed.
func (c *Client) FeedDweets(page int) (*DweetPage, error) {
	if page == 0 {
		page = 1
	}

	if cached := c.cache.getPage(feedKey, page); cached != nil {
		return cached, nil
	}

	var out DweetPage
	if err := c.do(http.MethodGet, "/api/dweets/feed?page="+strconv.Itoa(page), nil, &out); err != nil {
		return nil, err
	}

	c.cache.putPage(feedKey, page, &out)
	return &out, nil
}

// GetDweet returns a single dweet, served from cache when fresh.
func (c *Client) GetDweet(id string) (*models.DweetView, error) {
	if cached := c.cache.getDweet(id); cached != nil {
		return cached, nil
	}

	var out dweetEnvelope
	if err := c.do(http.MethodGet, "/api/dweets/"+id, nil, &out); err != nil {
		return nil, err
	}

	c.cache.putDweet(out.Dweet)
	return out.Dweet, nil
}

// CreateDweet posts a new dweet. Listings that may include it go stale.
func (c *Client) CreateDweet(text string, replyTo *string) (*models.DweetView, error) {
	body := map[string]any{"text": text}
	if replyTo != nil {
		body["replyTo"] = *replyTo
	}

	var out dweetEnvelope
	if err := c.do(http.MethodPost, "/api/dweets", body, &out); err != nil {
		return nil, err
	}

	c.cache.invalidateForCreate(out.Dweet, c.authUserID)
	return out.Dweet, nil
}

// Like applies the like optimistically, then confirms with the server. On
// failure the cache is restored to the pre-mutation snapshot.
func (c *Client) Like(dweetID string) (*models.DweetView, error) {
	return c.toggle(dweetID, "/api/dweets/like/", http.MethodPost, likeEffect{add: true})
}

// Unlike is the inverse of Like, with the same reconciliation protocol.
func (c *Client) Unlike(dweetID string) (*models.DweetView, error) {
	return c.toggle(dweetID, "/api/dweets/like/", http.MethodDelete, likeEffect{add: false})
}

// Redweet applies the redweet optimistically.
func (c *Client) Redweet(dweetID string) (*models.DweetView, error) {
	return c.toggle(dweetID, "/api/dweets/redweet/", http.MethodPost, likeEffect{add: true, redweet: true})
}

// UnRedweet is the inverse of Redweet.
func (c *Client) UnRedweet(dweetID string) (*models.DweetView, error) {
	return c.toggle(dweetID, "/api/dweets/redweet/", http.MethodDelete, likeEffect{add: false, redweet: true})
}

func (c *Client) toggle(dweetID, pathPrefix, method string, effect likeEffect) (*models.DweetView, error) {
	snapshot := c.cache.snapshot()
	c.cache.applyEngagement(dweetID, c.authUserID, effect)

	var out dweetEnvelope
	if err := c.do(method, pathPrefix+dweetID, nil, &out); err != nil {
		c.cache.restore(snapshot)
		return nil, err
	}

	c.cache.invalidateForEngagement(dweetID, c.authUserID)
	return out.Dweet, nil
}

// RemoveDweet deletes a dweet, removing it from cached listings
// immediately and rolling the removal back if the server refuses.
func (c *Client) RemoveDweet(dweetID string) error {
	snapshot := c.cache.snapshot()
	parentID := c.cache.applyRemoval(dweetID)

	var out dweetEnvelope
	if err := c.do(http.MethodDelete, "/api/dweets/"+dweetID, nil, &out); err != nil {
		c.cache.restore(snapshot)
		return err
	}

	c.cache.invalidateForRemoval(dweetID, parentID)
	return nil
}

func (c *Client) do(method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr APIError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
			return fmt.Errorf("request failed with status %d", resp.StatusCode)
		}
		return &apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
