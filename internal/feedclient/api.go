package feedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/geofeed/backend/internal/lib"
)

const (
	FallbackErrorMessage  = "Error happened. Please try again."
	SessionExpiredMessage = "Session expired. User not authorized"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// TokenStore keeps the credentials of the signed in user.
type TokenStore interface {
	Tokens() (accessToken string, refreshToken string)
	SetTokens(tokens TokenPair)
	SignOut()
}

type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens TokenPair
}

func NewMemoryTokenStore(tokens TokenPair) *MemoryTokenStore {
	return &MemoryTokenStore{tokens: tokens}
}

func (s *MemoryTokenStore) Tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens.AccessToken, s.tokens.RefreshToken
}

func (s *MemoryTokenStore) SetTokens(tokens TokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = tokens
}

func (s *MemoryTokenStore) SignOut() {
	s.SetTokens(TokenPair{})
}

// API talks to the feed server. A 401 triggers one token refresh and a single
// retry of the original request.
type API struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenStore
	refreshMu  sync.Mutex
}

func NewAPI(baseURL string, tokens TokenStore) *API {
	return &API{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		tokens:     tokens,
	}
}

func (a *API) ListPosts(ctx context.Context, query PostsQuery, cursor string) (*PostPage, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(query.Latitude, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(query.Longitude, 'f', -1, 64))
	if query.Distance > 0 {
		values.Set("distance", strconv.FormatFloat(query.Distance, 'f', -1, 64))
	}
	if cursor != "" {
		values.Set("cursor", cursor)
	}

	var page PostPage
	if err := a.do(ctx, http.MethodGet, "/posts?"+values.Encode(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (a *API) GetPost(ctx context.Context, postID uuid.UUID) (*Post, error) {
	var post Post
	if err := a.do(ctx, http.MethodGet, "/posts/"+postID.String(), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (a *API) ListComments(ctx context.Context, postID uuid.UUID, query CommentsQuery, cursor string) (*CommentPage, error) {
	values := url.Values{}
	if query.Sort != "" {
		values.Set("sort", query.Sort)
	}
	if query.ParentCommentID != nil {
		values.Set("parentCommentId", query.ParentCommentID.String())
	}
	if cursor != "" {
		values.Set("cursor", cursor)
	}

	var page CommentPage
	path := fmt.Sprintf("/posts/%s/comments?%s", postID, values.Encode())
	if err := a.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (a *API) GetComment(ctx context.Context, postID uuid.UUID, commentID uuid.UUID) (*Comment, error) {
	var comment Comment
	path := fmt.Sprintf("/posts/%s/comments/%s", postID, commentID)
	if err := a.do(ctx, http.MethodGet, path, nil, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (a *API) VotePost(ctx context.Context, postID uuid.UUID, value int) (*PostVoteResponse, error) {
	var response PostVoteResponse
	path := fmt.Sprintf("/posts/%s/vote", postID)
	if err := a.do(ctx, http.MethodPut, path, map[string]int{"value": value}, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (a *API) VoteComment(ctx context.Context, postID uuid.UUID, commentID uuid.UUID, value int) (*CommentVoteResponse, error) {
	var response CommentVoteResponse
	path := fmt.Sprintf("/posts/%s/comments/%s/vote", postID, commentID)
	if err := a.do(ctx, http.MethodPut, path, map[string]int{"value": value}, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (a *API) Login(ctx context.Context, email string, password string) error {
	var tokens TokenPair
	body := map[string]string{"email": email, "password": password}
	if err := a.do(ctx, http.MethodPost, "/auth/login", body, &tokens); err != nil {
		return err
	}
	a.tokens.SetTokens(tokens)
	return nil
}

func (a *API) do(ctx context.Context, method string, path string, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}

	accessToken, refreshToken := a.tokens.Tokens()
	resp, err := a.send(ctx, method, path, payload, accessToken)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		message := readErrorMessage(resp)
		if refreshToken == "" {
			a.tokens.SignOut()
			if message == "" {
				message = SessionExpiredMessage
			}
			return &APIError{StatusCode: http.StatusUnauthorized, Message: message}
		}

		accessToken, err = a.refresh(ctx, accessToken)
		if err != nil {
			return err
		}

		resp, err = a.send(ctx, method, path, payload, accessToken)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := readErrorMessage(resp)
		if message == "" {
			message = FallbackErrorMessage
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// refresh exchanges the refresh token for a new pair unless another request
// already did so since stale was issued.
func (a *API) refresh(ctx context.Context, stale string) (string, error) {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	accessToken, refreshToken := a.tokens.Tokens()
	if accessToken != stale && accessToken != "" {
		return accessToken, nil
	}
	if refreshToken == "" {
		return "", &APIError{StatusCode: http.StatusUnauthorized, Message: SessionExpiredMessage}
	}

	resp, err := a.send(ctx, http.MethodPost, "/auth/refresh-token", nil, refreshToken)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		a.tokens.SignOut()
		return "", &APIError{StatusCode: http.StatusUnauthorized, Message: SessionExpiredMessage}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Message: FallbackErrorMessage}
	}

	var tokens TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return "", err
	}
	a.tokens.SetTokens(tokens)
	return tokens.AccessToken, nil
}

func (a *API) send(ctx context.Context, method string, path string, payload []byte, bearer string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	return a.httpClient.Do(req)
}

// readErrorMessage drains and closes the body of a failed response.
func readErrorMessage(resp *http.Response) string {
	defer resp.Body.Close()

	var body lib.ErrorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ""
	}
	return body.Message
}
