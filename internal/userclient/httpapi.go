package userclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"learnquiz/internal/auth"
	"learnquiz/internal/quiz"
)

var ErrServiceUnavailable = errors.New("quiz service unavailable")

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// HTTPClient talks to the quiz service REST API. Login stores the bearer
// token used by every later request.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string    `json:"accessToken"`
	User        auth.User `json:"user"`
}

type coursesResponse struct {
	Courses []quiz.Course `json:"courses"`
}

type leaderboardResponse struct {
	Leaderboard []quiz.StandingEntry `json:"leaderboard"`
}

type scoresResponse struct {
	Scores []quiz.ScoreRecord `json:"scores"`
}

type feedbackListResponse struct {
	Feedback []quiz.Feedback `json:"feedback"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultServer
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (auth.User, error) {
	var payload loginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &payload); err != nil {
		return auth.User{}, err
	}
	if payload.AccessToken == "" {
		return auth.User{}, errors.New("login response carried no token")
	}
	c.token = payload.AccessToken
	return payload.User, nil
}

func (c *HTTPClient) ListCourses(ctx context.Context) ([]quiz.Course, error) {
	var payload coursesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/courses", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Courses, nil
}

func (c *HTTPClient) Leaderboard(ctx context.Context, limit int) ([]quiz.StandingEntry, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	path := "/leaderboard"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var payload leaderboardResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Leaderboard, nil
}

func (c *HTTPClient) MyScores(ctx context.Context) ([]quiz.ScoreRecord, error) {
	var payload scoresResponse
	if err := c.doJSON(ctx, http.MethodGet, "/me/scores", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Scores, nil
}

func (c *HTTPClient) MyRecommendations(ctx context.Context) ([]quiz.Course, error) {
	var payload coursesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/me/recommendations", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Courses, nil
}

func (c *HTTPClient) MyFeedback(ctx context.Context) ([]quiz.Feedback, error) {
	var payload feedbackListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/me/feedback", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Feedback, nil
}

func (c *HTTPClient) Chat(ctx context.Context, message string) (string, error) {
	var payload chatResponse
	if err := c.doJSON(ctx, http.MethodPost, "/assistant/chat", chatRequest{Message: message}, &payload); err != nil {
		return "", err
	}
	return payload.Reply, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	fullURL := c.baseURL + path

	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return err
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return decodeAPIError(response)
	}

	if responseBody == nil {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(responseBody)
}

func decodeAPIError(response *http.Response) error {
	apiErr := APIError{StatusCode: response.StatusCode}
	var payload errorResponse
	if err := json.NewDecoder(response.Body).Decode(&payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		apiErr.Message = payload.Error
	}
	if apiErr.Message == "" {
		apiErr.Message = response.Status
	}
	return &apiErr
}
