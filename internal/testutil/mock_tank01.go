// Package testutil provides a mock Tank01 server for tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"
)

// Tank01 endpoint paths served by the mock.
const (
	PathTeams       = "/getNBATeams"
	PathADP         = "/getNBAADP"
	PathProjections = "/getNBAProjections"
)

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockTank01 is a configurable mock Tank01 server.
type MockTank01 struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	requests    map[string]int
	lastHeaders http.Header
	lastQuery   url.Values
}

// NewMockTank01 starts a mock server that answers every endpoint with the
// default fixtures until overridden.
func NewMockTank01() *MockTank01 {
	mock := &MockTank01{
		handlers: make(map[string]http.HandlerFunc),
		requests: make(map[string]int),
	}

	mock.SetResponse(PathTeams, NewHealthyResponse(RosterFixture))
	mock.SetResponse(PathADP, NewHealthyResponse(ADPFixture))
	mock.SetResponse(PathProjections, NewHealthyResponse(ProjectionFixture))

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requests[r.URL.Path]++
		mock.lastHeaders = r.Header.Clone()
		mock.lastQuery = r.URL.Query()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if !exists {
			http.NotFound(w, r)
			return
		}
		handler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockTank01) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockTank01) Close() {
	m.server.Close()
}

// SetHandler sets a custom handler for a specific path.
func (m *MockTank01) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a canned response for a path.
func (m *MockTank01) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			select {
			case <-time.After(resp.Delay):
			case <-r.Context().Done():
				return
			}
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// RequestCount returns the number of requests made to path.
func (m *MockTank01) RequestCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requests[path]
}

// TotalRequests returns the number of requests made to any path.
func (m *MockTank01) TotalRequests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, c := range m.requests {
		n += c
	}
	return n
}

// LastHeaders returns the headers of the most recent request.
func (m *MockTank01) LastHeaders() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeaders
}

// LastQuery returns the query of the most recent request.
func (m *MockTank01) LastQuery() url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastQuery
}

// Reset clears all request counters.
func (m *MockTank01) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = make(map[string]int)
	m.lastHeaders = nil
	m.lastQuery = nil
}

// NewHealthyResponse creates a 200 OK response with quota headers.
func NewHealthyResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type":                   "application/json",
			"X-RateLimit-Requests-Limit":     "1000",
			"X-RateLimit-Requests-Remaining": "900",
			"X-RateLimit-Requests-Reset":     "3600",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response with an
// exhausted quota.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"message": "You have exceeded the rate limit per second for your plan"}`,
		Headers: map[string]string{
			"Content-Type":                   "application/json",
			"X-RateLimit-Requests-Limit":     "1000",
			"X-RateLimit-Requests-Remaining": "0",
			"X-RateLimit-Requests-Reset":     "60",
		},
	}
}

// Fixture payloads shaped like real Tank01 responses.
const (
	RosterFixture = `{
  "statusCode": 200,
  "body": [
    {
      "teamID": "2", "teamAbv": "BOS", "teamCity": "Boston", "teamName": "Celtics",
      "conference": "Eastern Conference", "division": "Atlantic",
      "Roster": {
        "28268405032": {
          "playerID": "28268405032", "longName": "Jayson Tatum", "team": "BOS", "pos": "SF",
          "jerseyNum": "0", "height": "6-8", "weight": "210",
          "injury": {"description": "", "injDate": "", "designation": "", "injReturnDate": ""},
          "stats": {"pts": "26.9", "reb": "8.1", "ast": "4.9", "stl": "1.0", "blk": "0.6", "TOV": "2.5",
                    "fga": "19.3", "fgm": "9.1", "fta": "6.5", "ftm": "5.5", "tptfgm": "3.1", "gamesPlayed": "74"}
        }
      }
    },
    {
      "teamID": "14", "teamAbv": "LAL", "teamCity": "Los Angeles", "teamName": "Lakers",
      "conference": "Western Conference", "division": "Pacific",
      "Roster": {
        "2475": {
          "playerID": "2475", "longName": "LeBron James", "team": "LAL", "pos": "SF",
          "jerseyNum": "23", "height": "6-9", "weight": "250",
          "injury": {"description": "Left ankle soreness", "injDate": "20250301", "designation": "Day-To-Day", "injReturnDate": "20250305"},
          "stats": {"pts": "25.7", "reb": "7.3", "ast": "8.3", "stl": "1.3", "blk": "0.5", "TOV": "3.5",
                    "fga": "18.3", "fgm": "9.6", "fta": "5.7", "ftm": "4.2", "tptfgm": "2.1", "gamesPlayed": "71"}
        }
      }
    }
  ]
}`

	ADPFixture = `{
  "statusCode": 200,
  "body": {
    "adpDate": "20250301",
    "adpList": [
      {"playerID": "28268405032", "longName": "Jayson Tatum", "overallADP": "6.4", "posADP": "SF2"},
      {"playerID": "2475", "longName": "LeBron James", "overallADP": "18.2", "posADP": "SF5"}
    ]
  }
}`

	ProjectionFixture = `{
  "statusCode": 200,
  "body": {
    "playerProjections": {"pts": "27.5", "reb": "8.0", "ast": "5.1", "stl": "1.1", "blk": "0.7", "TOV": "2.4"}
  }
}`
)
