// Package skynettest provides a fake assessment service for tests.
package skynettest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// BasePath is the path prefix the fake serves under.
const BasePath = "/api/v1"

// Endpoint names accepted by Set and Requests.
const (
	Pressure  = "pressure"
	Verbosity = "verbosity"
	HalfLife  = "half-life"
)

// Canned well-formed responses.
const (
	PressureHigh = `{"pressure":{"level":"HIGH","sessionViability":40,"memoryPressure":85,` +
		`"tokenBurnRate":60,"contextDrift":30,"recommendations":{"shouldCompress":true,` +
		`"shouldOptimize":true,"shouldTerminate":false}}}`

	VerbosityDrifting = `{"assessment":{"verbosityState":"DRIFTING","tokenImpact":"MODERATE",` +
		`"avgOutputLengthTokens":210,"baselineOutputLengthTokens":150,"driftPercentage":40,` +
		`"recommendations":{"truncateOutputAt":180,"reduceDetailLevel":true,"skipMetaCommentary":false}}}`

	HalfLifeDecaying = `{"halfLife":{"estimatedStability":"DECAYING","currentStabilityScore":55,` +
		`"estimatedHalfLifeMinutes":45,"estimatedRemainingLifeMinutes":30,"recommendations":` +
		`{"shouldSaveCheckpoint":true,"shouldCompress":false,"shouldTerminate":false,` +
		`"estimatedTimeBeforeCritical":20}}}`
)

// Response is what the fake returns for one endpoint.
type Response struct {
	Status int           // defaults to 200
	Body   string        // sent verbatim
	Delay  time.Duration // applied before writing; aborted if the client goes away
}

// Request is a captured call.
type Request struct {
	Endpoint string
	Header   http.Header
	Body     []byte
}

// Decode unmarshals the captured body into v.
func (r Request) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Server is an in-process assessment service.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	responses map[string]Response
	requests  []Request
}

// NewServer starts a fake that answers every endpoint with a canned
// well-formed response. It is closed when the test ends.
func NewServer(tb testing.TB) *Server {
	tb.Helper()
	s := &Server{
		responses: map[string]Response{
			Pressure:  {Body: PressureHigh},
			Verbosity: {Body: VerbosityDrifting},
			HalfLife:  {Body: HalfLifeDecaying},
		},
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.POST(BasePath+"/:endpoint", s.handle)

	s.Server = httptest.NewServer(e)
	tb.Cleanup(s.Close)
	return s
}

// Endpoint returns the base URL to pass to skynet.WithEndpoint.
func (s *Server) Endpoint() string {
	return s.URL + BasePath
}

// Set replaces the response for endpoint.
func (s *Server) Set(endpoint string, r Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[endpoint] = r
}

// SetBody answers endpoint with 200 and body.
func (s *Server) SetBody(endpoint, body string) {
	s.Set(endpoint, Response{Body: body})
}

// Requests returns captured calls to endpoint, or all calls if endpoint is "".
func (s *Server) Requests(endpoint string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Request
	for _, r := range s.requests {
		if endpoint == "" || r.Endpoint == endpoint {
			out = append(out, r)
		}
	}
	return out
}

// Last returns the most recent call to endpoint.
func (s *Server) Last(endpoint string) (Request, bool) {
	reqs := s.Requests(endpoint)
	if len(reqs) == 0 {
		return Request{}, false
	}
	return reqs[len(reqs)-1], true
}

func (s *Server) handle(c echo.Context) error {
	endpoint := strings.TrimPrefix(c.Param("endpoint"), "/")
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "read body")
	}

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Endpoint: endpoint,
		Header:   c.Request().Header.Clone(),
		Body:     body,
	})
	resp, ok := s.responses[endpoint]
	s.mu.Unlock()

	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown endpoint "+endpoint)
	}
	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-c.Request().Context().Done():
			return nil
		}
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	return c.Blob(status, echo.MIMEApplicationJSON, []byte(resp.Body))
}
