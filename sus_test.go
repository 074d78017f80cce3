/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Seednode/partysus/games"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SusServerTestSuite struct {
	suite.Suite

	cfg    *Config
	dir    *games.Directory
	server *httptest.Server
	client *http.Client
}

func (s *SusServerTestSuite) SetupTest() {
	s.cfg = &Config{
		pingInterval: time.Minute,
		port:         8080,
		skipCooldown: 5 * time.Minute,
		wordCount:    4,
		wordTimeout:  time.Second,
	}

	errs := make(chan error, 8)
	mux := newRouter(s.cfg, errs)

	s.dir = newDirectory(s.cfg)
	registerSusGame(s.cfg, "/sus", mux, s.dir)

	s.server = httptest.NewServer(mux)
	s.client = &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (s *SusServerTestSuite) TearDownTest() {
	s.server.Close()
	s.dir.Close()
}

func (s *SusServerTestSuite) do(method, path, body string) *http.Response {
	req, err := http.NewRequest(method, s.server.URL+path, strings.NewReader(body))
	s.Require().NoError(err)

	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	s.T().Cleanup(func() { resp.Body.Close() })

	return resp
}

func (s *SusServerTestSuite) decode(resp *http.Response, v any) {
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(v))
}

func (s *SusServerTestSuite) expectError(resp *http.Response, status int, kind games.Kind) errorResponse {
	s.Require().Equal(status, resp.StatusCode)

	var body errorResponse
	s.decode(resp, &body)
	s.Equal(kind, body.Code)
	s.NotEmpty(body.Error)

	return body
}

func (s *SusServerTestSuite) seed(roomID string, ids ...string) {
	for _, id := range ids {
		resp := s.do(http.MethodPost, "/sus/"+roomID+"/join", `{"participant_id":"`+id+`","display_name":"`+strings.ToUpper(id)+`"}`)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
	}
}

func (s *SusServerTestSuite) deal(roomID, pid string) games.Round {
	resp := s.do(http.MethodPost, "/sus/"+roomID+"/next", `{"participant_id":"`+pid+`"}`)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var round games.Round
	s.decode(resp, &round)

	return round
}

func (s *SusServerTestSuite) TestNewGameRedirectsToFreshRoom() {
	resp := s.do(http.MethodGet, "/sus", "")
	s.Require().Equal(http.StatusTemporaryRedirect, resp.StatusCode)

	location := resp.Header.Get("Location")
	s.Require().True(strings.HasPrefix(location, "/sus/"))

	state := s.do(http.MethodGet, location, "")
	s.Require().Equal(http.StatusOK, state.StatusCode)

	var snap games.Snapshot
	s.decode(state, &snap)
	s.Equal(strings.TrimPrefix(location, "/sus/"), snap.RoomID)
	s.Equal(games.PhaseWaiting, snap.Phase)
}

func (s *SusServerTestSuite) TestJoinReturnsSnapshot() {
	resp := s.do(http.MethodPost, "/sus/r1/join", `{"participant_id":"a","display_name":"Ann"}`)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("application/json; charset=utf-8", resp.Header.Get("Content-Type"))

	var snap games.Snapshot
	s.decode(resp, &snap)
	s.Equal("r1", snap.RoomID)
	s.Equal("Ann", snap.Participants["a"].Name)
	s.Equal(0, snap.Participants["a"].Score)
}

func (s *SusServerTestSuite) TestJoinFallsBackToCookie() {
	resp := s.do(http.MethodPost, "/sus/r1/join", `{"display_name":"Ann"}`)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var id string
	for _, c := range resp.Cookies() {
		if c.Name == playerCookieName {
			id = c.Value
		}
	}
	s.Require().NotEmpty(id)

	var snap games.Snapshot
	s.decode(resp, &snap)
	s.Contains(snap.Participants, id)
}

func (s *SusServerTestSuite) TestJoinWithoutNameIsRejected() {
	resp := s.do(http.MethodPost, "/sus/r1/join", `{"participant_id":"a"}`)
	s.expectError(resp, http.StatusBadRequest, games.KindMalformedInput)
}

func (s *SusServerTestSuite) TestMalformedBodyIsRejected() {
	resp := s.do(http.MethodPost, "/sus/r1/join", `{"participant_id":`)
	s.expectError(resp, http.StatusBadRequest, games.KindMalformedInput)
}

func (s *SusServerTestSuite) TestUnknownRoom() {
	s.expectError(s.do(http.MethodGet, "/sus/nope", ""), http.StatusNotFound, games.KindNotFound)
	s.expectError(s.do(http.MethodGet, "/sus/nope/state", ""), http.StatusNotFound, games.KindNotFound)
	s.expectError(s.do(http.MethodPost, "/sus/nope/start", ""), http.StatusNotFound, games.KindNotFound)
	s.expectError(s.do(http.MethodPost, "/sus/nope/next", `{"participant_id":"a"}`), http.StatusNotFound, games.KindNotFound)

	s.Equal(0, s.dir.Len())
}

func (s *SusServerTestSuite) TestStartTwiceConflicts() {
	s.seed("r1", "a")

	resp := s.do(http.MethodPost, "/sus/r1/start", "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var snap games.Snapshot
	s.decode(resp, &snap)
	s.Equal(games.PhaseReady, snap.Phase)

	s.expectError(s.do(http.MethodPost, "/sus/r1/start", ""), http.StatusConflict, games.KindConflict)
}

func (s *SusServerTestSuite) TestFullRound() {
	s.seed("r1", "a", "b")
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/sus/r1/start", "").StatusCode)

	round := s.deal("r1", "a")
	s.Require().Len(round.Words, 4)
	s.Contains(round.Words, round.SecretWord)
	s.Contains([]string{"a", "b"}, round.AccusedID)

	for _, voter := range []string{"a", "b"} {
		resp := s.do(http.MethodPost, "/sus/r1/vote", `{"voter_id":"`+voter+`","target_id":"`+round.AccusedID+`"}`)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
	}

	var snap games.Snapshot
	s.decode(s.do(http.MethodGet, "/sus/r1/state", ""), &snap)
	s.Require().Equal(games.PhaseVotingGuess, snap.Phase)

	resp := s.do(http.MethodPost, "/sus/r1/guess", `{"participant_id":"`+round.AccusedID+`","word":"`+round.SecretWord+`"}`)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var ack ackResponse
	s.decode(resp, &ack)
	s.True(ack.OK)
	s.Require().NotNil(ack.Correct)
	s.True(*ack.Correct)

	s.decode(s.do(http.MethodGet, "/sus/r1", ""), &snap)
	s.Equal(games.PhaseReviewResults, snap.Phase)
	s.Equal(1, snap.Participants[round.AccusedID].Score)
}

func (s *SusServerTestSuite) TestGuessByOtherParticipantIsForbidden() {
	s.seed("r1", "a", "b")
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/sus/r1/start", "").StatusCode)

	round := s.deal("r1", "a")

	other := "a"
	if round.AccusedID == "a" {
		other = "b"
	}

	resp := s.do(http.MethodPost, "/sus/r1/guess", `{"participant_id":"`+other+`","word":"`+round.SecretWord+`"}`)
	s.expectError(resp, http.StatusForbidden, games.KindForbidden)
}

func (s *SusServerTestSuite) TestSkipCooldownSetsRetryAfter() {
	s.seed("r1", "a", "b")
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/sus/r1/start", "").StatusCode)

	s.deal("r1", "a")
	s.deal("r1", "a")

	resp := s.do(http.MethodPost, "/sus/r1/next", `{"participant_id":"a"}`)
	body := s.expectError(resp, http.StatusTooManyRequests, games.KindRateLimited)

	s.Greater(body.RetryAfter, 0)
	s.LessOrEqual(body.RetryAfter, 300)
	s.NotEmpty(resp.Header.Get("Retry-After"))

	// the cooldown is per participant
	s.deal("r1", "b")
}

func (s *SusServerTestSuite) TestWebSocketJoin() {
	s.seed("r1", "a")

	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/sus/r1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	defer conn.Close()

	s.Require().NoError(conn.WriteJSON(games.ClientMessage{Type: "join", ParticipantID: "b", DisplayName: "Bea"}))

	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))

	// the roster broadcast for our own join can race the snapshot reply
	var ev games.Event
	for ev.Type != games.EventSnapshot {
		ev = games.Event{}
		s.Require().NoError(conn.ReadJSON(&ev))
	}
	s.Require().NotNil(ev.Snapshot)
	s.Equal("r1", ev.RoomID)
	s.Contains(ev.Participants, "a")
	s.Contains(ev.Participants, "b")

	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/sus/r1/start", "").StatusCode)

	for ev.Type != games.EventState {
		ev = games.Event{}
		s.Require().NoError(conn.ReadJSON(&ev))
	}
	s.Equal(games.PhaseReady, ev.Phase)
}

func (s *SusServerTestSuite) TestQRCode() {
	resp := s.do(http.MethodGet, "/sus/r1/qr", "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("image/png", resp.Header.Get("Content-Type"))

	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	s.Require().NoError(err)
	s.True(bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func (s *SusServerTestSuite) TestHealthCheck() {
	resp := s.do(http.MethodGet, "/healthz", "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	s.Require().NoError(err)
	s.Equal("Ok\n", buf.String())
	s.Equal("nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestSusServerTestSuite(t *testing.T) {
	suite.Run(t, new(SusServerTestSuite))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind games.Kind
		want int
	}{
		{games.KindNotFound, http.StatusNotFound},
		{games.KindForbidden, http.StatusForbidden},
		{games.KindRateLimited, http.StatusTooManyRequests},
		{games.KindUpstreamUnavailable, http.StatusBadGateway},
		{games.KindMalformedInput, http.StatusBadRequest},
		{games.KindConflict, http.StatusConflict},
		{games.KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.kind))
		})
	}
}

func TestWriteErrorHidesInternalErrors(t *testing.T) {
	cfg := &Config{}
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/sus/r1/next", nil)

	writeError(cfg, w, r, assert.AnError, time.Now())

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, games.KindInternal, body.Code)
	assert.NotContains(t, body.Error, assert.AnError.Error())
}

func TestHumanReadableSize(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0 B"},
		{999, "999 B"},
		{1000, "1.0 kB"},
		{1500, "1.5 kB"},
		{2_500_000, "2.5 MB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, humanReadableSize(tt.in))
	}
}

func TestNewPageEscapesContent(t *testing.T) {
	page := newPage("Server Error", `<script>alert("x")</script>`)

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<title>Server Error</title>")
	assert.NotContains(t, page, "<script>")
	assert.Contains(t, page, "&lt;script&gt;")
}

func TestPanicHandlerRendersErrorPage(t *testing.T) {
	cfg := &Config{}
	mux := newRouter(cfg, make(chan error, 1))
	mux.GET("/boom", func(http.ResponseWriter, *http.Request, httprouter.Params) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "An error has occurred. Please try again.")
}
