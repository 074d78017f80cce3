/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

/*
Partysus room server

Players gather in a room, one of them is secretly accused each round and
is the only one who does not see the secret word. Everyone votes on who
they think the accused is; if the room singles them out, the accused gets
one guess at the secret word.

Routes:
  - $path                    → creates a room and redirects to it
  - $path/:roomid            → current room snapshot (JSON)
  - $path/:roomid/state      → same snapshot
  - $path/:roomid/join       → POST {participant_id, display_name}
  - $path/:roomid/start      → POST
  - $path/:roomid/next       → POST {participant_id}
  - $path/:roomid/vote       → POST {voter_id, target_id}
  - $path/:roomid/guess      → POST {participant_id, word}
  - $path/:roomid/ws         → WebSocket for that room
  - $path/:roomid/qr         → PNG QR code for the room URL

Participant IDs missing from a request body fall back to the player cookie.
*/

package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Seednode/partysus/games"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const (
	playerCookieName = "partysus_id"
	maxBodySize      = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type joinRequest struct {
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
}

type nextRequest struct {
	ParticipantID string `json:"participant_id"`
}

type voteRequest struct {
	VoterID  string `json:"voter_id"`
	TargetID string `json:"target_id"`
}

type guessRequest struct {
	ParticipantID string `json:"participant_id"`
	Word          string `json:"word"`
}

type ackResponse struct {
	OK      bool  `json:"ok"`
	Correct *bool `json:"correct,omitempty"` // guess
}

type errorResponse struct {
	Error      string     `json:"error"`
	Code       games.Kind `json:"code"`
	RetryAfter int        `json:"retry_after,omitempty"`
}

func newDirectory(cfg *Config) *games.Directory {
	var words games.WordSource = games.NewListWords()
	if cfg.ollamaHost != "" {
		words = games.NewOllamaWords(cfg.ollamaHost, cfg.ollamaModel, cfg.wordTimeout)
	}

	return games.NewDirectory(games.Options{
		Words:        words,
		WordCount:    cfg.wordCount,
		WordTimeout:  cfg.wordTimeout,
		SkipCooldown: cfg.skipCooldown,
		PingInterval: cfg.pingInterval,
		IdleTimeout:  cfg.sessionTimeout,
		Logf: func(format string, args ...any) {
			logf(cfg, format, args...)
		},
	})
}

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

func statusFor(kind games.Kind) int {
	switch kind {
	case games.KindNotFound:
		return http.StatusNotFound
	case games.KindForbidden:
		return http.StatusForbidden
	case games.KindRateLimited:
		return http.StatusTooManyRequests
	case games.KindUpstreamUnavailable:
		return http.StatusBadGateway
	case games.KindMalformedInput:
		return http.StatusBadRequest
	case games.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(cfg *Config, w http.ResponseWriter, r *http.Request, status int, v any, startTime time.Time) {
	data, err := json.Marshal(v)
	if err != nil {
		logf(cfg, "ERROR: Encoding response for %s: %v", r.URL.Path, err)
		status = http.StatusInternalServerError
		data = []byte(`{"error":"an internal error occurred","code":"internal"}`)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	written, err := w.Write(data)
	if err != nil {
		return
	}

	logf(cfg, "SERVE: %s %s %d (%s) to %s in %s",
		r.Method,
		r.URL.Path,
		status,
		humanReadableSize(written),
		realIP(r),
		time.Since(startTime).Round(time.Microsecond),
	)
}

// writeError reports err to the caller only. Anything that did not come
// from the games package is hidden behind a generic message.
func writeError(cfg *Config, w http.ResponseWriter, r *http.Request, err error, startTime time.Time) {
	kind := games.KindOf(err)

	resp := errorResponse{
		Error:      err.Error(),
		Code:       kind,
		RetryAfter: games.RetryAfter(err),
	}
	if kind == games.KindInternal {
		logf(cfg, "ERROR: %s %s: %v", r.Method, r.URL.Path, err)
		resp.Error = "an internal error occurred"
	}
	if resp.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(resp.RetryAfter))
	}

	writeJSON(cfg, w, r, statusFor(kind), resp, startTime)
}

// decodeBody reads an optional JSON body into v.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return games.ErrBadMessage
}

func orCookie(id string, w http.ResponseWriter, r *http.Request) string {
	if id != "" {
		return id
	}
	return getOrSetPlayerID(w, r)
}

type roomAction func(w http.ResponseWriter, r *http.Request, room *games.Coordinator) (int, any, error)

// serveAction resolves :roomid and applies an action. Unknown rooms are
// created only when create is set.
func serveAction(cfg *Config, dir *games.Directory, create bool, action roomAction) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		roomID := ps.ByName("roomid")
		if roomID == "" {
			writeError(cfg, w, r, games.ErrMissingField, startTime)
			return
		}

		var room *games.Coordinator
		if create {
			room = dir.GetOrCreate(roomID)
		} else {
			var ok bool
			if room, ok = dir.Get(roomID); !ok {
				writeError(cfg, w, r, games.ErrRoomNotFound, startTime)
				return
			}
		}

		status, resp, err := action(w, r, room)
		if err != nil {
			writeError(cfg, w, r, err, startTime)
			return
		}

		writeJSON(cfg, w, r, status, resp, startTime)
	}
}

func joinAction(w http.ResponseWriter, r *http.Request, room *games.Coordinator) (int, any, error) {
	var req joinRequest
	if err := decodeBody(r, &req); err != nil {
		return 0, nil, err
	}

	snap, err := room.Join(orCookie(req.ParticipantID, w, r), req.DisplayName)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, snap, nil
}

func startAction(w http.ResponseWriter, r *http.Request, room *games.Coordinator) (int, any, error) {
	snap, err := room.Start()
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, snap, nil
}

func nextAction(w http.ResponseWriter, r *http.Request, room *games.Coordinator) (int, any, error) {
	var req nextRequest
	if err := decodeBody(r, &req); err != nil {
		return 0, nil, err
	}

	round, err := room.AdvanceRound(r.Context(), orCookie(req.ParticipantID, w, r))
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, round, nil
}

func voteAction(w http.ResponseWriter, r *http.Request, room *games.Coordinator) (int, any, error) {
	var req voteRequest
	if err := decodeBody(r, &req); err != nil {
		return 0, nil, err
	}

	if err := room.CastVote(orCookie(req.VoterID, w, r), req.TargetID); err != nil {
		return 0, nil, err
	}
	return http.StatusOK, ackResponse{OK: true}, nil
}

func guessAction(w http.ResponseWriter, r *http.Request, room *games.Coordinator) (int, any, error) {
	var req guessRequest
	if err := decodeBody(r, &req); err != nil {
		return 0, nil, err
	}

	correct, err := room.GuessSecret(orCookie(req.ParticipantID, w, r), req.Word)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, ackResponse{OK: true, Correct: &correct}, nil
}

func stateAction(w http.ResponseWriter, r *http.Request, room *games.Coordinator) (int, any, error) {
	return http.StatusOK, room.Snapshot(), nil
}

// serveWS upgrades the request and hands the connection to the directory.
// The connection joins a room with its first message.
func serveWS(cfg *Config, dir *games.Directory) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomID := ps.ByName("roomid")

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ERROR: Upgrade for %s failed: %v", roomID, err)
			return
		}

		logf(cfg, "SERVE: WebSocket for room %s opened by %s", roomID, realIP(r))

		dir.Serve(r.Context(), conn, roomID)

		logf(cfg, "SERVE: WebSocket for room %s closed by %s", roomID, realIP(r))
	}
}

// serveQR generates a PNG QR code for the current room URL.
func serveQR(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := cfg.scheme()
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + strings.TrimSuffix(r.URL.Path, "/qr")

		const qrSize = 320
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			writeError(cfg, w, r, err, startTime)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(png)))
		securityHeaders(cfg, w)

		written, err := w.Write(png)
		if err != nil {
			return
		}

		logf(cfg, "SERVE: QR code for %s (%s) to %s in %s",
			ps.ByName("roomid"),
			humanReadableSize(written),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// redirectNewGame creates a room with a fresh ID and redirects to it.
func redirectNewGame(cfg *Config, path string, dir *games.Directory) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		roomID := dir.NewRoomID()
		dir.GetOrCreate(roomID)

		logf(cfg, "ROOMS: Created room %s/%s for %s", path, roomID, realIP(r))

		http.Redirect(w, r, path+"/"+roomID, http.StatusTemporaryRedirect)
	}
}

func registerSusGame(cfg *Config, path string, mux *httprouter.Router, dir *games.Directory) {
	base := cfg.prefix + path

	mux.GET(base, redirectNewGame(cfg, base, dir))

	mux.GET(base+"/:roomid", serveAction(cfg, dir, false, stateAction))
	mux.GET(base+"/:roomid/state", serveAction(cfg, dir, false, stateAction))
	mux.POST(base+"/:roomid/join", serveAction(cfg, dir, true, joinAction))
	mux.POST(base+"/:roomid/start", serveAction(cfg, dir, false, startAction))
	mux.POST(base+"/:roomid/next", serveAction(cfg, dir, false, nextAction))
	mux.POST(base+"/:roomid/vote", serveAction(cfg, dir, false, voteAction))
	mux.POST(base+"/:roomid/guess", serveAction(cfg, dir, false, guessAction))

	mux.GET(base+"/:roomid/ws", serveWS(cfg, dir))
	mux.GET(base+"/:roomid/qr", serveQR(cfg))
}
