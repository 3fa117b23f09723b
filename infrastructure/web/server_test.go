package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"social-chat/errors"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

func TestCheckOrigin(t *testing.T) {
	req := require.New(t)
	request := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws/notifications", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	listed := checkOrigin([]string{"https://chat.example"})
	req.True(listed(request("")))
	req.True(listed(request("https://chat.example")))
	req.False(listed(request("https://evil.example")))

	req.True(checkOrigin([]string{"*"})(request("https://anything.example")))
}

func TestPongWait(t *testing.T) {
	req := require.New(t)
	req.Equal(60*time.Second, pongWait(54*time.Second))
	req.Zero(pongWait(0))
}

func TestWriteError(t *testing.T) {
	req := require.New(t)
	r := httptest.NewRequest(http.MethodPost, "/posts", nil)

	// Given a client error, then its message is returned
	rec := httptest.NewRecorder()
	writeError(rec, slog.Default(), r, fmt.Errorf("%w: too short", errors.ErrEmptyPost))
	req.Equal(http.StatusBadRequest, rec.Code)
	var body map[string]string
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	req.Contains(body["error"], "too short")

	// Given an internal failure, then details are hidden
	rec = httptest.NewRecorder()
	writeError(rec, slog.Default(), r, fmt.Errorf("badger: disk full"))
	req.Equal(http.StatusInternalServerError, rec.Code)
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	req.Equal("Internal Server Error", body["error"])
}

func TestDecodeBody_Rejects_Invalid_JSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("{"))
	var body loginBody
	err := decodeBody(r, httptest.NewRecorder(), &body)
	require.ErrorIs(t, err, errors.ErrInvalidBody)
}

func TestPathID(t *testing.T) {
	req := require.New(t)

	r := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/chat/7/history", nil), map[string]string{"userID": "7"})
	id, err := pathID(r, "userID")
	req.NoError(err)
	req.Equal(int64(7), id)

	r = mux.SetURLVars(r, map[string]string{"userID": "-1"})
	_, err = pathID(r, "userID")
	req.ErrorIs(err, errors.ErrInvalidParameter)
}

func TestRouter_Private_Routes_Reject_Anonymous(t *testing.T) {
	req := require.New(t)
	router := NewServer(slog.Default(), Config{}, Services{}, nil, nil, nil).Router()

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/debug/stats"},
		{http.MethodGet, "/posts"},
		{http.MethodPost, "/posts"},
		{http.MethodGet, "/chat/dashboard"},
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(route.method, route.path, nil))
		req.Equal(http.StatusUnauthorized, rec.Code, "%s %s", route.method, route.path)
	}
}
