package web

import (
	"net/http"
	"social-chat/auth"
	"social-chat/domain/chat"
	"social-chat/domain/social"
	"social-chat/runtime"

	"github.com/gorilla/mux"
	"github.com/samber/lo"
)

// chatSocket upgrades first and authorizes afterwards, so that every
// rejection reaches the client as a close code.
func (s *Server) chatSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("WebSocket upgrade failed", "path", r.URL.Path, "error", err)
		return
	}
	conn := NewConn(ws, s.cfg.ReadLimit, pongWait(s.cfg.Session.PingPeriod))
	session := runtime.NewChatSession(conn, s.registry, s.services.Chat, s.log, s.cfg.Session)
	if err := session.Authorize(mux.Vars(r)["room"], auth.PrincipalFrom(r.Context())); err != nil {
		s.monitoring.IncrRejectedConnections()
		return
	}
	_ = session.Serve(r.Context())
}

func (s *Server) notificationSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("WebSocket upgrade failed", "path", r.URL.Path, "error", err)
		return
	}
	conn := NewConn(ws, s.cfg.ReadLimit, pongWait(s.cfg.Session.PingPeriod))
	session := runtime.NewNotificationSession(conn, s.registry, s.log, s.cfg.Session)
	if err := session.AuthorizeUser(auth.PrincipalFrom(r.Context())); err != nil {
		s.monitoring.IncrRejectedConnections()
		return
	}
	_ = session.Serve(r.Context())
}

type userView struct {
	ID       chat.UserID `json:"id"`
	Username string      `json:"username"`
}

type dashboardResponse struct {
	Users []userView `json:"users"`
}

// dashboard lists the users the principal may chat with.
func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFrom(r.Context())
	friends, err := s.services.Social.Friends(r.Context(), principal.UserID)
	if err != nil {
		writeError(w, s.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboardResponse{
		Users: lo.Map(friends, func(u social.User, _ int) userView {
			return userView{ID: u.ID, Username: u.Username}
		}),
	})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	other, err := pathID(r, "userID")
	if err != nil {
		writeError(w, s.log, r, err)
		return
	}
	items, err := s.services.Chat.History(r.Context(), auth.PrincipalFrom(r.Context()).UserID, chat.UserID(other))
	if err != nil {
		writeError(w, s.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type pageResponse struct {
	Messages []chat.HistoryItem `json:"messages"`
	Cursor   *string            `json:"cursor"`
}

func (s *Server) messages(w http.ResponseWriter, r *http.Request) {
	other, err := pathID(r, "userID")
	if err != nil {
		writeError(w, s.log, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, s.log, r, err)
		return
	}
	var cursor *string
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		cursor = &raw
	}

	items, next, err := s.services.Chat.HistoryPage(r.Context(), auth.PrincipalFrom(r.Context()).UserID,
		chat.UserID(other), cursor, limit)
	if err != nil {
		writeError(w, s.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse{Messages: items, Cursor: next})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	other, err := pathID(r, "userID")
	if err != nil {
		writeError(w, s.log, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, s.log, r, err)
		return
	}
	items, err := s.services.Chat.Search(r.Context(), auth.PrincipalFrom(r.Context()).UserID,
		chat.UserID(other), r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(w, s.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
