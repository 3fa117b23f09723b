package web

import (
	"net/http"
	"social-chat/auth"
	"social-chat/domain/chat"
	"social-chat/domain/social"
	"time"

	"github.com/samber/lo"
)

type registerBody struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var body registerBody
	if err := decodeBody(r, w, &body); err != nil {
		writeError(w, s.log, r, err)
		return
	}
	credentials, err := s.services.Auth.Register(body.Username, body.Email, body.Password)
	if err != nil {
		writeError(w, s.log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, credentials)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if err := decodeBody(r, w, &body); err != nil {
		writeError(w, s.log, r, err)
		return
	}
	credentials, err := s.services.Auth.Login(body.Username, body.Password)
	if err != nil {
		writeError(w, s.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, credentials)
}

type requestView struct {
	ID        int64                `json:"id"`
	From      chat.UserID          `json:"from"`
	To        chat.UserID          `json:"to"`
	Status    social.RequestStatus `json:"status"`
	CreatedAt time.Time            `json:"created_at"`
}

func toRequestView(req social.ChatRequest) requestView {
	return requestView{ID: req.ID, From: req.From, To: req.To, Status: req.Status, CreatedAt: req.CreatedAt}
}

func (s *Server) sendRequest(w http.ResponseWriter, r *http.Request) {
	to, err := pathID(r, "userID")
	if err != nil {
		writeError(w, s.log, r, err)
		return
	}
	request, err := s.services.Social.SendRequest(r.Context(), auth.PrincipalFrom(r.Context()).UserID, chat.UserID(to))
	if err != nil {
		writeError(w, s.log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestView(request))
}

type respondBody struct {
	Action social.Action `json:"action"`
}

func (s *Server) respondRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := pathID(r, "requestID")
	if err != nil {
		writeError(w, s.log, r, err)
		return
	}
	var body respondBody
	if err := decodeBody(r, w, &body); err != nil {
		writeError(w, s.log, r, err)
		return
	}
	request, err := s.services.Social.RespondRequest(r.Context(), auth.PrincipalFrom(r.Context()).UserID, requestID, body.Action)
	if err != nil {
		writeError(w, s.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestView(request))
}

type postBody struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type postView struct {
	ID            int64       `json:"id"`
	AuthorID      chat.UserID `json:"author_id"`
	Title         string      `json:"title"`
	Content       string      `json:"content"`
	CreatedAt     time.Time   `json:"created_at"`
	LikesCount    int         `json:"likes_count"`
	CommentsCount int         `json:"comments_count"`
}

func toPostView(post social.PostSummary) postView {
	return postView{
		ID:            post.ID,
		AuthorID:      post.AuthorID,
		Title:         post.Title,
		Content:       post.Content,
		CreatedAt:     post.CreatedAt,
		LikesCount:    post.Likes,
		CommentsCount: post.Comments,
	}
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, s.log, r, err)
		return
	}
	posts, err := s.services.Social.Posts(r.Context(), limit)
	if err != nil {
		writeError(w, s.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(posts, func(p social.PostSummary, _ int) postView {
		return toPostView(p)
	}))
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	var body postBody
	if err := decodeBody(r, w, &body); err != nil {
		writeError(w, s.log, r, err)
		return
	}
	post, err := s.services.Social.CreatePost(r.Context(), auth.PrincipalFrom(r.Context()).UserID, body.Title, body.Content)
	if err != nil {
		writeError(w, s.log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPostView(social.PostSummary{Post: post}))
}

func (s *Server) likePost(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "postID")
	if err != nil {
		writeError(w, s.log, r, err)
		return
	}
	result, err := s.services.Social.LikePost(r.Context(), auth.PrincipalFrom(r.Context()).UserID, postID)
	if err != nil {
		writeError(w, s.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type commentBody struct {
	Text string `json:"text"`
}

type commentView struct {
	ID            int64     `json:"id"`
	Author        string    `json:"author"`
	Text          string    `json:"text"`
	CreatedAt     time.Time `json:"created_at"`
	CommentsCount int       `json:"comments_count"`
}

func (s *Server) addComment(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "postID")
	if err != nil {
		writeError(w, s.log, r, err)
		return
	}
	var body commentBody
	if err := decodeBody(r, w, &body); err != nil {
		writeError(w, s.log, r, err)
		return
	}
	result, err := s.services.Social.AddComment(r.Context(), auth.PrincipalFrom(r.Context()).UserID, postID, body.Text)
	if err != nil {
		writeError(w, s.log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, commentView{
		ID:            result.Comment.ID,
		Author:        result.Author,
		Text:          result.Comment.Text,
		CreatedAt:     result.Comment.CreatedAt,
		CommentsCount: result.CommentsCount,
	})
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, s.log, r, err)
		return
	}
	views, err := s.services.Notifications.List(r.Context(), auth.PrincipalFrom(r.Context()).UserID, limit)
	if err != nil {
		writeError(w, s.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) markRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "notificationID")
	if err != nil {
		writeError(w, s.log, r, err)
		return
	}
	if err := s.services.Notifications.MarkRead(r.Context(), auth.PrincipalFrom(r.Context()).UserID, id); err != nil {
		writeError(w, s.log, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
