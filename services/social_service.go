package services

import (
	"context"
	"log/slog"
	"social-chat/domain/chat"
	"social-chat/domain/social"
	"social-chat/errors"
	"social-chat/repositories"
	"strings"
)

const DefaultPostLimit = 20

type ISocialService interface {
	SendRequest(ctx context.Context, from, to chat.UserID) (social.ChatRequest, error)
	RespondRequest(ctx context.Context, user chat.UserID, requestID int64, action social.Action) (social.ChatRequest, error)
	Friends(ctx context.Context, user chat.UserID) ([]social.User, error)
	CreatePost(ctx context.Context, author chat.UserID, title, content string) (social.Post, error)
	Posts(ctx context.Context, limit int) ([]social.PostSummary, error)
	LikePost(ctx context.Context, user chat.UserID, postID int64) (LikeResult, error)
	AddComment(ctx context.Context, user chat.UserID, postID int64, text string) (CommentResult, error)
}

type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

type CommentResult struct {
	Comment       social.Comment
	Author        string
	CommentsCount int
}

// SocialService runs the collaborator actions that notify other users.
type SocialService struct {
	social        repositories.ISocialRepository
	users         repositories.IUserRepository
	notifications INotificationService
	log           *slog.Logger
}

func NewSocialService(socialRepository repositories.ISocialRepository, users repositories.IUserRepository,
	notifications INotificationService, log *slog.Logger) *SocialService {
	return &SocialService{social: socialRepository, users: users, notifications: notifications, log: log}
}

func (s *SocialService) SendRequest(ctx context.Context, from, to chat.UserID) (social.ChatRequest, error) {
	if from == to {
		return social.ChatRequest{}, errors.ErrSelfRequest
	}
	if _, err := s.users.GetUserByID(to); err != nil {
		return social.ChatRequest{}, err
	}
	sender, err := s.users.GetUserByID(from)
	if err != nil {
		return social.ChatRequest{}, err
	}

	request, err := s.social.CreateRequest(from, to)
	if err != nil {
		return social.ChatRequest{}, err
	}
	s.notify(ctx, social.Notification{
		Recipient:  to,
		Actor:      from,
		Verb:       social.VerbSentRequest,
		TargetID:   request.ID,
		TargetType: social.TargetChatRequest,
	}, social.Text(sender.Username, social.VerbSentRequest))
	return request, nil
}

// RespondRequest lets the addressee accept or decline a request. The sender is notified either way.
func (s *SocialService) RespondRequest(ctx context.Context, user chat.UserID, requestID int64, action social.Action) (social.ChatRequest, error) {
	status, ok := action.Status()
	if !ok {
		return social.ChatRequest{}, errors.ErrInvalidAction
	}
	request, err := s.social.GetRequest(requestID)
	if err != nil {
		return social.ChatRequest{}, err
	}
	if request.To != user {
		return social.ChatRequest{}, errors.ErrNotAddressee
	}
	responder, err := s.users.GetUserByID(user)
	if err != nil {
		return social.ChatRequest{}, err
	}

	updated, err := s.social.UpdateRequestStatus(requestID, status)
	if err != nil {
		return social.ChatRequest{}, err
	}

	verb := social.VerbDeclinedRequest
	if status == social.RequestAccepted {
		verb = social.VerbAcceptedRequest
	}
	s.notify(ctx, social.Notification{
		Recipient:  request.From,
		Actor:      user,
		Verb:       verb,
		TargetID:   request.ID,
		TargetType: social.TargetChatRequest,
	}, social.Text(responder.Username, verb))
	return updated, nil
}

// Friends lists the users user may chat with: accepted requests in either direction.
func (s *SocialService) Friends(ctx context.Context, user chat.UserID) ([]social.User, error) {
	ids, err := s.social.AcceptedPartners(user)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []social.User{}, nil
	}
	return s.users.GetUsersByIDs(ids)
}

func (s *SocialService) CreatePost(ctx context.Context, author chat.UserID, title, content string) (social.Post, error) {
	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	if title == "" || content == "" {
		return social.Post{}, errors.ErrEmptyPost
	}
	return s.social.CreatePost(author, title, content)
}

func (s *SocialService) Posts(ctx context.Context, limit int) ([]social.PostSummary, error) {
	if limit <= 0 {
		limit = DefaultPostLimit
	}
	posts, err := s.social.ListPosts(limit)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		return []social.PostSummary{}, nil
	}
	return posts, nil
}

// LikePost toggles the like of user on a post. Only a new like from
// someone other than the author notifies the author.
func (s *SocialService) LikePost(ctx context.Context, user chat.UserID, postID int64) (LikeResult, error) {
	post, err := s.social.GetPost(postID)
	if err != nil {
		return LikeResult{}, err
	}
	liked, count, err := s.social.ToggleLike(postID, user)
	if err != nil {
		return LikeResult{}, err
	}

	if liked && post.AuthorID != user {
		if liker, err := s.users.GetUserByID(user); err == nil {
			s.notify(ctx, social.Notification{
				Recipient:  post.AuthorID,
				Actor:      user,
				Verb:       social.VerbLikedPost,
				TargetID:   post.ID,
				TargetType: social.TargetPost,
			}, social.PostText(liker.Username, social.VerbLikedPost, post.Title))
		} else {
			s.log.Warn("Like stored without notification", "user_id", user, "error", err)
		}
	}
	return LikeResult{Liked: liked, LikesCount: count}, nil
}

func (s *SocialService) AddComment(ctx context.Context, user chat.UserID, postID int64, text string) (CommentResult, error) {
	if strings.TrimSpace(text) == "" {
		return CommentResult{}, errors.ErrEmptyComment
	}
	post, err := s.social.GetPost(postID)
	if err != nil {
		return CommentResult{}, err
	}
	author, err := s.users.GetUserByID(user)
	if err != nil {
		return CommentResult{}, err
	}

	comment, count, err := s.social.AddComment(postID, user, text)
	if err != nil {
		return CommentResult{}, err
	}

	if post.AuthorID != user {
		s.notify(ctx, social.Notification{
			Recipient:  post.AuthorID,
			Actor:      user,
			Verb:       social.VerbCommentedPost,
			TargetID:   post.ID,
			TargetType: social.TargetPost,
		}, social.PostText(author.Username, social.VerbCommentedPost, post.Title))
	}
	return CommentResult{Comment: comment, Author: author.Username, CommentsCount: count}, nil
}

// notify never fails the action that triggered it: the action is already committed.
func (s *SocialService) notify(ctx context.Context, n social.Notification, text string) {
	if _, err := s.notifications.Notify(ctx, n, text); err != nil {
		s.log.Error("Failed to store notification", "recipient", n.Recipient, "verb", n.Verb, "error", err)
	}
}
