//go:generate go run go.uber.org/mock/mockgen -source=social.go -destination=../mocks/mock_social_repository.go -package=mocks
package repositories

import (
	"fmt"
	"social-chat/domain/chat"
	"social-chat/domain/social"
	"social-chat/errors"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	requestSequence = "chat_request"
	postSequence    = "post"
	commentSequence = "comment"
)

type ISocialRepository interface {
	CreateRequest(from, to chat.UserID) (social.ChatRequest, error)
	GetRequest(id int64) (social.ChatRequest, error)
	UpdateRequestStatus(id int64, status social.RequestStatus) (social.ChatRequest, error)
	AcceptedPartners(user chat.UserID) ([]chat.UserID, error)
	CreatePost(author chat.UserID, title, content string) (social.Post, error)
	GetPost(id int64) (social.Post, error)
	ToggleLike(postID int64, user chat.UserID) (liked bool, count int, err error)
	AddComment(postID int64, author chat.UserID, text string) (social.Comment, int, error)
	ListPosts(limit int) ([]social.PostSummary, error)
}

// SocialRepository stores chat requests, posts, likes and comments.
//
// Keys:
//
//	req:id:{id}                 request record
//	req:pair:{from}:{to}        id of the request sent by from to to
//	req:user:{user}:{id}        membership index, written for both participants
//	post:{id}                   post record
//	like:{post}:{user}          empty marker
//	cmt:{post}:{id}             comment record
type SocialRepository struct {
	db  *badger.DB
	seq *Sequences
}

func NewSocialRepository(db *badger.DB, seq *Sequences) *SocialRepository {
	return &SocialRepository{db: db, seq: seq}
}

func requestKey(id int64) []byte {
	return []byte(fmt.Sprintf("req:id:%020d", id))
}

func requestPairKey(from, to chat.UserID) []byte {
	return []byte(fmt.Sprintf("req:pair:%020d:%020d", from, to))
}

func requestUserPrefix(user chat.UserID) []byte {
	return []byte(fmt.Sprintf("req:user:%020d:", user))
}

func postKey(id int64) []byte {
	return []byte(fmt.Sprintf("post:%020d", id))
}

func likePrefix(postID int64) []byte {
	return []byte(fmt.Sprintf("like:%020d:", postID))
}

func commentPrefix(postID int64) []byte {
	return []byte(fmt.Sprintf("cmt:%020d:", postID))
}

// CreateRequest stores a pending request. A request is unique per ordered pair.
func (s *SocialRepository) CreateRequest(from, to chat.UserID) (social.ChatRequest, error) {
	id, err := s.seq.Next(requestSequence)
	if err != nil {
		return social.ChatRequest{}, err
	}
	request := social.ChatRequest{
		ID:        id,
		From:      from,
		To:        to,
		Status:    social.RequestPending,
		CreatedAt: time.Now().UTC(),
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		pair := requestPairKey(from, to)
		if _, err := txn.Get(pair); err == nil {
			return errors.ErrRequestExists
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		if err := txn.Set(pair, []byte(strconv.FormatInt(id, 10))); err != nil {
			return err
		}
		for _, user := range []chat.UserID{from, to} {
			key := append(requestUserPrefix(user), []byte(fmt.Sprintf("%020d", id))...)
			if err := txn.Set(key, nil); err != nil {
				return err
			}
		}
		return txn.Set(requestKey(id), encodeRequest(request))
	})
	if err != nil {
		return social.ChatRequest{}, err
	}
	return request, nil
}

func (s *SocialRepository) GetRequest(id int64) (social.ChatRequest, error) {
	var request social.ChatRequest
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		request, err = getRequest(txn, id)
		return err
	})
	return request, notFound(err, errors.ErrRequestNotFound)
}

func (s *SocialRepository) UpdateRequestStatus(id int64, status social.RequestStatus) (social.ChatRequest, error) {
	var request social.ChatRequest
	err := s.db.Update(func(txn *badger.Txn) error {
		var err error
		request, err = getRequest(txn, id)
		if err != nil {
			return err
		}
		request.Status = status
		return txn.Set(requestKey(id), encodeRequest(request))
	})
	return request, notFound(err, errors.ErrRequestNotFound)
}

// AcceptedPartners lists the users sharing an accepted request with user, in either direction.
func (s *SocialRepository) AcceptedPartners(user chat.UserID) ([]chat.UserID, error) {
	var partners []chat.UserID
	seen := make(map[chat.UserID]struct{})
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := requestUserPrefix(user)
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			id, err := strconv.ParseInt(string(it.Item().Key()[len(prefix):]), 10, 64)
			if err != nil {
				return fmt.Errorf("%w: request index %q", errors.ErrMalformedRecord, it.Item().Key())
			}
			request, err := getRequest(txn, id)
			if err != nil {
				return err
			}
			if request.Status != social.RequestAccepted {
				continue
			}
			partner := request.To
			if partner == user {
				partner = request.From
			}
			if _, ok := seen[partner]; ok {
				continue
			}
			seen[partner] = struct{}{}
			partners = append(partners, partner)
		}
		return nil
	})
	return partners, err
}

func (s *SocialRepository) CreatePost(author chat.UserID, title, content string) (social.Post, error) {
	id, err := s.seq.Next(postSequence)
	if err != nil {
		return social.Post{}, err
	}
	post := social.Post{ID: id, AuthorID: author, Title: title, Content: content, CreatedAt: time.Now().UTC()}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(postKey(id), encodePost(post))
	})
	if err != nil {
		return social.Post{}, err
	}
	return post, nil
}

func (s *SocialRepository) GetPost(id int64) (social.Post, error) {
	var post social.Post
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		post, err = getPost(txn, id)
		return err
	})
	return post, notFound(err, errors.ErrPostNotFound)
}

// ListPosts returns the newest posts first with their like and comment counts.
func (s *SocialRepository) ListPosts(limit int) ([]social.PostSummary, error) {
	var posts []social.PostSummary
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte("post:")
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek([]byte("post:99999999999999999999")); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(posts) == limit {
				break
			}
			var post social.Post
			err := it.Item().Value(func(val []byte) error {
				var err error
				post, err = decodePost(val)
				return err
			})
			if err != nil {
				return err
			}
			posts = append(posts, social.PostSummary{
				Post:     post,
				Likes:    countPrefix(txn, likePrefix(post.ID)),
				Comments: countPrefix(txn, commentPrefix(post.ID)),
			})
		}
		return nil
	})
	return posts, err
}

// ToggleLike likes the post, or removes the like when it already exists.
// It returns the new state and the number of likes after the toggle.
func (s *SocialRepository) ToggleLike(postID int64, user chat.UserID) (bool, int, error) {
	var liked bool
	var count int
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := getPost(txn, postID); err != nil {
			return err
		}
		key := append(likePrefix(postID), []byte(fmt.Sprintf("%020d", user))...)
		_, err := txn.Get(key)
		switch err {
		case nil:
			if err := txn.Delete(key); err != nil {
				return err
			}
		case badger.ErrKeyNotFound:
			if err := txn.Set(key, nil); err != nil {
				return err
			}
			liked = true
		default:
			return err
		}
		count = countPrefix(txn, likePrefix(postID))
		return nil
	})
	if err != nil {
		return false, 0, notFound(err, errors.ErrPostNotFound)
	}
	return liked, count, nil
}

// AddComment stores a comment and returns it with the post's comment count.
func (s *SocialRepository) AddComment(postID int64, author chat.UserID, text string) (social.Comment, int, error) {
	id, err := s.seq.Next(commentSequence)
	if err != nil {
		return social.Comment{}, 0, err
	}
	comment := social.Comment{ID: id, PostID: postID, AuthorID: author, Text: text, CreatedAt: time.Now().UTC()}
	var count int
	err = s.db.Update(func(txn *badger.Txn) error {
		if _, err := getPost(txn, postID); err != nil {
			return err
		}
		key := append(commentPrefix(postID), []byte(fmt.Sprintf("%020d", id))...)
		if err := txn.Set(key, encodeComment(comment)); err != nil {
			return err
		}
		count = countPrefix(txn, commentPrefix(postID))
		return nil
	})
	if err != nil {
		return social.Comment{}, 0, notFound(err, errors.ErrPostNotFound)
	}
	return comment, count, nil
}

// countPrefix counts keys, including the pending writes of txn.
func countPrefix(txn *badger.Txn, prefix []byte) int {
	options := badger.DefaultIteratorOptions
	options.PrefetchValues = false
	it := txn.NewIterator(options)
	defer it.Close()
	count := 0
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		count++
	}
	return count
}

func getRequest(txn *badger.Txn, id int64) (social.ChatRequest, error) {
	item, err := txn.Get(requestKey(id))
	if err != nil {
		return social.ChatRequest{}, err
	}
	var request social.ChatRequest
	err = item.Value(func(val []byte) error {
		request, err = decodeRequest(val)
		return err
	})
	return request, err
}

func getPost(txn *badger.Txn, id int64) (social.Post, error) {
	item, err := txn.Get(postKey(id))
	if err != nil {
		return social.Post{}, err
	}
	var post social.Post
	err = item.Value(func(val []byte) error {
		post, err = decodePost(val)
		return err
	})
	return post, err
}

func encodeRequest(r social.ChatRequest) []byte {
	var w recordWriter
	w.int64(reqID, r.ID)
	w.int64(reqFrom, int64(r.From))
	w.int64(reqTo, int64(r.To))
	w.string(reqStatus, string(r.Status))
	w.time(reqCreatedAt, r.CreatedAt)
	return w.bytes()
}

func decodeRequest(b []byte) (social.ChatRequest, error) {
	var r social.ChatRequest
	err := readRecord(b, func(f field) {
		switch f.num {
		case reqID:
			r.ID = f.int64()
		case reqFrom:
			r.From = chat.UserID(f.int64())
		case reqTo:
			r.To = chat.UserID(f.int64())
		case reqStatus:
			r.Status = social.RequestStatus(f.string())
		case reqCreatedAt:
			r.CreatedAt = f.time()
		}
	})
	return r, err
}

func encodePost(p social.Post) []byte {
	var w recordWriter
	w.int64(pstID, p.ID)
	w.int64(pstAuthor, int64(p.AuthorID))
	w.string(pstTitle, p.Title)
	w.string(pstContent, p.Content)
	w.time(pstCreatedAt, p.CreatedAt)
	return w.bytes()
}

func decodePost(b []byte) (social.Post, error) {
	var p social.Post
	err := readRecord(b, func(f field) {
		switch f.num {
		case pstID:
			p.ID = f.int64()
		case pstAuthor:
			p.AuthorID = chat.UserID(f.int64())
		case pstTitle:
			p.Title = f.string()
		case pstContent:
			p.Content = f.string()
		case pstCreatedAt:
			p.CreatedAt = f.time()
		}
	})
	return p, err
}

func encodeComment(c social.Comment) []byte {
	var w recordWriter
	w.int64(cmtID, c.ID)
	w.int64(cmtPost, c.PostID)
	w.int64(cmtAuthor, int64(c.AuthorID))
	w.string(cmtText, c.Text)
	w.time(cmtCreatedAt, c.CreatedAt)
	return w.bytes()
}
