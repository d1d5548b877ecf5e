// Package session remembers the stories an anonymous visitor liked in a signed cookie
package session

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/sessions"
)

const (
	sessionName  = "storykeeper_anon"
	likedKey     = "liked_stories"
	maxLikedSize = 500
	maxAge       = 3600 * 24 * 365
)

// LikeStore keeps the anonymous liked set per browser session.
// The set is not tied to an identity, so counts derived from it are estimates.
type LikeStore struct {
	store sessions.Store
}

// NewLikeStore creates a store signing cookies with secret
func NewLikeStore(secret string, secure bool) *LikeStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &LikeStore{store: store}
}

// IsLiked reports whether the session already liked storyID
func (s *LikeStore) IsLiked(r *http.Request, storyID int) bool {
	session, err := s.store.Get(r, sessionName)
	if err != nil {
		return false
	}
	_, ok := decodeLiked(session)[storyID]
	return ok
}

// Toggle flips storyID in the session set and saves the cookie.
// It returns whether the story is liked after the call.
func (s *LikeStore) Toggle(w http.ResponseWriter, r *http.Request, storyID int) (bool, error) {
	// A cookie signed with a rotated secret yields a fresh session and an error we can ignore
	session, _ := s.store.Get(r, sessionName)

	liked := decodeLiked(session)
	_, wasLiked := liked[storyID]
	if wasLiked {
		delete(liked, storyID)
	} else {
		if len(liked) >= maxLikedSize {
			return false, fmt.Errorf("anonymous like limit of %d reached", maxLikedSize)
		}
		liked[storyID] = struct{}{}
	}

	session.Values[likedKey] = encodeLiked(liked)
	if err := session.Save(r, w); err != nil {
		return wasLiked, fmt.Errorf("failed to save session: %w", err)
	}

	return !wasLiked, nil
}

func decodeLiked(session *sessions.Session) map[int]struct{} {
	liked := make(map[int]struct{})
	raw, ok := session.Values[likedKey].(string)
	if !ok || raw == "" {
		return liked
	}
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.Atoi(part)
		if err == nil && id > 0 {
			liked[id] = struct{}{}
		}
	}
	return liked
}

func encodeLiked(liked map[int]struct{}) string {
	ids := make([]int, 0, len(liked))
	for id := range liked {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
