package tumblr

import (
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
)

const postHost = "www.tumblr.com"

// FindPost returns the post matching (blogIdentifier, postID) from a permalink page's timeline.
// The first match wins if the timeline happens to contain several.
func FindPost(state *InitialState, blogIdentifier string, postID uint64) (*Post, error) {
	if state.PeeprRoute == nil {
		return nil, ErrMissingScrapedPost
	}

	var (
		found *Post
		count int
	)
	for _, obj := range state.PeeprRoute.InitialTimeline.Objects {
		post, ok := obj.(*Post)
		if !ok || post.BlogName != blogIdentifier || uint64(post.ID) != postID {
			continue
		}
		if found == nil {
			found = post
		}
		count++
	}

	if found == nil {
		return nil, ErrMissingScrapedPost
	}
	if count > 1 {
		log.Printf("%s: found %d timeline objects for post %d, using the first one", blogIdentifier, count, postID)
	}
	return found, nil
}

func PostURL(baseURL string, blogIdentifier string, postID uint64) string {
	return fmt.Sprintf("%s/%s/%d", baseURL, url.PathEscape(blogIdentifier), postID)
}

// ParsePostURL splits a permalink of the form https://www.tumblr.com/<blog>/<id>.
// Trailing segments like the post slug are ignored.
func ParsePostURL(rawurl string) (string, uint64, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return "", 0, &URLError{URL: rawurl, Reason: err.Error()}
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return "", 0, &URLError{URL: rawurl, Reason: "unsupported scheme"}
	}
	if !strings.EqualFold(u.Host, postHost) {
		return "", 0, &URLError{URL: rawurl, Reason: "host must be " + postHost}
	}

	segments := strings.Split(strings.TrimPrefix(u.EscapedPath(), "/"), "/")
	if len(segments) < 1 || len(segments[0]) == 0 {
		return "", 0, &URLError{URL: rawurl, Reason: "missing blog identifier"}
	}
	if len(segments) < 2 || len(segments[1]) == 0 {
		return "", 0, &URLError{URL: rawurl, Reason: "missing post id"}
	}

	// The identifier becomes a directory name, so it must stay a single path element.
	blogIdentifier, err := url.PathUnescape(segments[0])
	if err != nil || blogIdentifier == "." || blogIdentifier == ".." || strings.ContainsAny(blogIdentifier, "/\\\x00") {
		return "", 0, &URLError{URL: rawurl, Reason: "invalid blog identifier"}
	}

	postID, err := strconv.ParseUint(segments[1], 10, 64)
	if err != nil {
		return "", 0, &URLError{URL: rawurl, Reason: "invalid post id"}
	}

	return blogIdentifier, postID, nil
}
