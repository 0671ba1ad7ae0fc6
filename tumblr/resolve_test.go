package tumblr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePostURL(t *testing.T) {
	for _, tc := range []struct {
		url  string
		blog string
		id   uint64
	}{
		{"https://www.tumblr.com/justcatposts/748474744137007104", "justcatposts", 748474744137007104},
		{"https://www.tumblr.com/toss-a-coin-to-your-stan-account/746546342405537792", "toss-a-coin-to-your-stan-account", 746546342405537792},
		{"https://www.tumblr.com/justcatposts/748474744137007104/look-at-him-go", "justcatposts", 748474744137007104},
		{"https://www.tumblr.com/a/0", "a", 0},
		{"https://www.tumblr.com/a/18446744073709551615", "a", 18446744073709551615},
		{"http://www.tumblr.com/a/1?source=share", "a", 1},
		{"https://WWW.Tumblr.com/a/1", "a", 1},
	} {
		blog, id, err := ParsePostURL(tc.url)
		require.NoError(t, err, tc.url)
		assert.Equal(t, tc.blog, blog, tc.url)
		assert.Equal(t, tc.id, id, tc.url)
	}
}

func TestParsePostURLErrors(t *testing.T) {
	for _, raw := range []string{
		"https://tumblr.com/justcatposts/748474744137007104",
		"https://justcatposts.tumblr.com/post/748474744137007104",
		"https://www.tumblr.com.evil.example/justcatposts/1",
		"https://www.tumblr.com/justcatposts",
		"https://www.tumblr.com/justcatposts/",
		"https://www.tumblr.com/",
		"https://www.tumblr.com/justcatposts/abc",
		"https://www.tumblr.com/justcatposts/-1",
		"https://www.tumblr.com/justcatposts/18446744073709551616",
		"ftp://www.tumblr.com/justcatposts/1",
		"www.tumblr.com/justcatposts/1",
		"://",
		"https://www.tumblr.com/..%2F..%2Fetc/1",
		"https://www.tumblr.com/%2E%2E/1",
		"https://www.tumblr.com/%2e/1",
		"https://www.tumblr.com/a%5Cb/1",
		"https://www.tumblr.com/a%00/1",
		"https://www.tumblr.com/%zz/1",
	} {
		_, _, err := ParsePostURL(raw)
		assert.ErrorIs(t, err, ErrInvalidPostURL, raw)
	}
}

func timeline(posts ...*Post) *InitialState {
	objects := make(TimelineObjects, 0, len(posts))
	for _, p := range posts {
		objects = append(objects, p)
	}
	return &InitialState{
		PeeprRoute: &PeeprRoute{InitialTimeline: InitialTimeline{Objects: objects}},
	}
}

func TestFindPost(t *testing.T) {
	state := timeline(
		&Post{ID: 1, BlogName: "other"},
		&Post{ID: 748474744137007104, BlogName: "reblogger"},
		&Post{ID: 748474744137007104, BlogName: "justcatposts", Slug: "match"},
		&Post{ID: 2, BlogName: "justcatposts"},
	)

	post, err := FindPost(state, "justcatposts", 748474744137007104)
	require.NoError(t, err)
	assert.Equal(t, "match", post.Slug)
}

func TestFindPostTakesFirstOfSeveralMatches(t *testing.T) {
	state := timeline(
		&Post{ID: 5, BlogName: "a", Slug: "first"},
		&Post{ID: 5, BlogName: "a", Slug: "second"},
	)

	post, err := FindPost(state, "a", 5)
	require.NoError(t, err)
	assert.Equal(t, "first", post.Slug)
}

func TestFindPostMissing(t *testing.T) {
	for _, state := range []*InitialState{
		{},
		timeline(),
		timeline(&Post{ID: 5, BlogName: "b"}, &Post{ID: 6, BlogName: "a"}),
	} {
		_, err := FindPost(state, "a", 5)
		assert.True(t, errors.Is(err, ErrMissingScrapedPost))
	}
}

func TestPostURL(t *testing.T) {
	assert.Equal(t, "https://www.tumblr.com/justcatposts/748474744137007104", PostURL(DefaultBaseURL, "justcatposts", 748474744137007104))
}
