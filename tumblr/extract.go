package tumblr

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const initialStateSelector = "#___INITIAL_STATE___"

// ExtractInitialState parses an HTML document and decodes the JSON
// text of its ___INITIAL_STATE___ element.
func ExtractInitialState(r io.Reader) (*InitialState, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	sel := doc.Find(initialStateSelector).First()
	if sel.Length() == 0 {
		return nil, ErrMissingInitialState
	}

	text, ok := firstTextChild(sel.Get(0))
	if !ok {
		return nil, ErrMissingInitialState
	}

	state := &InitialState{}
	err = json.Unmarshal([]byte(text), state)
	if err != nil {
		return nil, &SchemaError{Stage: "initial state", Err: err}
	}

	return state, nil
}

// firstTextChild returns the element's first direct text node.
// The JSON is never split across several nodes since
// the element is a <script> tag holding raw text.
func firstTextChild(n *html.Node) (string, bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			return c.Data, true
		}
	}
	return "", false
}

// parseInitialState runs ExtractInitialState on the parse pool.
// Parsing a full page takes several milliseconds of pure computation
// and must not hold up goroutines doing network I/O.
func (c *Client) parseInitialState(ctx context.Context, body []byte) (*InitialState, error) {
	type result struct {
		state *InitialState
		err   error
	}

	ch := make(chan result, 1)
	go func() {
		var state *InitialState
		err := c.parsePool.Do(ctx, func() (err error) {
			state, err = ExtractInitialState(bytes.NewReader(body))
			return
		})
		ch <- result{state, err}
	}()

	select {
	case r := <-ch:
		return r.state, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
