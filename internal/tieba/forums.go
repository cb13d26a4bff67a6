package tieba

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// nextPageText is the anchor text of the pager's next link.
const nextPageText = "下一页"

// forumLinkPattern matches the forum links of the followed-forum page.
var forumLinkPattern = regexp.MustCompile(`/f\?kw=([^"]+)"`)

// FollowedForums returns the names of the forums the account follows, in
// the order they first appear, without duplicates. It follows the pager
// up to the configured page limit. An empty result is not an error.
func (c *Client) FollowedForums(ctx context.Context) ([]string, error) {
	var forums []string
	seen := make(map[string]bool)
	visited := make(map[string]bool)

	next := c.endpoints.ForumList
	for page := 1; next != "" && page <= c.maxPages; page++ {
		if visited[next] {
			break
		}
		visited[next] = true

		resp, err := c.get(ctx, "forum list", next)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			c.logger.Warn("stopping forum list pagination", "page", page, "error", err)
			break
		}

		text := decodeBody(resp.Body(), resp.Header().Get("Content-Type"))
		for _, name := range ParseForums(text) {
			if seen[name] {
				continue
			}
			seen[name] = true
			forums = append(forums, name)
		}
		c.logger.Debug("forum list page parsed", "page", page, "forums", len(forums))

		next = nextPageURL(text, next)
	}

	return forums, nil
}

// ParseForums extracts forum names from a followed-forum page, decoded and
// deduplicated in order of first appearance.
func ParseForums(page string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range forumLinkPattern.FindAllStringSubmatch(page, -1) {
		raw := m[1]
		// links may carry extra parameters such as &fr=home
		if i := strings.IndexAny(raw, "&#"); i >= 0 {
			raw = raw[:i]
		}
		if raw == "" {
			continue
		}
		name := DecodeForumName(raw)
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// DecodeForumName percent-decodes a kw value. The page is GBK encoded, so
// decoded bytes that are not UTF-8 are read as GBK. When decoding fails the
// raw value is returned unchanged.
func DecodeForumName(raw string) string {
	s, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	if utf8.ValidString(s) {
		return s
	}
	decoded, err := simplifiedchinese.GBK.NewDecoder().String(s)
	if err != nil || !utf8.ValidString(decoded) {
		return raw
	}
	return decoded
}

// decodeBody converts the body to UTF-8 using the declared or sniffed
// charset. The raw bytes are used when conversion fails.
func decodeBody(body []byte, contentType string) string {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return string(body)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return string(body)
	}
	return string(out)
}

// nextPageURL finds the pager's next link and resolves it against the
// current page URL. It returns "" on the last page.
func nextPageURL(page, current string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return ""
	}

	var href string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) != nextPageText {
			return true
		}
		href, _ = s.Attr("href")
		return false
	})
	if href == "" {
		return ""
	}

	base, err := url.Parse(current)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
