// Package tiebatest provides an in-process fake of the passport and forum
// services for tests, in the manner of net/http/httptest.
package tiebatest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/nao1215/tiebasign/internal/config"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// Fixed values issued by the fake.
const (
	LoginToken   = "f1e2d3c4b5a6978812345678"
	TBS          = "0a1b2c3d4e5f60718293a4b5c6"
	sessionName  = "BDUSS"
	sessionValue = "fake-session"
)

// Paths served by the fake.
const (
	PathLogin      = "/passport/login"
	PathLoginToken = "/passport/token"
	PathForumList  = "/f/like/mylike"
	PathTBS        = "/dc/common/tbs"
	PathSign       = "/sign/add"
)

// Config describes the account the fake serves.
type Config struct {
	// Username and Password are the accepted credentials.
	Username string
	Password string

	// Forums is the followed-forum list, duplicates allowed.
	Forums []string

	// PerPage splits Forums into pages of this size. Zero puts everything
	// on one page.
	PerPage int

	// GBK serves the forum list encoded as GBK, like the real site.
	GBK bool

	// Responses maps a forum to its sign response. Missing forums get
	// {"no":0}.
	Responses map[string]map[string]any

	// BrokenSign lists forums whose sign request fails with HTTP 502.
	BrokenSign map[string]bool

	// BrokenTBS makes the tbs endpoint return malformed JSON.
	BrokenTBS bool
}

// Server is a running fake.
type Server struct {
	*httptest.Server

	cfg Config

	mu     sync.Mutex
	calls  map[string]int
	signed []string
}

// NewServer starts a fake. Call Close when done.
func NewServer(cfg Config) *Server {
	s := &Server{cfg: cfg, calls: make(map[string]int)}

	mux := http.NewServeMux()
	mux.HandleFunc(PathLogin, s.handleLogin)
	mux.HandleFunc(PathLoginToken, s.handleLoginToken)
	mux.HandleFunc(PathForumList, s.handleForumList)
	mux.HandleFunc(PathTBS, s.handleTBS)
	mux.HandleFunc(PathSign, s.handleSign)

	s.Server = httptest.NewServer(mux)
	return s
}

// Endpoints returns endpoints pointing at the fake.
func (s *Server) Endpoints() config.Endpoints {
	return config.Endpoints{
		LoginPage:  s.URL + PathLogin + "?login",
		LoginToken: s.URL + PathLoginToken + "?getapi&tpl=mn&apiver=v3&class=login",
		Login:      s.URL + PathLogin + "?login",
		ForumList:  s.URL + PathForumList,
		TBS:        s.URL + PathTBS,
		Sign:       s.URL + PathSign,
	}
}

// Calls returns how many requests reached path.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// TotalCalls returns the number of requests served.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// Signed returns the kw values of the sign requests, in order.
func (s *Server) Signed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.signed...)
}

func (s *Server) count(path string) {
	s.mu.Lock()
	s.calls[path]++
	s.mu.Unlock()
}

func loggedIn(r *http.Request) bool {
	c, err := r.Cookie(sessionName)
	return err == nil && c.Value == sessionValue
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.count(PathLogin)

	if r.Method == http.MethodGet {
		http.SetCookie(w, &http.Cookie{Name: "BAIDUID", Value: "fake-baiduid", Path: "/"})
		fmt.Fprint(w, "<html><body>login</body></html>")
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	errNo := 0
	switch {
	case r.PostForm.Get("token") != LoginToken:
		errNo = 6
	case r.PostForm.Get("username") != s.cfg.Username || r.PostForm.Get("password") != s.cfg.Password:
		errNo = 4
	}
	if errNo == 0 {
		http.SetCookie(w, &http.Cookie{Name: sessionName, Value: sessionValue, Path: "/"})
	}
	fmt.Fprintf(w, `<script>var href="%s?err_no=%d&callback=%s";</script>`,
		r.PostForm.Get("staticpage"), errNo, r.PostForm.Get("callback"))
}

func (s *Server) handleLoginToken(w http.ResponseWriter, _ *http.Request) {
	s.count(PathLoginToken)
	writeJSON(w, map[string]any{
		"errInfo": map[string]any{"no": "0"},
		"data":    map[string]any{"token": LoginToken},
	})
}

func (s *Server) handleForumList(w http.ResponseWriter, r *http.Request) {
	s.count(PathForumList)

	var forums []string
	if loggedIn(r) {
		forums = s.cfg.Forums
	}

	page := 1
	if pn, err := strconv.Atoi(r.URL.Query().Get("pn")); err == nil && pn > 1 {
		page = pn
	}
	per := s.cfg.PerPage
	if per <= 0 {
		per = len(forums) + 1
	}
	start := (page - 1) * per
	end := start + per
	if start > len(forums) {
		start = len(forums)
	}
	if end > len(forums) {
		end = len(forums)
	}

	var b strings.Builder
	b.WriteString(`<html><head><title>我喜欢的吧</title></head><body><table class="forum_table">`)
	for _, name := range forums[start:end] {
		fmt.Fprintf(&b, `<tr><td><a href="/f?kw=%s" title="%s">%s</a></td></tr>`,
			s.encodeName(name), name, name)
	}
	b.WriteString(`</table><div class="pager">`)
	if end < len(forums) {
		fmt.Fprintf(&b, `<a href="%s?pn=%d">%s</a>`, PathForumList, page+1, "下一页")
	}
	b.WriteString(`</div></body></html>`)

	if s.cfg.GBK {
		body, err := simplifiedchinese.GBK.NewEncoder().String(b.String())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=gbk")
		fmt.Fprint(w, body)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, b.String())
}

func (s *Server) encodeName(name string) string {
	if !s.cfg.GBK {
		return url.PathEscape(name)
	}
	gbk, err := simplifiedchinese.GBK.NewEncoder().String(name)
	if err != nil {
		return url.PathEscape(name)
	}
	return url.PathEscape(gbk)
}

func (s *Server) handleTBS(w http.ResponseWriter, r *http.Request) {
	s.count(PathTBS)
	if s.cfg.BrokenTBS {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"tbs":`)
		return
	}
	if !loggedIn(r) {
		writeJSON(w, map[string]any{"tbs": "", "is_login": 0})
		return
	}
	writeJSON(w, map[string]any{"tbs": TBS, "is_login": 1})
}

func (s *Server) handleSign(w http.ResponseWriter, r *http.Request) {
	s.count(PathSign)

	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	kw := r.PostForm.Get("kw")

	s.mu.Lock()
	s.signed = append(s.signed, kw)
	s.mu.Unlock()

	if s.cfg.BrokenSign[kw] {
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}
	if r.PostForm.Get("tbs") != TBS || !loggedIn(r) {
		writeJSON(w, map[string]any{"no": 1990055, "error": "user not login", "data": ""})
		return
	}
	if resp, ok := s.cfg.Responses[kw]; ok {
		writeJSON(w, resp)
		return
	}
	writeJSON(w, map[string]any{"no": 0, "error": "", "data": map[string]any{"errno": 0}})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}
