// Package preview serves a built static mirror locally, with live reload:
// when the mirror is rebuilt, connected browsers are told to refresh over
// a WebSocket.
package preview

import (
	"bytes"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// reloadPath is where the preview server mounts its WebSocket endpoint
// and client script.
const reloadPath = "/_statica/reload"

// reloadScript is injected into served HTML pages. It reconnects with a
// small backoff so a restart of the preview server does not strand tabs.
const reloadScript = `<script>
(function () {
  function connect() {
    var ws = new WebSocket("ws://" + location.host + "` + reloadPath + `");
    ws.onmessage = function (ev) {
      var msg = JSON.parse(ev.data);
      if (msg.type === "reload") location.reload();
    };
    ws.onclose = function () { setTimeout(connect, 1000); };
  }
  connect();
})();
</script>`

// Server serves a mirror directory with the same URL-to-file mapping the
// materializer used to write it.
type Server struct {
	dir      string
	indexDoc string
	ext      string
	router   chi.Router
	reload   *broadcaster
}

// Option configures a Server.
type Option func(*Server)

// WithIndexDocument sets the file the root URL resolves to.
func WithIndexDocument(name string) Option {
	return func(s *Server) {
		s.indexDoc = name
	}
}

// WithDefaultExtension sets the extension tried for extensionless URLs.
func WithDefaultExtension(ext string) Option {
	return func(s *Server) {
		s.ext = ext
	}
}

// New creates a preview Server for the mirror directory dir.
func New(dir string, opts ...Option) *Server {
	s := &Server{
		dir:      dir,
		indexDoc: "index.html",
		ext:      ".html",
		reload:   newBroadcaster(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get(reloadPath, s.reload.handleWebSocket)
	r.NotFound(s.servePage)
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// NotifyRebuild tells every connected browser to reload.
func (s *Server) NotifyRebuild() {
	s.reload.notify()
}

// ClientCount returns the number of connected browsers.
func (s *Server) ClientCount() int {
	return s.reload.clientCount()
}

// Close disconnects all reload clients.
func (s *Server) Close() {
	s.reload.close()
}

// servePage resolves a URL path against the mirror directory and serves
// the file, injecting the reload script into HTML documents.
func (s *Server) servePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	rel, ok := s.relPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	body, err := os.ReadFile(filepath.Join(s.dir, filepath.FromSlash(rel)))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if strings.HasSuffix(rel, ".html") {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		body = injectReloadScript(body)
	}
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.Write(body)
}

// relPath maps a request path to a relative file path inside the mirror
// directory, rejecting anything that could escape it.
func (s *Server) relPath(urlPath string) (string, bool) {
	rel := strings.TrimPrefix(urlPath, "/")
	if rel == "" {
		return s.indexDoc, true
	}

	if strings.IndexByte(rel, 0) != -1 || strings.Contains(rel, "\\") {
		return "", false
	}
	for _, seg := range strings.Split(rel, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", false
		}
	}

	clean := path.Clean(rel)
	if clean == "." || strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, "/") {
		return "", false
	}
	if path.Ext(clean) == "" {
		clean += s.ext
	}
	return clean, true
}

// injectReloadScript places the reload script before </body>, or appends
// it when the page has no closing body tag.
func injectReloadScript(body []byte) []byte {
	if i := bytes.LastIndex(body, []byte("</body>")); i != -1 {
		out := make([]byte, 0, len(body)+len(reloadScript))
		out = append(out, body[:i]...)
		out = append(out, reloadScript...)
		out = append(out, body[i:]...)
		return out
	}
	return append(body, reloadScript...)
}
