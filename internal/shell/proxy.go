package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"

	"voxshell/internal/logging"
	"voxshell/internal/window"
)

// FallbackPath serves the local connection error page
const FallbackPath = "/_shell/fallback"

// policyFeatures maps Permissions-Policy features to the permission
// category the window manager decides on
var policyFeatures = []struct {
	feature    string
	permission string
}{
	{"camera", window.PermissionMedia},
	{"microphone", window.PermissionMedia},
	{"geolocation", "geolocation"},
	{"display-capture", "display-capture"},
	{"usb", "usb"},
	{"serial", "serial"},
	{"midi", "midi"},
	{"payment", "payment"},
}

var permissionsPolicy = buildPermissionsPolicy()

func buildPermissionsPolicy() string {
	parts := make([]string, 0, len(policyFeatures))
	for _, f := range policyFeatures {
		if window.AllowPermission(f.permission) {
			parts = append(parts, f.feature+"=(self)")
		} else {
			parts = append(parts, f.feature+"=()")
		}
	}
	return strings.Join(parts, ", ")
}

// runtimeScripts are served by the Wails asset server and give the page
// its bridge bindings
const runtimeScripts = `<script src="/wails/ipc.js"></script><script src="/wails/runtime.js"></script>`

var (
	errDocumentRejected  = errors.New("document rejected")
	errNavigationBlocked = errors.New("navigation blocked")
)

// LoadObserver receives the outcome of document loads. Pending is read
// when a document request starts; only loads the observer is waiting on
// are reported back. Once the page is up the surface navigates on its own.
type LoadObserver interface {
	Pending() (attempt uint64, ok bool)
	Succeeded(attempt uint64)
	Failed(attempt uint64, reason string)
}

// NavigationPolicy decides whether the surface may navigate to a URL
type NavigationPolicy interface {
	AllowNavigation(target string) bool
}

// document travels with a top-level page request through the proxy
type document struct {
	path    string
	attempt uint64
	tracked bool
}

type documentKey struct{}

func documentOf(r *http.Request) (document, bool) {
	doc, ok := r.Context().Value(documentKey{}).(document)
	return doc, ok
}

// Proxy serves the remote origin to the webview and reports document
// loads to a LoadObserver
type Proxy struct {
	origin   *url.URL
	observer LoadObserver
	policy   NavigationPolicy
	proxy    *httputil.ReverseProxy
	fallback http.Handler
}

// NewProxy creates a proxy for originURL
func NewProxy(originURL string, observer LoadObserver, policy NavigationPolicy) (*Proxy, error) {
	origin, err := url.Parse(originURL)
	if err != nil {
		return nil, fmt.Errorf("parse origin: %w", err)
	}
	if origin.Scheme != "http" && origin.Scheme != "https" {
		return nil, fmt.Errorf("origin must be http or https: %s", originURL)
	}

	p := &Proxy{
		origin:   origin,
		observer: observer,
		policy:   policy,
		fallback: fallbackHandler(),
	}
	p.proxy = &httputil.ReverseProxy{
		Rewrite:        p.rewrite,
		ModifyResponse: p.modifyResponse,
		ErrorHandler:   p.handleError,
	}
	return p, nil
}

// ServeHTTP is the Wails asset server handler. The asset server answers
// its own /wails/ runtime paths before a request gets here.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/_shell/") {
		p.fallback.ServeHTTP(w, r)
		return
	}
	if isDocumentRequest(r) {
		doc := document{path: r.URL.Path}
		doc.attempt, doc.tracked = p.observer.Pending()
		r = r.WithContext(context.WithValue(r.Context(), documentKey{}, doc))
	}
	p.proxy.ServeHTTP(w, r)
}

func (p *Proxy) rewrite(pr *httputil.ProxyRequest) {
	pr.SetURL(p.origin)
	// let the transport negotiate gzip so documents arrive decoded
	pr.Out.Header.Del("Accept-Encoding")
	pr.Out.Header.Del("Referer")
	if pr.In.Header.Get("Origin") != "" {
		pr.Out.Header.Set("Origin", p.origin.Scheme+"://"+p.origin.Host)
	}
}

func (p *Proxy) modifyResponse(resp *http.Response) error {
	doc, ok := documentOf(resp.Request)
	if !ok {
		return nil
	}

	if isRedirect(resp.StatusCode) {
		return p.checkRedirect(resp, doc)
	}
	if doc.tracked {
		if resp.StatusCode >= http.StatusInternalServerError {
			p.observer.Failed(doc.attempt, fmt.Sprintf("%s responded with %s", p.origin, resp.Status))
			return errDocumentRejected
		}
		p.observer.Succeeded(doc.attempt)
	}

	resp.Header.Set("Permissions-Policy", permissionsPolicy)
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") && !assetServerInjects(doc.path, resp.StatusCode) {
		return injectRuntime(resp)
	}
	return nil
}

// checkRedirect keeps same-origin redirects inside the proxy and blocks
// the rest
func (p *Proxy) checkRedirect(resp *http.Response, doc document) error {
	loc := resp.Header.Get("Location")
	if loc == "" {
		return nil
	}
	target, err := resp.Request.URL.Parse(loc)
	if err != nil || !p.policy.AllowNavigation(target.String()) {
		logging.Warn("Blocked navigation", "target", loc, "path", doc.path)
		if doc.tracked {
			p.observer.Failed(doc.attempt, fmt.Sprintf("Blocked navigation to %s", loc))
		}
		return errNavigationBlocked
	}
	resp.Header.Set("Location", target.RequestURI())
	return nil
}

func (p *Proxy) handleError(w http.ResponseWriter, r *http.Request, err error) {
	doc, ok := documentOf(r)
	switch {
	case !ok:
		logging.Debug("Origin subresource failed", "path", r.URL.Path, "error", err)
		w.WriteHeader(http.StatusBadGateway)
	case doc.tracked:
		if !errors.Is(err, errDocumentRejected) && !errors.Is(err, errNavigationBlocked) {
			p.observer.Failed(doc.attempt, fmt.Sprintf("Unable to reach %s: %v", p.origin, unwrapNetError(err)))
		}
		http.Redirect(w, r, FallbackPath, http.StatusSeeOther)
	case errors.Is(err, errNavigationBlocked):
		// 204 leaves the surface on the page it is showing
		w.WriteHeader(http.StatusNoContent)
	default:
		logging.Warn("Origin navigation failed", "path", r.URL.Path, "error", unwrapNetError(err))
		http.Error(w, fmt.Sprintf("Unable to reach %s", p.origin), http.StatusBadGateway)
	}
}

// assetServerInjects reports whether the Wails asset server adds the
// runtime scripts to this response itself, which it does for successful
// responses on directory and index.html paths
func assetServerInjects(path string, status int) bool {
	if status != http.StatusOK {
		return false
	}
	return path == "" || strings.HasSuffix(path, "/") || strings.HasSuffix(path, "/index.html")
}

func injectRuntime(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return err
	}

	var out []byte
	if i := bytes.Index(bytes.ToLower(body), []byte("</head>")); i >= 0 {
		out = make([]byte, 0, len(body)+len(runtimeScripts))
		out = append(out, body[:i]...)
		out = append(out, runtimeScripts...)
		out = append(out, body[i:]...)
	} else {
		out = append([]byte(runtimeScripts), body...)
	}

	resp.Body = io.NopCloser(bytes.NewReader(out))
	resp.ContentLength = int64(len(out))
	resp.Header.Set("Content-Length", strconv.Itoa(len(out)))
	resp.Header.Del("Content-Encoding")
	return nil
}

func isDocumentRequest(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	if dest := r.Header.Get("Sec-Fetch-Dest"); dest != "" {
		return dest == "document"
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func unwrapNetError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
