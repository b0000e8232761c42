package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/daprwatch/internal/watcher"
)

// Router provides embeddable HTTP handlers over the watcher's snapshot.
// Endpoints:
//
//	GET  {basePath}/instances   query: app_id=... (filter), force=1 (rescan first)
//	POST {basePath}/refresh     runs one scan and returns the new snapshot
//	GET  {basePath}/healthz
//
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	w        *watcher.Watcher
	basePath string
}

func NewRouter(w *watcher.Watcher, basePath string) *Router {
	return &Router{w: w, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in
// any server or mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/instances", r.handleInstances)
	group.POST("/refresh", r.handleRefresh)
	group.GET("/healthz", r.handleHealthz)
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
// Close the returned server to stop it.
func NewServer(addr, basePath string, w *watcher.Watcher) (*http.Server, error) {
	r := NewRouter(w, basePath)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server, nil
}

type errorResp struct {
	Error string `json:"error"`
}

func (r *Router) handleInstances(c *gin.Context) {
	force := c.Query("force") == "1" || c.Query("force") == "true"
	insts := r.w.Snapshot(c.Request.Context(), force)
	if appID := c.Query("app_id"); appID != "" {
		filtered := insts[:0]
		for _, inst := range insts {
			if inst.AppID == appID {
				filtered = append(filtered, inst)
			}
		}
		insts = filtered
	}
	c.JSON(http.StatusOK, insts)
}

func (r *Router) handleRefresh(c *gin.Context) {
	insts, err := r.w.Refresh(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, errorResp{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, insts)
}

func (r *Router) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func sanitizeBase(base string) string {
	base = strings.TrimRight(base, "/")
	if base != "" && !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return base
}
