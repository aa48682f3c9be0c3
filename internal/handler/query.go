// Package handler provides the HTTP handlers for the pathquery REST API.
package handler

import (
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/CageChen/pathquery/internal/config"
	mfs "github.com/CageChen/pathquery/internal/fs"
	"github.com/CageChen/pathquery/internal/pathquery"
	"github.com/CageChen/pathquery/internal/report"
)

var errTraversal = errors.New("path traversal")

// QueryHandler serves path queries over the configured roots. Every path in a
// request or response has the form {alias}/{relative path}.
type QueryHandler struct {
	cfg      *config.Config
	logger   *log.Logger
	renderer *report.Renderer

	mu          sync.RWMutex
	rootWatcher RootWatcher
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(cfg *config.Config, logger *log.Logger) *QueryHandler {
	return &QueryHandler{
		cfg:      cfg,
		logger:   logger,
		renderer: report.NewRenderer(),
	}
}

// fsForRoot returns the appropriate FileSystem for a root config.
func fsForRoot(root config.Root) mfs.FileSystem {
	if root.GitRef != "" {
		return mfs.NewGitFS(root.Path, root.GitRef)
	}
	return mfs.NewLocalFS(root.Path)
}

// resolve cleans an aliased path and returns a Querier whose filesystem is
// mounted at the alias.
func (h *QueryHandler) resolve(p string) (*pathquery.Querier, string, error) {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil, "", fs.ErrNotExist
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return nil, "", errTraversal
		}
	}
	p = path.Clean(p)

	alias, _, _ := strings.Cut(p, "/")

	h.mu.RLock()
	root, ok := h.cfg.RootByAlias(alias)
	h.mu.RUnlock()
	if !ok {
		return nil, "", fs.ErrNotExist
	}

	return pathquery.New(mfs.Mount(alias, fsForRoot(root))), p, nil
}

// querier resolves the named query parameter or writes the error response.
func (h *QueryHandler) querier(c *gin.Context, param string) (*pathquery.Querier, string, bool) {
	raw := c.Query(param)
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": param + " is required"})
		return nil, "", false
	}
	q, p, err := h.resolve(raw)
	if err != nil {
		h.writeError(c, err)
		return nil, "", false
	}
	return q, p, true
}

func (h *QueryHandler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := err.Error()
	switch {
	case errors.Is(err, errTraversal):
		status, msg = http.StatusForbidden, "invalid path"
	case errors.Is(err, fs.ErrNotExist):
		status, msg = http.StatusNotFound, "path not found"
	case errors.Is(err, pathquery.ErrNotDirectory):
		status, msg = http.StatusBadRequest, "path is not a directory"
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("query failed", "path", c.Request.URL.String(), "error", err)
	}
	c.JSON(status, gin.H{"error": msg})
}

func (h *QueryHandler) find(c *gin.Context) ([]string, report.Query, bool) {
	q, root, ok := h.querier(c, "root")
	if !ok {
		return nil, report.Query{}, false
	}
	rq := report.Query{Root: root, Suffix: c.Query("suffix"), Ancestor: c.Query("ancestor")}

	var files []string
	var err error
	if rq.Ancestor != "" {
		files, err = q.FindFilesWithAncestorAndSuffix(root, rq.Ancestor, rq.Suffix)
	} else {
		files, err = q.FindFilesWithSuffix(root, rq.Suffix)
	}
	if err != nil {
		h.writeError(c, err)
		return nil, rq, false
	}
	return files, rq, true
}

// Find returns the entries below root ending with suffix, optionally filtered
// by an ancestor name.
func (h *QueryHandler) Find(c *gin.Context) {
	files, _, ok := h.find(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

// Ancestor returns the nearest ancestor of path with the given name.
func (h *QueryHandler) Ancestor(c *gin.Context) {
	_, p, ok := h.querier(c, "path")
	if !ok {
		return
	}
	ancestor, found := pathquery.GetAncestor(p, c.Query("name"))
	c.JSON(http.StatusOK, gin.H{"found": found, "ancestor": ancestor})
}

// Child reports whether dir contains an entry called name. An empty name
// probes dir itself, like the library call.
func (h *QueryHandler) Child(c *gin.Context) {
	q, dir, ok := h.querier(c, "dir")
	if !ok {
		return
	}
	name := c.Query("name")
	if strings.Contains(name, "/") || name == ".." {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name must be a single path segment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": q.HasChild(dir, name)})
}

// Children lists the immediate children of dir; missing directories yield an
// empty list.
func (h *QueryHandler) Children(c *gin.Context) {
	q, dir, err := h.resolve(c.Query("dir"))
	if err != nil {
		if errors.Is(err, errTraversal) {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"children": []string{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"children": q.GetChildren(dir)})
}

// Parent returns the parent of path if it exists inside the same root.
func (h *QueryHandler) Parent(c *gin.Context) {
	q, p, ok := h.querier(c, "path")
	if !ok {
		return
	}
	parent, found := q.GetParent(p)
	c.JSON(http.StatusOK, gin.H{"found": found, "parent": parent})
}

// Report renders a find query as an HTML report.
func (h *QueryHandler) Report(c *gin.Context) {
	files, rq, ok := h.find(c)
	if !ok {
		return
	}
	md := report.Build(rq, files)
	rendered, err := h.renderer.HTML(md)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render report: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"title":    rendered.Title,
		"markdown": md,
		"html":     rendered.HTML,
		"toc":      rendered.TOC,
		"count":    len(files),
	})
}
