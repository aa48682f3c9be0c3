package handler

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/CageChen/pathquery/internal/config"
	mfs "github.com/CageChen/pathquery/internal/fs"
)

// RootWatcher follows roots added or removed through the API.
type RootWatcher interface {
	AddRoot(root config.Root)
	RemoveRoot(root config.Root)
}

// SetRootWatcher registers w to be told about root changes.
func (h *QueryHandler) SetRootWatcher(w RootWatcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rootWatcher = w
}

// GetRoots returns the configured roots
func (h *QueryHandler) GetRoots(c *gin.Context) {
	h.mu.RLock()
	roots := append([]config.Root{}, h.cfg.Roots...)
	h.mu.RUnlock()

	c.JSON(http.StatusOK, gin.H{"roots": roots})
}

// AddRootRequest represents a request to add a root
type AddRootRequest struct {
	Path   string `json:"path" binding:"required"`
	Alias  string `json:"alias"`
	GitRef string `json:"git_ref"`
}

// AddRoot registers a new root and saves the configuration
func (h *QueryHandler) AddRoot(c *gin.Context) {
	var req AddRootRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	// The path must be a directory on disk even for git_ref roots
	info, err := os.Stat(req.Path)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path does not exist: " + req.Path})
		return
	}
	if !info.IsDir() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is not a directory"})
		return
	}
	if req.GitRef != "" {
		if _, err := mfs.NewGitFS(req.Path, req.GitRef).Stat(""); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown git ref: " + req.GitRef})
			return
		}
	}

	h.mu.Lock()
	before := len(h.cfg.Roots)
	if err := h.cfg.AddRoot(req.Path, req.Alias, req.GitRef); err != nil {
		h.mu.Unlock()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.cfg.Save(); err != nil {
		h.mu.Unlock()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save config: " + err.Error()})
		return
	}
	roots := append([]config.Root{}, h.cfg.Roots...)
	rw := h.rootWatcher
	h.mu.Unlock()

	if len(roots) > before {
		added := roots[len(roots)-1]
		h.logger.Info("root added", "path", added.Path, "alias", added.Alias, "git_ref", added.GitRef)
		if rw != nil {
			rw.AddRoot(added)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "root added",
		"roots":   roots,
	})
}

// RemoveRootRequest represents a request to remove a root (by index)
type RemoveRootRequest struct {
	Index *int `json:"index" binding:"required"`
}

// RemoveRoot removes a root by index and saves the configuration
func (h *QueryHandler) RemoveRoot(c *gin.Context) {
	var req RemoveRootRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index is required"})
		return
	}

	h.mu.Lock()
	var removed config.Root
	if i := *req.Index; i >= 0 && i < len(h.cfg.Roots) {
		removed = h.cfg.Roots[i]
	}
	if !h.cfg.RemoveRootByIndex(*req.Index) {
		h.mu.Unlock()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid root index"})
		return
	}
	if err := h.cfg.Save(); err != nil {
		h.mu.Unlock()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save config: " + err.Error()})
		return
	}
	roots := append([]config.Root{}, h.cfg.Roots...)
	rw := h.rootWatcher
	h.mu.Unlock()

	h.logger.Info("root removed", "path", removed.Path, "alias", removed.Alias)
	if rw != nil {
		rw.RemoveRoot(removed)
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "root removed",
		"roots":   roots,
	})
}
