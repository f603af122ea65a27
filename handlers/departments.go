package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ammiranda/department_service/models"
	"github.com/ammiranda/department_service/nestedset"
	"github.com/ammiranda/department_service/service"
)

// DepartmentService is the part of service.DepartmentService the handlers use
type DepartmentService interface {
	Insert(ctx context.Context, name string, parentID *int64) (nestedset.Node, error)
	Reparent(ctx context.Context, id int64, newParentID *int64) (nestedset.Node, error)
	Rename(ctx context.Context, id int64, name string) (nestedset.Node, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (nestedset.Node, error)
	ListAncestors(ctx context.Context, id int64) ([]nestedset.Node, error)
	ListDescendants(ctx context.Context, id int64) ([]nestedset.Node, error)
	ListChildren(ctx context.Context, id int64) ([]nestedset.Node, error)
	ListRoots(ctx context.Context) ([]nestedset.Node, error)
	Subtree(ctx context.Context, id int64) ([]nestedset.Node, error)
}

var errInvalidID = errors.New("department id must be a positive integer")

// DepartmentHandler handles department-related HTTP requests
type DepartmentHandler struct {
	svc DepartmentService
}

// NewDepartmentHandler creates a new DepartmentHandler instance
func NewDepartmentHandler(svc DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{
		svc: svc,
	}
}

// RegisterRoutes mounts the department API on r
func (h *DepartmentHandler) RegisterRoutes(r gin.IRouter) {
	api := r.Group("/api/departments")
	{
		api.POST("", h.CreateDepartment)
		api.GET("", h.ListRoots)
		api.GET("/:id", h.GetDepartment)
		api.PATCH("/:id", h.RenameDepartment)
		api.DELETE("/:id", h.DeleteDepartment)
		api.PUT("/:id/parent", h.ReparentDepartment)
		api.GET("/:id/ancestors", h.list(h.svc.ListAncestors))
		api.GET("/:id/descendants", h.list(h.svc.ListDescendants))
		api.GET("/:id/children", h.list(h.svc.ListChildren))
		api.GET("/:id/tree", h.GetTree)
	}
}

// CreateDepartment creates a root or a last child
func (h *DepartmentHandler) CreateDepartment(c *gin.Context) {
	var req models.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	node, err := h.svc.Insert(c.Request.Context(), req.Name, req.ParentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.NewDepartment(node))
}

// ListRoots returns the root of every tree
func (h *DepartmentHandler) ListRoots(c *gin.Context) {
	nodes, err := h.svc.ListRoots(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewDepartments(nodes))
}

// GetDepartment returns one department
func (h *DepartmentHandler) GetDepartment(c *gin.Context) {
	id, ok := departmentID(c)
	if !ok {
		return
	}
	node, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewDepartment(node))
}

// RenameDepartment changes a department's name
func (h *DepartmentHandler) RenameDepartment(c *gin.Context) {
	id, ok := departmentID(c)
	if !ok {
		return
	}
	var req models.RenameDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	node, err := h.svc.Rename(c.Request.Context(), id, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewDepartment(node))
}

// ReparentDepartment moves a department with its subtree
func (h *DepartmentHandler) ReparentDepartment(c *gin.Context) {
	id, ok := departmentID(c)
	if !ok {
		return
	}
	var req models.ReparentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	node, err := h.svc.Reparent(c.Request.Context(), id, req.ParentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewDepartment(node))
}

// DeleteDepartment removes a department and everything below it
func (h *DepartmentHandler) DeleteDepartment(c *gin.Context) {
	id, ok := departmentID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetTree renders a department's subtree as nested JSON
func (h *DepartmentHandler) GetTree(c *gin.Context) {
	id, ok := departmentID(c)
	if !ok {
		return
	}
	nodes, err := h.svc.Subtree(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	tree := models.BuildTree(nodes)
	if len(tree) != 1 {
		respondError(c, fmt.Errorf("%w: subtree of %d has %d heads", service.ErrDataIntegrity, id, len(tree)))
		return
	}
	c.JSON(http.StatusOK, tree[0])
}

// list adapts a relative query to a handler
func (h *DepartmentHandler) list(query func(context.Context, int64) ([]nestedset.Node, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := departmentID(c)
		if !ok {
			return
		}
		nodes, err := query(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.NewDepartments(nodes))
	}
}

func departmentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidID.Error()})
		return 0, false
	}
	return id, true
}

// respondError maps service errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrDepartmentNotFound), errors.Is(err, service.ErrParentDepartmentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrDataIntegrity):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		requestLogger(c).Error("request failed", slog.Any("error", err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
