package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/foodgram-project/backend/internal/middleware"
	"github.com/foodgram-project/backend/internal/service"
)

// TagHandler serves tag reads publicly and writes to admins only.
type TagHandler struct {
	tagService  *service.TagService
	authService *service.AuthService
}

func NewTagHandler(tagService *service.TagService, authService *service.AuthService) *TagHandler {
	return &TagHandler{tagService: tagService, authService: authService}
}

func (h *TagHandler) RegisterRoutes(router *gin.RouterGroup) {
	tags := router.Group("/tags")
	{
		tags.GET("", h.ListTags)
		tags.GET("/:id", h.GetTag)

		admin := tags.Group("", middleware.AuthMiddleware(h.authService), middleware.AdminRequired())
		{
			admin.POST("", h.CreateTag)
			admin.PUT("/:id", h.UpdateTag)
			admin.PATCH("/:id", h.UpdateTag)
			admin.DELETE("/:id", h.DeleteTag)
		}
	}
}

func (h *TagHandler) ListTags(c *gin.Context) {
	tags, err := h.tagService.List()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	results := make([]TagResponse, 0, len(tags))
	for i := range tags {
		results = append(results, toTagResponse(&tags[i]))
	}
	c.JSON(http.StatusOK, results)
}

func (h *TagHandler) GetTag(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return
	}

	tag, err := h.tagService.Get(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTagResponse(tag))
}

func (h *TagHandler) CreateTag(c *gin.Context) {
	var req TagWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tag, err := h.tagService.Create(req.Name, req.Color, req.Slug)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTagResponse(tag))
}

func (h *TagHandler) UpdateTag(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return
	}

	var req TagWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tag, err := h.tagService.Update(id, req.Name, req.Color, req.Slug)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTagResponse(tag))
}

func (h *TagHandler) DeleteTag(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return
	}

	if err := h.tagService.Delete(id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
