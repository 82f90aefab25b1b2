package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/api/middleware"
)

// CatalogHandler serves the package catalog
type CatalogHandler struct {
	catalogUseCase usecase.CatalogUseCase
	logger         coreport.Logger
}

// NewCatalogHandler creates a new catalog handler instance
func NewCatalogHandler(catalogUseCase usecase.CatalogUseCase, logger coreport.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogUseCase: catalogUseCase,
		logger:         logger,
	}
}

// List handles GET /packages. Inactive packages are only listed for staff.
func (h *CatalogHandler) List(c *gin.Context) {
	var q dto.PackageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.AbortWithBindError(c, err)
		return
	}

	filter := persistence.PackageFilter{
		Category:   entity.PackageCategory(q.Category),
		ActiveOnly: !(q.All && middleware.CallerRole(c).IsStaff()),
		Sort:       persistence.PackageSort(q.Sort),
		Limit:      q.Limit,
	}

	pkgs, err := h.catalogUseCase.ListPackages(c.Request.Context(), filter)
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPackageResponses(pkgs))
}

// Get handles GET /packages/:packageId
func (h *CatalogHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "packageId")
	if !ok {
		return
	}

	pkg, err := h.catalogUseCase.GetPackage(c.Request.Context(), id)
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPackageResponse(pkg))
}

// Create handles POST /admin/packages
func (h *CatalogHandler) Create(c *gin.Context) {
	var req dto.PackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBindError(c, err)
		return
	}

	pkg, err := h.catalogUseCase.CreatePackage(c.Request.Context(), req.Params())
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewPackageResponse(pkg))
}

// Update handles PUT /admin/packages/:packageId
func (h *CatalogHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "packageId")
	if !ok {
		return
	}

	var req dto.PackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBindError(c, err)
		return
	}

	pkg, err := h.catalogUseCase.UpdatePackage(c.Request.Context(), id, req.Params())
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPackageResponse(pkg))
}

// SetActive handles PATCH /admin/packages/:packageId/active
func (h *CatalogHandler) SetActive(c *gin.Context) {
	id, ok := pathID(c, "packageId")
	if !ok {
		return
	}

	var req dto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBindError(c, err)
		return
	}

	pkg, err := h.catalogUseCase.SetPackageActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPackageResponse(pkg))
}

// Delete handles DELETE /admin/packages/:packageId
func (h *CatalogHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "packageId")
	if !ok {
		return
	}

	if err := h.catalogUseCase.DeletePackage(c.Request.Context(), id); err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Stats handles GET /admin/packages/stats
func (h *CatalogHandler) Stats(c *gin.Context) {
	stats, err := h.catalogUseCase.Stats(c.Request.Context())
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPackageStatsResponse(stats))
}
