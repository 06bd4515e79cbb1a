package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/retail-backoffice/internal/models"
)

func productPath(id int64) string {
	return fmt.Sprintf("/api/v1/products/%d", id)
}

// CreateSale registra una venta. Un cliente solo puede comprar a su nombre.
func (api *API) CreateSale(c *gin.Context) {
	var req models.CreateSaleRequest
	if !api.bindJSON(c, &req) {
		return
	}

	if claims := currentClaims(c); claims != nil && claims.Role != models.RoleAdmin {
		req.UserID = claims.Subject
		req.Username = ""
	}

	sale, err := api.saleService.CreateSale(c.Request.Context(), &req)
	if err != nil {
		api.handleError(c, err, "sale", "Error creating sale")
		return
	}

	resp := models.NewSaleResponse(sale)
	c.Header("Location", resp.Links.Self)
	c.JSON(http.StatusCreated, resp)
}

// GetSale obtiene una venta con sus líneas
func (api *API) GetSale(c *gin.Context) {
	id, ok := api.parseInt64Param(c, "id")
	if !ok {
		return
	}

	sale, err := api.saleService.GetSale(c.Request.Context(), id)
	if err != nil {
		api.handleError(c, err, "sale", "Error retrieving sale")
		return
	}

	if claims := currentClaims(c); claims != nil && claims.Role != models.RoleAdmin && sale.BuyerID != claims.Subject {
		c.JSON(http.StatusNotFound, models.NewNotFoundError("Sale not found"))
		return
	}

	c.JSON(http.StatusOK, models.NewSaleResponse(sale))
}

// ListSales lista ventas paginadas, de la más reciente a la más antigua
func (api *API) ListSales(c *gin.Context) {
	page, ok := api.parsePage(c)
	if !ok {
		return
	}

	result, err := api.saleService.ListSales(c.Request.Context(), page)
	if err != nil {
		api.handleError(c, err, "sale", "Error listing sales")
		return
	}

	items := make([]models.SaleResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, models.NewSaleResponse(&result.Items[i]))
	}

	c.JSON(http.StatusOK, models.NewPage(items, result.Page, result.PageSize, result.Total))
}
