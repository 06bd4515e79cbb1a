package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/retail-backoffice/internal/models"
	"github.com/sirupsen/logrus"
)

// ListProducts lista productos paginados
func (api *API) ListProducts(c *gin.Context) {
	page, ok := api.parsePage(c)
	if !ok {
		return
	}

	result, err := api.productService.List(c.Request.Context(), page)
	if err != nil {
		api.handleError(c, err, "product", "Error listing products")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetProduct obtiene un producto por ID
func (api *API) GetProduct(c *gin.Context) {
	id, ok := api.parseInt64Param(c, "id")
	if !ok {
		return
	}

	product, err := api.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		api.handleError(c, err, "product", "Error retrieving product")
		return
	}

	c.JSON(http.StatusOK, product)
}

// CreateProduct crea un nuevo producto
func (api *API) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if !api.bindJSON(c, &req) {
		return
	}

	product, err := api.productService.Create(c.Request.Context(), &req)
	if err != nil {
		api.handleError(c, err, "product", "Error creating product")
		return
	}

	c.Header("Location", productPath(product.ID))
	c.JSON(http.StatusCreated, product)
}

// UpdateProduct reemplaza los datos de un producto
func (api *API) UpdateProduct(c *gin.Context) {
	id, ok := api.parseInt64Param(c, "id")
	if !ok {
		return
	}

	var req models.CreateProductRequest
	if !api.bindJSON(c, &req) {
		return
	}

	product, err := api.productService.Update(c.Request.Context(), id, &req)
	if err != nil {
		api.handleError(c, err, "product", "Error updating product")
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct elimina un producto
func (api *API) DeleteProduct(c *gin.Context) {
	id, ok := api.parseInt64Param(c, "id")
	if !ok {
		return
	}

	if err := api.productService.Delete(c.Request.Context(), id); err != nil {
		api.handleError(c, err, "product", "Error deleting product")
		return
	}

	c.Status(http.StatusNoContent)
}

// ImportProducts importa productos desde el archivo .xlsx del campo "file"
func (api *API) ImportProducts(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewValidationError("File is required", []models.ErrorDetail{
			{Field: "file", Issue: "Upload an .xlsx workbook in the 'file' field"},
		}))
		return
	}

	file, err := header.Open()
	if err != nil {
		api.handleError(c, err, "import", "Error reading uploaded file")
		return
	}
	defer file.Close()

	result, err := api.importService.ImportProducts(c.Request.Context(), file)
	if err != nil {
		api.handleError(c, err, "import", "Error importing products")
		return
	}

	api.logger.WithFields(logrus.Fields{
		"file":     header.Filename,
		"imported": result.Imported,
	}).Info("Product import finished")

	c.JSON(http.StatusOK, result)
}
