package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/retail-backoffice/internal/models"
	"github.com/shopspring/decimal"
)

// ListProducts renderiza el catálogo paginado
func (h *Handler) ListProducts(c *gin.Context) {
	page, err := h.products.List(c.Request.Context(), pageQuery(c))
	if err != nil {
		h.renderError(c, err)
		return
	}

	h.render(c, http.StatusOK, "products.html", gin.H{"Page": page})
}

// NewProduct renderiza el formulario de alta
func (h *Handler) NewProduct(c *gin.Context) {
	h.render(c, http.StatusOK, "product_form.html", gin.H{
		"Action":  "/products",
		"Product": &models.Product{},
	})
}

// CreateProduct procesa el formulario de alta
func (h *Handler) CreateProduct(c *gin.Context) {
	req, formErr := productForm(c)
	if formErr == "" {
		product, err := h.products.Create(c.Request.Context(), req)
		if err == nil {
			h.redirectWithFlash(c, "/products", "success", fmt.Sprintf("Producto %q creado.", product.Name))
			return
		}
		formErr = h.failureMessage(err, "No se pudo crear el producto.")
	}

	h.render(c, http.StatusBadRequest, "product_form.html", gin.H{
		"Action":  "/products",
		"Product": formProduct(c),
		"Error":   formErr,
	})
}

// EditProduct renderiza el formulario de edición
func (h *Handler) EditProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.renderError(c, models.ErrNotFound)
		return
	}

	product, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}

	h.render(c, http.StatusOK, "product_form.html", gin.H{
		"Action":  fmt.Sprintf("/products/%d", id),
		"Product": product,
	})
}

// UpdateProduct procesa el formulario de edición
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.renderError(c, models.ErrNotFound)
		return
	}

	req, formErr := productForm(c)
	if formErr == "" {
		product, err := h.products.Update(c.Request.Context(), id, req)
		if err == nil {
			h.redirectWithFlash(c, "/products", "success", fmt.Sprintf("Producto %q actualizado.", product.Name))
			return
		}
		formErr = h.failureMessage(err, "No se pudo actualizar el producto.")
	}

	product := formProduct(c)
	product.ID = id
	h.render(c, http.StatusBadRequest, "product_form.html", gin.H{
		"Action":  fmt.Sprintf("/products/%d", id),
		"Product": product,
		"Error":   formErr,
	})
}

// DeleteProduct elimina un producto
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.renderError(c, models.ErrNotFound)
		return
	}

	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		h.redirectWithFlash(c, "/products", "error", h.failureMessage(err, "El producto tiene ventas registradas y no puede eliminarse."))
		return
	}

	h.redirectWithFlash(c, "/products", "success", "Producto eliminado.")
}

// ShowImport renderiza el formulario de importación
func (h *Handler) ShowImport(c *gin.Context) {
	h.render(c, http.StatusOK, "import.html", gin.H{})
}

// ProcessImport importa el archivo .xlsx subido
func (h *Handler) ProcessImport(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		h.redirectWithFlash(c, "/products/import", "error", "Seleccione un archivo .xlsx.")
		return
	}

	file, err := header.Open()
	if err != nil {
		h.renderError(c, err)
		return
	}
	defer file.Close()

	result, err := h.imports.ImportProducts(c.Request.Context(), file)
	if err != nil {
		h.render(c, http.StatusBadRequest, "import.html", gin.H{
			"Error": h.failureMessage(err, "No se pudo importar el archivo."),
		})
		return
	}

	h.render(c, http.StatusOK, "import.html", gin.H{"Result": result})
}

// productForm lee el formulario; retorna un mensaje si algún campo no es numérico
func productForm(c *gin.Context) (*models.CreateProductRequest, string) {
	price, err := decimal.NewFromString(strings.TrimSpace(c.PostForm("price")))
	if err != nil {
		return nil, "price: must be a number"
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(c.PostForm("quantity")))
	if err != nil {
		return nil, "quantity: must be a whole number"
	}

	return &models.CreateProductRequest{
		Name:     c.PostForm("name"),
		Price:    price,
		Quantity: quantity,
		Category: c.PostForm("category"),
	}, ""
}

// formProduct reconstruye lo enviado para volver a mostrar el formulario
func formProduct(c *gin.Context) *models.Product {
	price, _ := decimal.NewFromString(strings.TrimSpace(c.PostForm("price")))
	quantity, _ := strconv.Atoi(strings.TrimSpace(c.PostForm("quantity")))
	return &models.Product{
		Name:     c.PostForm("name"),
		Price:    price,
		Quantity: quantity,
		Category: c.PostForm("category"),
	}
}
