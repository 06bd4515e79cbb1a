package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/retail-backoffice/internal/models"
)

// saleFormRows es la cantidad de líneas vacías del formulario de venta
const saleFormRows = 5

// ListSales renderiza las ventas, de la más reciente a la más antigua
func (h *Handler) ListSales(c *gin.Context) {
	page, err := h.sales.ListSales(c.Request.Context(), pageQuery(c))
	if err != nil {
		h.renderError(c, err)
		return
	}

	h.render(c, http.StatusOK, "sales.html", gin.H{"Page": page})
}

// ShowSale renderiza el detalle de una venta
func (h *Handler) ShowSale(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.renderError(c, models.ErrNotFound)
		return
	}

	sale, err := h.sales.GetSale(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}

	h.render(c, http.StatusOK, "sale_detail.html", gin.H{"Sale": sale})
}

// NewSale renderiza el formulario de venta junto al catálogo
func (h *Handler) NewSale(c *gin.Context) {
	h.renderSaleForm(c, http.StatusOK, "", make([]models.SaleLineRequest, saleFormRows), "")
}

// CreateSale procesa el formulario de venta
func (h *Handler) CreateSale(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	lines, formErr := saleLinesForm(c)

	if formErr == "" {
		sale, err := h.sales.CreateSale(c.Request.Context(), &models.CreateSaleRequest{
			Username: username,
			Details:  lines,
		})
		if err == nil {
			message := fmt.Sprintf("Venta #%d registrada.", sale.ID)
			if sale.NotificationStatus == models.NotificationFailedLogged {
				message += " No se pudo enviar el comprobante por correo."
			}
			h.redirectWithFlash(c, fmt.Sprintf("/sales/%d", sale.ID), "success", message)
			return
		}
		formErr = h.failureMessage(err, "La venta no pudo registrarse.")
	}

	for len(lines) < saleFormRows {
		lines = append(lines, models.SaleLineRequest{})
	}
	h.renderSaleForm(c, http.StatusBadRequest, username, lines, formErr)
}

func (h *Handler) renderSaleForm(c *gin.Context, status int, username string, lines []models.SaleLineRequest, formErr string) {
	catalog, err := h.products.List(c.Request.Context(), pageQuery(c))
	if err != nil {
		h.renderError(c, err)
		return
	}

	h.render(c, status, "sale_form.html", gin.H{
		"Username": username,
		"Lines":    lines,
		"Catalog":  catalog,
		"Error":    formErr,
	})
}

// saleLinesForm lee las líneas product_id[]/quantity[]; las filas vacías se ignoran
func saleLinesForm(c *gin.Context) ([]models.SaleLineRequest, string) {
	productIDs := c.PostFormArray("product_id")
	quantities := c.PostFormArray("quantity")

	var lines []models.SaleLineRequest
	for i, raw := range productIDs {
		raw = strings.TrimSpace(raw)
		rawQty := ""
		if i < len(quantities) {
			rawQty = strings.TrimSpace(quantities[i])
		}
		if raw == "" && rawQty == "" {
			continue
		}

		productID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return lines, fmt.Sprintf("Línea %d: el producto debe ser un ID numérico.", i+1)
		}
		quantity, err := strconv.Atoi(rawQty)
		if err != nil {
			return lines, fmt.Sprintf("Línea %d: la cantidad debe ser un número entero.", i+1)
		}

		lines = append(lines, models.SaleLineRequest{ProductID: productID, Quantity: quantity})
	}

	return lines, ""
}
