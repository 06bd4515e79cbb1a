package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/retail-backoffice/internal/models"
)

// ListUsers lista usuarios paginados
func (api *API) ListUsers(c *gin.Context) {
	page, ok := api.parsePage(c)
	if !ok {
		return
	}

	result, err := api.userService.List(c.Request.Context(), page)
	if err != nil {
		api.handleError(c, err, "user", "Error listing users")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetUser obtiene un usuario por ID
func (api *API) GetUser(c *gin.Context) {
	user, err := api.userService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		api.handleError(c, err, "user", "Error retrieving user")
		return
	}

	c.JSON(http.StatusOK, user)
}

// CreateUser crea un usuario con sus credenciales
func (api *API) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if !api.bindJSON(c, &req) {
		return
	}

	user, err := api.userService.Create(c.Request.Context(), &req)
	if err != nil {
		api.handleError(c, err, "user", "Error creating user")
		return
	}

	c.Header("Location", "/api/v1/users/"+user.ID)
	c.JSON(http.StatusCreated, user)
}

// UpdateUser actualiza los datos de un usuario
func (api *API) UpdateUser(c *gin.Context) {
	var req models.UpdateUserRequest
	if !api.bindJSON(c, &req) {
		return
	}

	user, err := api.userService.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		api.handleError(c, err, "user", "Error updating user")
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteUser elimina un usuario
func (api *API) DeleteUser(c *gin.Context) {
	if err := api.userService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		api.handleError(c, err, "user", "Error deleting user")
		return
	}

	c.Status(http.StatusNoContent)
}
