package web

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/retail-backoffice/internal/models"
)

const userConflictMessage = "El usuario o el correo ya existen."

// ListUsers renderiza la lista de usuarios
func (h *Handler) ListUsers(c *gin.Context) {
	page, err := h.users.List(c.Request.Context(), pageQuery(c))
	if err != nil {
		h.renderError(c, err)
		return
	}

	h.render(c, http.StatusOK, "users.html", gin.H{"Page": page})
}

// NewUser renderiza el formulario de alta
func (h *Handler) NewUser(c *gin.Context) {
	h.render(c, http.StatusOK, "user_form.html", gin.H{
		"Action": "/users",
		"User":   &models.User{Role: models.RoleClient},
		"IsNew":  true,
	})
}

// CreateUser procesa el formulario de alta
func (h *Handler) CreateUser(c *gin.Context) {
	req := &models.CreateUserRequest{
		Username:       c.PostForm("username"),
		Email:          c.PostForm("email"),
		FullName:       c.PostForm("full_name"),
		DocumentNumber: c.PostForm("document_number"),
		Phone:          c.PostForm("phone"),
		Password:       c.PostForm("password"),
		Role:           c.DefaultPostForm("role", models.RoleClient),
	}

	user, err := h.users.Create(c.Request.Context(), req)
	if err != nil {
		h.render(c, http.StatusBadRequest, "user_form.html", gin.H{
			"Action": "/users",
			"User":   formUser(c),
			"IsNew":  true,
			"Error":  h.failureMessage(err, userConflictMessage),
		})
		return
	}

	h.redirectWithFlash(c, "/users", "success", fmt.Sprintf("Usuario %q creado.", user.Username))
}

// EditUser renderiza el formulario de edición
func (h *Handler) EditUser(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	h.render(c, http.StatusOK, "user_form.html", gin.H{
		"Action": "/users/" + user.ID,
		"User":   user,
	})
}

// UpdateUser procesa el formulario de edición. La contraseña vacía no se cambia.
func (h *Handler) UpdateUser(c *gin.Context) {
	id := c.Param("id")
	req := &models.UpdateUserRequest{
		Username:       c.PostForm("username"),
		Email:          c.PostForm("email"),
		FullName:       c.PostForm("full_name"),
		DocumentNumber: c.PostForm("document_number"),
		Phone:          c.PostForm("phone"),
		Password:       c.PostForm("password"),
	}

	user, err := h.users.Update(c.Request.Context(), id, req)
	if err != nil {
		current := formUser(c)
		current.ID = id
		h.render(c, http.StatusBadRequest, "user_form.html", gin.H{
			"Action": "/users/" + id,
			"User":   current,
			"Error":  h.failureMessage(err, userConflictMessage),
		})
		return
	}

	h.redirectWithFlash(c, "/users", "success", fmt.Sprintf("Usuario %q actualizado.", user.Username))
}

// DeleteUser elimina un usuario
func (h *Handler) DeleteUser(c *gin.Context) {
	id := c.Param("id")

	if current, ok := c.Get(userKey); ok && current.(*models.User).ID == id {
		h.redirectWithFlash(c, "/users", "error", "No puede eliminar su propio usuario.")
		return
	}

	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		h.redirectWithFlash(c, "/users", "error", h.failureMessage(err, "El usuario tiene ventas registradas y no puede eliminarse."))
		return
	}

	h.redirectWithFlash(c, "/users", "success", "Usuario eliminado.")
}

func formUser(c *gin.Context) *models.User {
	return &models.User{
		Username:       c.PostForm("username"),
		Email:          c.PostForm("email"),
		FullName:       c.PostForm("full_name"),
		DocumentNumber: c.PostForm("document_number"),
		Phone:          c.PostForm("phone"),
		Role:           c.DefaultPostForm("role", models.RoleClient),
	}
}
