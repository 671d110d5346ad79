package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireStaff vérifie que l'appelant a un rôle boutique ("staff" ou "admin").
// Les transitions de statut, notes internes et réassorts passent par ici.
func RequireStaff(c *gin.Context) {
	role, exists := c.Get("role")
	if !exists || (role != "staff" && role != "admin") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Accès réservé au personnel de la boutique"})
		c.Abort()
		return
	}
	c.Next()
}

// RequireAdmin vérifie que l'appelant a le rôle "admin"
func RequireAdmin(c *gin.Context) {
	role, exists := c.Get("role")
	if !exists || role != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Accès réservé aux administrateurs"})
		c.Abort()
		return
	}
	c.Next()
}
