package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log"

	"github.com/gin-gonic/gin"

	"shopora_back_end/internal/utils"
)

// AuditStatusChanges capture le statut demandé sur les endpoints de
// transition de commande et l'enregistre dans les logs d'audit une fois
// la requête traitée avec succès.
func AuditStatusChanges() gin.HandlerFunc {
	return func(c *gin.Context) {
		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Next()
			return
		}

		// Restaurer le body pour les handlers suivants
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var requestData map[string]interface{}
		if err := json.Unmarshal(bodyBytes, &requestData); err != nil {
			c.Next()
			return
		}

		newStatus, hasStatus := requestData["status"]
		orderID := c.Param("id")

		c.Next()

		if !hasStatus || orderID == "" {
			return
		}
		if c.Writer.Status() >= 200 && c.Writer.Status() < 300 {
			newValue := map[string]interface{}{"status": newStatus}
			utils.LogAction(c, utils.ACTION_ORDER_STATUS_CHANGE, utils.RESOURCE_ORDER,
				orderID, nil, newValue)
			log.Printf("📋 Transition auditée: commande %s → %v", orderID, newStatus)
		} else {
			utils.LogFailedAction(c, utils.ACTION_ORDER_STATUS_CHANGE, utils.RESOURCE_ORDER,
				orderID, "Transition refusée")
		}
	}
}

// AuditCriticalActions enregistre toute action critique (création de
// commande, réassort, remboursement) après traitement.
func AuditCriticalActions(action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		resourceID := c.Param("id")

		c.Next()

		if c.Writer.Status() >= 200 && c.Writer.Status() < 300 {
			utils.LogAction(c, action, resource, resourceID, nil, nil)
		} else {
			utils.LogFailedAction(c, action, resource, resourceID, "Action échouée")
		}
	}
}
