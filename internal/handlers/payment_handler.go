package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kamaujm/tikiti/internal/helpers"
	"github.com/kamaujm/tikiti/internal/models"
	"github.com/kamaujm/tikiti/internal/payments"
)

// MpesaCallback receives the gateway's asynchronous payment result. It
// always acknowledges with 200: reconciliation problems are ours to log, and
// a non-2xx only makes the gateway retry a payload we already rejected.
func MpesaCallback(orchestrator *payments.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(c.Request.Body)
		if err != nil {
			slog.Error("failed to read callback body", "error", err)
			c.JSON(http.StatusOK, gin.H{"ResultCode": 0, "ResultDesc": "Accepted"})
			return
		}

		if err := orchestrator.ReconcileCallback(c.Request.Context(), payload); err != nil {
			slog.Error("callback reconciliation failed", "error", err)
		}

		c.JSON(http.StatusOK, gin.H{"ResultCode": 0, "ResultDesc": "Accepted"})
	}
}

// GetPaymentStatus is the client-facing status poll for clients not holding
// an open subscription stream.
func GetPaymentStatus(c *gin.Context) {
	checkoutRequestID := c.Param("checkoutRequestId")

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var payment models.Payment
	if err := gormDB.Where("checkout_request_id = ?", checkoutRequestID).First(&payment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Payment not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving payment.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"checkout_request_id": payment.CheckoutRequestID,
		"status":              payment.Status,
		"amount":              payment.Amount,
		"mpesa_receipt":       payment.MpesaReceipt,
		"result_description":  payment.ResultDescription,
		"created_at":          payment.CreatedAt,
	})
}
