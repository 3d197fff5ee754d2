package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kamaujm/tikiti/internal/helpers"
	"github.com/kamaujm/tikiti/internal/payments"
	"github.com/kamaujm/tikiti/internal/tickets"
)

type PurchaseRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	PhoneNumber string          `json:"phone_number" binding:"required"`
	EventID     uuid.UUID       `json:"event_id" binding:"required"`
	Email       string          `json:"email" binding:"required,email"`
	UserID      *uuid.UUID      `json:"user_id"`
}

// InitiatePurchase starts the payment pipeline: STK push, PENDING payment
// record, and a detached status monitor that will issue the ticket once the
// payment completes.
func InitiatePurchase(orchestrator *payments.Orchestrator, monitor *payments.Monitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PurchaseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
			return
		}

		if !req.Amount.IsPositive() {
			helpers.RespondWithError(c, http.StatusBadRequest, "Amount must be greater than zero.")
			return
		}

		result, err := orchestrator.InitiatePayment(c.Request.Context(), payments.InitiateRequest{
			Amount:      req.Amount,
			PhoneNumber: req.PhoneNumber,
			EventID:     req.EventID,
			UserID:      req.UserID,
			Email:       req.Email,
		})
		if err != nil {
			switch {
			case errors.Is(err, payments.ErrEventNotFound):
				helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			case errors.Is(err, payments.ErrUserNotFound):
				helpers.RespondWithError(c, http.StatusNotFound, "User not found.")
			case errors.Is(err, payments.ErrGatewayRejected):
				helpers.RespondWithError(c, http.StatusBadGateway, "Payment request was declined: "+err.Error())
			default:
				helpers.RespondWithError(c, http.StatusServiceUnavailable, "Payment service is unavailable. Please try again.")
			}
			return
		}

		go monitor.Watch(result.CheckoutRequestID, tickets.PurchaseContext{
			EventID: req.EventID,
			UserID:  req.UserID,
			Email:   req.Email,
		})

		c.JSON(http.StatusOK, gin.H{
			"checkout_request_id": result.CheckoutRequestID,
			"message":             result.CustomerMessage,
		})
	}
}
