package server

import (
	"net/http"
	"strings"
	"time"

	paymentdomain "github.com/askroshan/india-angel-forge-sub003/internal/payment/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type createOrderBody struct {
	UserID      string `json:"user_id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Purpose     string `json:"purpose"`
	Gateway     string `json:"gateway"`
	Description string `json:"description"`
}

func (s *Server) CreateOrder(c *gin.Context) {
	var body createOrderBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	userID, err := snowflake.ParseString(strings.TrimSpace(body.UserID))
	if err != nil {
		AbortWithError(c, newValidationError("user_id", "invalid_id", "invalid id"))
		return
	}

	resp, err := s.paymentSvc.CreateOrder(c.Request.Context(), paymentdomain.CreateOrderRequest{
		UserID:      userID,
		Amount:      body.Amount,
		Currency:    body.Currency,
		Purpose:     paymentdomain.PaymentPurpose(body.Purpose),
		Gateway:     body.Gateway,
		Description: body.Description,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) VerifyPayment(c *gin.Context) {
	var body paymentdomain.VerifyRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	payment, err := s.paymentSvc.Verify(c.Request.Context(), body)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": payment})
}

type refundBody struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

func (s *Server) RefundPayment(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}
	var body refundBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	payment, err := s.paymentSvc.Refund(c.Request.Context(), paymentdomain.RefundRequest{
		PaymentID: id,
		Amount:    body.Amount,
		Reason:    body.Reason,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": payment})
}

func (s *Server) GetPaymentByID(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	payment, err := s.paymentSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": payment})
}

func (s *Server) ListPayments(c *gin.Context) {
	req, err := parseListPaymentsQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	payments, err := s.paymentSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": payments})
}

func parseListPaymentsQuery(c *gin.Context) (paymentdomain.ListPaymentsRequest, error) {
	var req paymentdomain.ListPaymentsRequest

	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		userID, err := snowflake.ParseString(raw)
		if err != nil {
			return req, newValidationError("user_id", "invalid_id", "invalid id")
		}
		req.UserID = userID
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		req.Status = paymentdomain.PaymentStatus(strings.ToUpper(raw))
	}
	for name, dst := range map[string]**time.Time{"from": &req.From, "to": &req.To} {
		raw := strings.TrimSpace(c.Query(name))
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return req, newValidationError(name, "invalid_time", "invalid value")
		}
		*dst = &parsed
	}
	return req, nil
}
