package server

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	paymentdomain "github.com/askroshan/india-angel-forge-sub003/internal/payment/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

var exportHeader = []string{"Date", "Type", "Description", "Amount", "Currency", "Status", "Reference"}

// ExportTransactions streams a user's payment history as CSV. Refunds get
// their own row with a negative amount.
func (s *Server) ExportTransactions(c *gin.Context) {
	userID, err := snowflake.ParseString(strings.TrimSpace(c.Query("user_id")))
	if err != nil {
		AbortWithError(c, newValidationError("user_id", "invalid_id", "invalid id"))
		return
	}
	req := paymentdomain.ListPaymentsRequest{UserID: userID}
	for name, dst := range map[string]**time.Time{"from": &req.From, "to": &req.To} {
		raw := strings.TrimSpace(c.Query(name))
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError(name, "invalid_time", "invalid value"))
			return
		}
		*dst = &parsed
	}

	payments, err := s.paymentSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="transactions.csv"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write(exportHeader)
	for _, p := range payments {
		reference := p.GatewayOrderID
		if p.GatewayPaymentID != nil {
			reference = *p.GatewayPaymentID
		}
		_ = w.Write([]string{
			p.CreatedAt.UTC().Format("2006-01-02"),
			string(p.Purpose),
			p.Description,
			formatCSVAmount(p.Amount),
			p.Currency,
			string(p.Status),
			reference,
		})
		if p.Status == paymentdomain.PaymentStatusRefunded && p.RefundAmount != nil && p.RefundedAt != nil {
			reason := "Refund"
			if p.RefundReason != nil && *p.RefundReason != "" {
				reason = *p.RefundReason
			}
			_ = w.Write([]string{
				p.RefundedAt.UTC().Format("2006-01-02"),
				"REFUND",
				reason,
				formatCSVAmount(-*p.RefundAmount),
				p.Currency,
				string(p.Status),
				reference,
			})
		}
	}
	w.Flush()
}

func formatCSVAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
