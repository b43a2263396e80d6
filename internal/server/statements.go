package server

import (
	"net/http"
	"strings"
	"time"

	statementdomain "github.com/askroshan/india-angel-forge-sub003/internal/statement/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type generateStatementBody struct {
	UserID  string   `json:"user_id"`
	From    string   `json:"from"`
	To      string   `json:"to"`
	Format  string   `json:"format"`
	EmailTo []string `json:"email_to"`
}

// GenerateStatement accepts the request and queues rendering; the response
// carries the statement number immediately, the document follows.
func (s *Server) GenerateStatement(c *gin.Context) {
	var body generateStatementBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	userID, err := snowflake.ParseString(strings.TrimSpace(body.UserID))
	if err != nil {
		AbortWithError(c, newValidationError("user_id", "invalid_id", "invalid id"))
		return
	}
	from, err := time.Parse(time.RFC3339, body.From)
	if err != nil {
		AbortWithError(c, newValidationError("from", "invalid_time", "invalid value"))
		return
	}
	to, err := time.Parse(time.RFC3339, body.To)
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_time", "invalid value"))
		return
	}

	statement, err := s.statementSvc.Generate(c.Request.Context(), statementdomain.GenerateRequest{
		UserID:  userID,
		From:    from,
		To:      to,
		Format:  statementdomain.StatementFormat(strings.ToUpper(body.Format)),
		EmailTo: body.EmailTo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"data": statement})
}

type emailStatementBody struct {
	To               []string `json:"to"`
	AdditionalEmails []string `json:"additional_emails"`
}

// EmailStatement re-sends a rendered statement to explicit recipients.
func (s *Server) EmailStatement(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}
	var body emailStatementBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	statement, err := s.statementSvc.Email(c.Request.Context(), id, statementdomain.EmailRequest{
		To:               body.To,
		AdditionalEmails: body.AdditionalEmails,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": statement})
}

func (s *Server) ListStatements(c *gin.Context) {
	userID, err := snowflake.ParseString(strings.TrimSpace(c.Query("user_id")))
	if err != nil {
		AbortWithError(c, newValidationError("user_id", "invalid_id", "invalid id"))
		return
	}

	statements, err := s.statementSvc.ListByUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": statements})
}

func (s *Server) GetStatementByID(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	statement, err := s.statementSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": statement})
}
