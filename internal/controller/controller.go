// Package controller holds the pieces shared by the workflow HTTP handlers:
// request parsing, the workflow error to HTTP status mapping and audit records.
package controller

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"live-placement-backend/internal/audit"
	"live-placement-backend/internal/database"
	"live-placement-backend/internal/utilities"
	"live-placement-backend/internal/workflow"
)

// WorkflowController struct holds what every workflow handler needs.
type WorkflowController struct {
	DB     *database.DBinstanceStruct
	Engine *workflow.Engine
	Audit  *audit.Logger
}

// NewWorkflowController creates a new instance of WorkflowController.
func NewWorkflowController(db *database.DBinstanceStruct, engine *workflow.Engine, logger *audit.Logger) *WorkflowController {
	return &WorkflowController{
		DB:     db,
		Engine: engine,
		Audit:  logger,
	}
}

// StatusFor maps a workflow error code onto an HTTP status.
func StatusFor(code workflow.Code) int {
	switch code {
	case workflow.CodeInvalidStage, workflow.CodeNotRejected, workflow.CodeShortlistOffered, workflow.CodeInvalidArgument:
		return http.StatusBadRequest
	case workflow.CodeForbidden:
		return http.StatusForbidden
	case workflow.CodeNotFound, workflow.CodeNoOffer:
		return http.StatusNotFound
	case workflow.CodePlacementLocked, workflow.CodeProcessFrozen, workflow.CodeAlreadyPlaced,
		workflow.CodeOfferExists, workflow.CodeNotPending, workflow.CodeAlreadyDecided,
		workflow.CodeAlreadyShortlisted:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err as a JSON error body.
func RespondError(c *gin.Context, err error) {
	code := workflow.CodeOf(err)
	if code == "" {
		code = workflow.CodeStoreFailure
	}
	status := StatusFor(code)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("workflow: %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		message = "Internal server error"
	}
	c.JSON(status, utilities.ErrorResponse{
		Error: message,
		Code:  string(code),
	})
}

// BindJSON decodes the request body into dst and answers 400 or 413 on failure.
func BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			c.JSON(http.StatusRequestEntityTooLarge, utilities.ErrorResponse{
				Error: "Entity too large",
			})
			return false
		}
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
			Code:  string(workflow.CodeInvalidArgument),
		})
		return false
	}
	return true
}

// ParseUUIDParam reads a uuid path parameter and answers 400 when it is malformed.
func ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid %s", name),
			Code:  string(workflow.CodeInvalidArgument),
		})
		return uuid.Nil, false
	}
	return id, true
}

// ParsePair reads the student_id and company_id path parameters.
func ParsePair(c *gin.Context) (workflow.Pair, bool) {
	studentID, ok := ParseUUIDParam(c, "student_id")
	if !ok {
		return workflow.Pair{}, false
	}
	companyID, ok := ParseUUIDParam(c, "company_id")
	if !ok {
		return workflow.Pair{}, false
	}
	return workflow.Pair{StudentID: studentID, CompanyID: companyID}, true
}

// RequireActor extracts the workflow actor and answers 403 when the caller has none.
func RequireActor(c *gin.Context) (workflow.Actor, bool) {
	actor, err := utilities.ExtractActor(c)
	if err != nil {
		c.JSON(http.StatusForbidden, utilities.ErrorResponse{
			Error: err.Error(),
			Code:  string(workflow.CodeForbidden),
		})
		return workflow.Actor{}, false
	}
	return actor, true
}

// Record writes the outcome of a mutation to the audit log.
func (wc *WorkflowController) Record(operation string, actor workflow.Actor, err error, message string) {
	switch {
	case err == nil:
		wc.Audit.Record(audit.LevelInfo, operation, audit.StatusSuccess, actor.ID(), message)
	case workflow.IsDomain(err):
		wc.Audit.Record(audit.LevelWarning, operation, audit.StatusFail, actor.ID(), message+" "+err.Error())
	default:
		wc.Audit.Record(audit.LevelError, operation, audit.StatusFail, actor.ID(), message+" "+err.Error())
	}
}
