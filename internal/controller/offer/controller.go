// Package offer serves offer creation, the administrator decision and revert.
package offer

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"live-placement-backend/internal/controller"
	"live-placement-backend/internal/utilities"
	"live-placement-backend/internal/workflow"
)

// OfferController handles offer records
type OfferController struct {
	*controller.WorkflowController
}

// NewOfferController creates an OfferController over wc
func NewOfferController(wc *controller.WorkflowController) *OfferController {
	return &OfferController{WorkflowController: wc}
}

type createRequest struct {
	StudentID uuid.UUID `json:"student_id"`
	CompanyID uuid.UUID `json:"company_id"`
}

type decisionRequest struct {
	Decision string `json:"decision" binding:"required"`
}

// CreateOffer propose an offer that waits for administrator approval
// @Summary Create an offer for a shortlisted student
// @Tags Offer
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param body body createRequest true "Student and company"
// @Success 201 {object} model.OfferRecord
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 403 {object} utilities.ErrorResponse "Company is not assigned to this POC"
// @Failure 404 {object} utilities.ErrorResponse "Record not found"
// @Failure 409 {object} utilities.ErrorResponse "Offer exists, student placed or process completed"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /offers [post]
func (oc *OfferController) CreateOffer(c *gin.Context) {
	actor, ok := controller.RequireActor(c)
	if !ok {
		return
	}

	var req createRequest
	if !controller.BindJSON(c, &req) {
		return
	}
	if req.StudentID == uuid.Nil || req.CompanyID == uuid.Nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "student_id and company_id are required",
			Code:  string(workflow.CodeInvalidArgument),
		})
		return
	}

	pair := workflow.Pair{StudentID: req.StudentID, CompanyID: req.CompanyID}
	offer, err := oc.Engine.CreateOffer(c.Request.Context(), actor, pair)
	oc.Record("CreateOffer", actor, err, fmt.Sprintf("student=%s company=%s", pair.StudentID, pair.CompanyID))
	if err != nil {
		controller.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, offer)
}

// DecideOffer approve or reject a pending offer
// @Summary Decide a pending offer
// @Description Approval places the student and flags their other applications
// @Tags Offer
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param offer_id path string true "Offer id"
// @Param body body decisionRequest true "APPROVE or REJECT"
// @Success 200 {object} model.OfferRecord
// @Failure 400 {object} utilities.ErrorResponse "Unknown decision"
// @Failure 403 {object} utilities.ErrorResponse "Not an administrator"
// @Failure 404 {object} utilities.ErrorResponse "Offer not found"
// @Failure 409 {object} utilities.ErrorResponse "Offer not pending or student already placed"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /offers/{offer_id}/decision [patch]
func (oc *OfferController) DecideOffer(c *gin.Context) {
	actor, ok := controller.RequireActor(c)
	if !ok {
		return
	}
	offerID, ok := controller.ParseUUIDParam(c, "offer_id")
	if !ok {
		return
	}

	var req decisionRequest
	if !controller.BindJSON(c, &req) {
		return
	}
	decision, err := workflow.ParseDecision(req.Decision)
	if err != nil {
		controller.RespondError(c, err)
		return
	}

	offer, err := oc.Engine.DecideOffer(c.Request.Context(), actor, offerID, decision)
	oc.Record("DecideOffer", actor, err, fmt.Sprintf("offer=%s decision=%s", offerID, decision))
	if err != nil {
		controller.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, offer)
}

// RevertOffer withdraw an offer nobody has decided on yet
// @Summary Revert a pending offer
// @Tags Offer
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param student_id path string true "Student id"
// @Param company_id path string true "Company id"
// @Success 200 {object} utilities.MessageResponse
// @Failure 403 {object} utilities.ErrorResponse "Company is not assigned to this POC"
// @Failure 404 {object} utilities.ErrorResponse "No offer for this student and company"
// @Failure 409 {object} utilities.ErrorResponse "Offer already decided or process completed"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /offers/{student_id}/{company_id} [delete]
func (oc *OfferController) RevertOffer(c *gin.Context) {
	actor, ok := controller.RequireActor(c)
	if !ok {
		return
	}
	pair, ok := controller.ParsePair(c)
	if !ok {
		return
	}

	err := oc.Engine.RevertOffer(c.Request.Context(), actor, pair)
	oc.Record("RevertOffer", actor, err, fmt.Sprintf("student=%s company=%s", pair.StudentID, pair.CompanyID))
	if err != nil {
		controller.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{
		Message: "Offer reverted",
	})
}
