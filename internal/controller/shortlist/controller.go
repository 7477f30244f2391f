// Package shortlist serves the shortlist side of the placement workflow:
// adding students, moving them through rounds, and the read paths clients
// refetch after an event.
package shortlist

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"live-placement-backend/internal/controller"
	"live-placement-backend/internal/model"
	"live-placement-backend/internal/utilities"
	"live-placement-backend/internal/workflow"
)

// ShortlistController handles shortlist records
type ShortlistController struct {
	*controller.WorkflowController
}

// NewShortlistController creates a ShortlistController over wc
func NewShortlistController(wc *controller.WorkflowController) *ShortlistController {
	return &ShortlistController{WorkflowController: wc}
}

type addRequest struct {
	StudentID uuid.UUID             `json:"student_id"`
	CompanyID uuid.UUID             `json:"company_id"`
	Status    model.ShortlistStatus `json:"status"`
}

type stageRequest struct {
	Stage string `json:"stage" binding:"required"`
}

type statusRequest struct {
	Status model.ShortlistStatus `json:"status" binding:"required"`
}

// CompanyEntry is one row of a company's list
type CompanyEntry struct {
	model.ShortlistRecord
	StudentName string             `json:"student_name"`
	Offer       *model.OfferRecord `json:"offer,omitempty"`
}

// StudentEntry is one application of a student
type StudentEntry struct {
	model.ShortlistRecord
	CompanyName string             `json:"company_name"`
	MaxRounds   int                `json:"max_rounds"`
	Offer       *model.OfferRecord `json:"offer,omitempty"`
}

// AddToShortlist put a student on a company list
// @Summary Add a student to a company list
// @Description Status defaults to SHORTLISTED. POCs can only add to their own company.
// @Tags Shortlist
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param body body addRequest true "Student, company and initial status"
// @Success 201 {object} model.ShortlistRecord
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 403 {object} utilities.ErrorResponse "Company is not assigned to this POC"
// @Failure 404 {object} utilities.ErrorResponse "Student or company not found"
// @Failure 409 {object} utilities.ErrorResponse "Already on the list or process completed"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /shortlist [post]
func (sc *ShortlistController) AddToShortlist(c *gin.Context) {
	actor, ok := controller.RequireActor(c)
	if !ok {
		return
	}

	var req addRequest
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
	record, err := sc.Engine.AddToShortlist(c.Request.Context(), actor, pair, req.Status)
	sc.Record("AddToShortlist", actor, err, pairMessage(pair))
	if err != nil {
		controller.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

// AdvanceStage move a student to another round or reject them
// @Summary Set the interview stage of a student
// @Description Stage is R1 to R{max rounds} or REJECTED
// @Tags Shortlist
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param student_id path string true "Student id"
// @Param company_id path string true "Company id"
// @Param body body stageRequest true "Target stage"
// @Success 200 {object} model.ShortlistRecord
// @Failure 400 {object} utilities.ErrorResponse "Stage not valid for this company"
// @Failure 403 {object} utilities.ErrorResponse "Company is not assigned to this POC"
// @Failure 404 {object} utilities.ErrorResponse "Record not found"
// @Failure 409 {object} utilities.ErrorResponse "Student placed or process completed"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /shortlist/{student_id}/{company_id}/stage [patch]
func (sc *ShortlistController) AdvanceStage(c *gin.Context) {
	actor, ok := controller.RequireActor(c)
	if !ok {
		return
	}
	pair, ok := controller.ParsePair(c)
	if !ok {
		return
	}

	var req stageRequest
	if !controller.BindJSON(c, &req) {
		return
	}
	stage, err := model.ParseStage(req.Stage)
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: err.Error(),
			Code:  string(workflow.CodeInvalidStage),
		})
		return
	}

	record, err := sc.Engine.AdvanceStage(c.Request.Context(), actor, pair, stage)
	sc.Record("AdvanceStage", actor, err, fmt.Sprintf("%s stage=%s", pairMessage(pair), stage))
	if err != nil {
		controller.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// UndoRejection restore the stage a student had before being rejected
// @Summary Undo a rejection
// @Tags Shortlist
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param student_id path string true "Student id"
// @Param company_id path string true "Company id"
// @Success 200 {object} model.ShortlistRecord
// @Failure 400 {object} utilities.ErrorResponse "Student is not rejected"
// @Failure 403 {object} utilities.ErrorResponse "Company is not assigned to this POC"
// @Failure 404 {object} utilities.ErrorResponse "Record not found"
// @Failure 409 {object} utilities.ErrorResponse "Student placed or process completed"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /shortlist/{student_id}/{company_id}/undo-rejection [post]
func (sc *ShortlistController) UndoRejection(c *gin.Context) {
	actor, ok := controller.RequireActor(c)
	if !ok {
		return
	}
	pair, ok := controller.ParsePair(c)
	if !ok {
		return
	}

	record, err := sc.Engine.UndoRejection(c.Request.Context(), actor, pair)
	sc.Record("UndoRejection", actor, err, pairMessage(pair))
	if err != nil {
		controller.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// UpdateStatus move a student between the shortlist and the waitlist
// @Summary Change the list a student is on
// @Tags Shortlist
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param student_id path string true "Student id"
// @Param company_id path string true "Company id"
// @Param body body statusRequest true "SHORTLISTED or WAITLISTED"
// @Success 200 {object} model.ShortlistRecord
// @Failure 400 {object} utilities.ErrorResponse "Unknown status"
// @Failure 403 {object} utilities.ErrorResponse "Company is not assigned to this POC"
// @Failure 404 {object} utilities.ErrorResponse "Record not found"
// @Failure 409 {object} utilities.ErrorResponse "Student placed or process completed"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /shortlist/{student_id}/{company_id}/status [patch]
func (sc *ShortlistController) UpdateStatus(c *gin.Context) {
	actor, ok := controller.RequireActor(c)
	if !ok {
		return
	}
	pair, ok := controller.ParsePair(c)
	if !ok {
		return
	}

	var req statusRequest
	if !controller.BindJSON(c, &req) {
		return
	}

	record, err := sc.Engine.UpdateStatus(c.Request.Context(), actor, pair, req.Status)
	sc.Record("UpdateStatus", actor, err, fmt.Sprintf("%s status=%s", pairMessage(pair), req.Status))
	if err != nil {
		controller.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// RemoveFromShortlist delete a record that never got an offer
// @Summary Remove a student from a company list
// @Tags Shortlist
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param student_id path string true "Student id"
// @Param company_id path string true "Company id"
// @Success 200 {object} utilities.MessageResponse
// @Failure 400 {object} utilities.ErrorResponse "Record has an offer"
// @Failure 403 {object} utilities.ErrorResponse "Company is not assigned to this POC"
// @Failure 404 {object} utilities.ErrorResponse "Record not found"
// @Failure 409 {object} utilities.ErrorResponse "Process completed"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /shortlist/{student_id}/{company_id} [delete]
func (sc *ShortlistController) RemoveFromShortlist(c *gin.Context) {
	actor, ok := controller.RequireActor(c)
	if !ok {
		return
	}
	pair, ok := controller.ParsePair(c)
	if !ok {
		return
	}

	err := sc.Engine.RemoveFromShortlist(c.Request.Context(), actor, pair)
	sc.Record("RemoveFromShortlist", actor, err, pairMessage(pair))
	if err != nil {
		controller.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{
		Message: "Removed from shortlist",
	})
}

// GetCompanyShortlist list every record of a company together with its offer
// @Summary Get the list of a company
// @Description Clients call this after joining a company room and after every event
// @Tags Shortlist
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param company_id path string true "Company id"
// @Success 200 {array} CompanyEntry
// @Failure 403 {object} utilities.ErrorResponse "Company is not assigned to this POC"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /companies/{company_id}/shortlist [get]
func (sc *ShortlistController) GetCompanyShortlist(c *gin.Context) {
	actor, ok := controller.RequireActor(c)
	if !ok {
		return
	}
	companyID, ok := controller.ParseUUIDParam(c, "company_id")
	if !ok {
		return
	}
	if !actor.Covers(companyID) {
		controller.RespondError(c, workflow.ErrForbidden)
		return
	}

	var records []model.ShortlistRecord
	if err := sc.DB.WithContext(c.Request.Context()).
		Preload("Student").
		Where("company_id = ?", companyID).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}

	offers, err := sc.offersBy("company_id", companyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}

	entries := make([]CompanyEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, CompanyEntry{
			ShortlistRecord: r,
			StudentName:     r.Student.Name,
			Offer:           offers[r.ID],
		})
	}
	c.JSON(http.StatusOK, entries)
}

// GetStudentShortlist list every application of a student
// @Summary Get the applications of a student
// @Description Students can only read their own applications
// @Tags Shortlist
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param student_id path string true "Student id"
// @Success 200 {array} StudentEntry
// @Failure 403 {object} utilities.ErrorResponse "Not your applications"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /students/{student_id}/shortlist [get]
func (sc *ShortlistController) GetStudentShortlist(c *gin.Context) {
	principal, err := utilities.ExtractPrincipal(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}
	studentID, ok := controller.ParseUUIDParam(c, "student_id")
	if !ok {
		return
	}
	if principal.Role != model.RoleAdmin && principal.UserID != studentID.String() {
		controller.RespondError(c, workflow.ErrForbidden)
		return
	}

	var records []model.ShortlistRecord
	if err := sc.DB.WithContext(c.Request.Context()).
		Preload("Company").
		Where("student_id = ?", studentID).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}

	offers, err := sc.offersBy("student_id", studentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}

	entries := make([]StudentEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, StudentEntry{
			ShortlistRecord: r,
			CompanyName:     r.Company.Name,
			MaxRounds:       r.Company.MaxRounds,
			Offer:           offers[r.ID],
		})
	}
	c.JSON(http.StatusOK, entries)
}

// offersBy loads offers keyed by shortlist id. column is a fixed column name.
func (sc *ShortlistController) offersBy(column string, id uuid.UUID) (map[uuid.UUID]*model.OfferRecord, error) {
	var offers []model.OfferRecord
	if err := sc.DB.Where(column+" = ?", id).Find(&offers).Error; err != nil {
		return nil, err
	}
	byShortlist := make(map[uuid.UUID]*model.OfferRecord, len(offers))
	for i := range offers {
		byShortlist[offers[i].ShortlistID] = &offers[i]
	}
	return byShortlist, nil
}

func pairMessage(pair workflow.Pair) string {
	return fmt.Sprintf("student=%s company=%s", pair.StudentID, pair.CompanyID)
}
