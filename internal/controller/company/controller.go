// Package company serves company listing and the process completion switch.
package company

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"live-placement-backend/internal/controller"
	"live-placement-backend/internal/model"
	"live-placement-backend/internal/utilities"
)

// CompanyController handles companies
type CompanyController struct {
	*controller.WorkflowController
}

// NewCompanyController creates a CompanyController over wc
func NewCompanyController(wc *controller.WorkflowController) *CompanyController {
	return &CompanyController{WorkflowController: wc}
}

type processRequest struct {
	IsProcessCompleted *bool `json:"is_process_completed" binding:"required"`
}

// GetCompanies list the companies the caller can act on
// @Summary Get companies
// @Description Admin gets every company, a POC gets the companies assigned to them
// @Tags Company
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.Company
// @Failure 403 {object} utilities.ErrorResponse "Not an administrator or POC"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /companies [get]
func (cc *CompanyController) GetCompanies(c *gin.Context) {
	actor, ok := controller.RequireActor(c)
	if !ok {
		return
	}

	result := cc.DB.WithContext(c.Request.Context()).Order("name ASC")
	if !actor.Unscoped() {
		result = result.Where("? = ANY(poc_ids)", actor.ID())
	}

	var companies []model.Company
	if err := result.Find(&companies).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, companies)
}

// SetProcessCompleted freeze or unfreeze the process of a company
// @Summary Mark a company process as completed
// @Description While completed, POCs cannot change the company's shortlist or offers
// @Tags Company
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param company_id path string true "Company id"
// @Param body body processRequest true "New process state"
// @Success 200 {object} model.Company
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 403 {object} utilities.ErrorResponse "Not an administrator"
// @Failure 404 {object} utilities.ErrorResponse "Company not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /companies/{company_id}/process [patch]
func (cc *CompanyController) SetProcessCompleted(c *gin.Context) {
	actor, ok := controller.RequireActor(c)
	if !ok {
		return
	}
	companyID, ok := controller.ParseUUIDParam(c, "company_id")
	if !ok {
		return
	}

	var req processRequest
	if !controller.BindJSON(c, &req) {
		return
	}

	company, err := cc.Engine.SetProcessCompleted(c.Request.Context(), actor, companyID, *req.IsProcessCompleted)
	cc.Record("SetProcessCompleted", actor, err, fmt.Sprintf("company=%s completed=%t", companyID, *req.IsProcessCompleted))
	if err != nil {
		controller.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, company)
}
