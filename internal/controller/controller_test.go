package controller

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"live-placement-backend/internal/workflow"
)

func TestStatusFor(t *testing.T) {
	cases := map[workflow.Code]int{
		workflow.CodeInvalidStage:       http.StatusBadRequest,
		workflow.CodeNotRejected:        http.StatusBadRequest,
		workflow.CodeShortlistOffered:   http.StatusBadRequest,
		workflow.CodeInvalidArgument:    http.StatusBadRequest,
		workflow.CodeForbidden:          http.StatusForbidden,
		workflow.CodeNotFound:           http.StatusNotFound,
		workflow.CodeNoOffer:            http.StatusNotFound,
		workflow.CodePlacementLocked:    http.StatusConflict,
		workflow.CodeProcessFrozen:      http.StatusConflict,
		workflow.CodeAlreadyPlaced:      http.StatusConflict,
		workflow.CodeOfferExists:        http.StatusConflict,
		workflow.CodeNotPending:         http.StatusConflict,
		workflow.CodeAlreadyDecided:     http.StatusConflict,
		workflow.CodeAlreadyShortlisted: http.StatusConflict,
		workflow.CodeStoreFailure:       http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, StatusFor(code), fmt.Sprintf("code %s", code))
	}
}
