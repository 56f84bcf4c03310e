package main

import (
	"net/http"

	"adoptm3/pkg/records"

	"github.com/gin-gonic/gin"
)

func createAdoptionHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	var req struct {
		RelicID         *uint `json:"relic_id"`
		PreviousOwnerID *uint `json:"previous_owner_id"`
		NewOwnerID      *uint `json:"new_owner_id"`
		PaymentStatus   bool  `json:"payment_status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	a, err := records.CreateAdoption(c.Request.Context(), db, user, records.AdoptionInput{
		RelicID:         req.RelicID,
		PreviousOwnerID: req.PreviousOwnerID,
		NewOwnerID:      req.NewOwnerID,
		PaymentStatus:   req.PaymentStatus,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// updateAdoptionHandler only changes the payment status.
func updateAdoptionHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		PaymentStatus *bool `json:"payment_status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	a, err := records.UpdateAdoptionPayment(c.Request.Context(), db, user, id, *req.PaymentStatus)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func getAdoptionHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	a, err := records.GetAdoption(c.Request.Context(), db, user, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func deleteAdoptionHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := records.DeleteAdoption(c.Request.Context(), db, user, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func listAdoptionsHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	q := query{c: c}
	f := records.AdoptionFilter{RelicID: q.id("relic"), Paid: q.flag("paid")}
	page := q.page(cfg.Pages.Adoptions)
	if !q.done() {
		return
	}
	list, err := records.ListAdoptions(c.Request.Context(), db, user, f, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
