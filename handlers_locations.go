package main

import (
	"net/http"

	"adoptm3/pkg/records"

	"github.com/gin-gonic/gin"
)

type stateRequest struct {
	Name string `json:"name" binding:"required,max=80"`
	UF   string `json:"uf" binding:"required,len=2"`
}

func createStateHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	var req stateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	st, err := records.CreateState(c.Request.Context(), db, user, records.StateInput{Name: req.Name, UF: req.UF})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func updateStateHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req stateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	st, err := records.UpdateState(c.Request.Context(), db, user, id, records.StateInput{Name: req.Name, UF: req.UF})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func getStateHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	st, err := records.GetState(c.Request.Context(), db, user, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func deleteStateHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := records.DeleteState(c.Request.Context(), db, user, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func listStatesHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	q := query{c: c}
	page := q.page(cfg.Pages.States)
	if !q.done() {
		return
	}
	list, err := records.ListStates(c.Request.Context(), db, user, q.str("name"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type cityRequest struct {
	Name    string `json:"name" binding:"required,max=150"`
	StateID uint   `json:"state_id" binding:"required"`
}

func createCityHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	var req cityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	city, err := records.CreateCity(c.Request.Context(), db, user, records.CityInput{Name: req.Name, StateID: req.StateID})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, city)
}

func updateCityHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req cityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	city, err := records.UpdateCity(c.Request.Context(), db, user, id, records.CityInput{Name: req.Name, StateID: req.StateID})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, city)
}

func getCityHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	city, err := records.GetCity(c.Request.Context(), db, user, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, city)
}

func deleteCityHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := records.DeleteCity(c.Request.Context(), db, user, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func listCitiesHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	q := query{c: c}
	stateID := q.id("state")
	page := q.page(cfg.Pages.Cities)
	if !q.done() {
		return
	}
	list, err := records.ListCities(c.Request.Context(), db, user, q.str("name"), stateID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type addressRequest struct {
	Street       string `json:"street" binding:"required,max=150"`
	Number       int    `json:"number" binding:"min=0"`
	Neighborhood string `json:"neighborhood" binding:"required,max=150"`
	Complement   string `json:"complement" binding:"max=100"`
	CityID       uint   `json:"city_id" binding:"required"`
}

func (r addressRequest) input() records.AddressInput {
	return records.AddressInput{
		Street:       r.Street,
		Number:       r.Number,
		Neighborhood: r.Neighborhood,
		Complement:   r.Complement,
		CityID:       r.CityID,
	}
}

func createAddressHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	addr, err := records.CreateAddress(c.Request.Context(), db, user, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, addr)
}

func updateAddressHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	addr, err := records.UpdateAddress(c.Request.Context(), db, user, id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, addr)
}

func getAddressHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	addr, err := records.GetAddress(c.Request.Context(), db, user, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, addr)
}

func deleteAddressHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := records.DeleteAddress(c.Request.Context(), db, user, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func listAddressesHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	q := query{c: c}
	cityID := q.id("city")
	page := q.page(cfg.Pages.Addresses)
	if !q.done() {
		return
	}
	list, err := records.ListAddresses(c.Request.Context(), db, user, q.str("street"), cityID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
