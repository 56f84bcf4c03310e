package main

import (
	"net/http"

	"adoptm3/pkg/records"

	"github.com/gin-gonic/gin"
)

// clientRequest binds JSON or multipart bodies; multipart may carry a photo part.
type clientRequest struct {
	Name      string `json:"name" form:"name" binding:"required,max=150"`
	Nickname  string `json:"nickname" form:"nickname" binding:"required,max=50"`
	Email     string `json:"email" form:"email" binding:"omitempty,email"`
	BirthDate string `json:"birth_date" form:"birth_date" binding:"required"`
	AddressID *uint  `json:"address_id" form:"address_id"`
}

// bindClient parses the body and stores an uploaded photo. The caller
// removes in.PhotoPath again when the write fails.
func bindClient(c *gin.Context) (records.ClientInput, bool) {
	var req clientRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindError(c, err)
		return records.ClientInput{}, false
	}
	birth, err := parseDate(req.BirthDate)
	if err != nil {
		respondError(c, fieldErr("birth_date", "use YYYY-MM-DD"))
		return records.ClientInput{}, false
	}
	in := records.ClientInput{
		Name:      req.Name,
		Nickname:  req.Nickname,
		Email:     req.Email,
		BirthDate: birth,
		AddressID: req.AddressID,
	}
	if photos := uploadedFiles(c, "photo"); len(photos) > 0 {
		imgs, err := saveImages(c, "clients", photos[:1], 0)
		if err != nil {
			respondError(c, err)
			return records.ClientInput{}, false
		}
		in.PhotoPath = imgs[0].StorePath
	}
	return in, true
}

func createClientHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	in, ok := bindClient(c)
	if !ok {
		return
	}
	client, err := records.CreateClient(c.Request.Context(), db, user, in)
	if err != nil {
		removeStored(c, in.PhotoPath)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

func updateClientHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	in, ok := bindClient(c)
	if !ok {
		return
	}
	client, oldPhoto, err := records.UpdateClient(c.Request.Context(), db, user, id, in)
	if err != nil {
		removeStored(c, in.PhotoPath)
		respondError(c, err)
		return
	}
	removeStored(c, oldPhoto)
	c.JSON(http.StatusOK, client)
}

func getClientHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	client, err := records.GetClient(c.Request.Context(), db, user, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func deleteClientHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	photo, err := records.DeleteClient(c.Request.Context(), db, user, id)
	if err != nil {
		respondError(c, err)
		return
	}
	removeStored(c, photo)
	c.Status(http.StatusNoContent)
}

func listClientsHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	q := query{c: c}
	f := records.ClientFilter{
		Name:           q.str("name"),
		Nickname:       q.str("nickname"),
		Email:          q.str("email"),
		BirthAfter:     q.date("birth_date_after"),
		BirthBefore:    q.date("birth_date_before"),
		RegisterAfter:  q.date("register_date_after"),
		RegisterBefore: q.date("register_date_before"),
		CreatedBy:      q.id("created_by"),
	}
	page := q.page(cfg.Pages.Clients)
	if !q.done() {
		return
	}
	list, err := records.ListClients(c.Request.Context(), db, user, f, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
