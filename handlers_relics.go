package main

import (
	"net/http"

	"adoptm3/models"
	"adoptm3/pkg/records"

	"github.com/gin-gonic/gin"
)

type relicRequest struct {
	Name         string `json:"name" form:"name" binding:"required,max=150"`
	Description  string `json:"description" form:"description" binding:"max=500"`
	ObtainedDate string `json:"obtained_date" form:"obtained_date"`
	AdoptionFee  bool   `json:"adoption_fee" form:"adoption_fee"`
}

func bindRelic(c *gin.Context) (records.RelicInput, bool) {
	var req relicRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindError(c, err)
		return records.RelicInput{}, false
	}
	in := records.RelicInput{Name: req.Name, Description: req.Description, AdoptionFee: req.AdoptionFee}
	if req.ObtainedDate != "" {
		d, err := parseDate(req.ObtainedDate)
		if err != nil {
			respondError(c, fieldErr("obtained_date", "use YYYY-MM-DD"))
			return records.RelicInput{}, false
		}
		in.ObtainedDate = &d
	}
	return in, true
}

// createRelicHandler takes a multipart body with the relic fields, one or
// more "images" parts and an optional main_index.
func createRelicHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	in, ok := bindRelic(c)
	if !ok {
		return
	}
	files := uploadedFiles(c, "images")
	if len(files) == 0 {
		respondError(c, records.ErrImageRequired)
		return
	}
	images, err := saveImages(c, "relics", files, mainIndex(c))
	if err != nil {
		respondError(c, err)
		return
	}
	relic, err := records.CreateRelic(c.Request.Context(), db, user, in, images)
	if err != nil {
		removeStored(c, imageKeys(images)...)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, relic)
}

// updateRelicHandler edits the relic fields; images sent along are appended.
func updateRelicHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	in, ok := bindRelic(c)
	if !ok {
		return
	}
	images, err := saveImages(c, "relics", uploadedFiles(c, "images"), mainIndex(c))
	if err != nil {
		respondError(c, err)
		return
	}
	relic, err := records.UpdateRelic(c.Request.Context(), db, user, id, in, images)
	if err != nil {
		removeStored(c, imageKeys(images)...)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, relic)
}

func getRelicHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	relic, err := records.GetRelic(c.Request.Context(), db, user, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, relic)
}

func deleteRelicHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	paths, err := records.DeleteRelic(c.Request.Context(), db, user, id)
	if err != nil {
		respondError(c, err)
		return
	}
	removeStored(c, paths...)
	c.Status(http.StatusNoContent)
}

func listRelicsHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	q := query{c: c}
	f := records.RelicFilter{
		Name:           q.str("name"),
		Description:    q.str("description"),
		AdoptionFee:    q.flag("adoption_fee"),
		ObtainedAfter:  q.date("obtained_date_after"),
		ObtainedBefore: q.date("obtained_date_before"),
		ClientID:       q.id("client"),
		CreatedBy:      q.id("created_by"),
	}
	page := q.page(cfg.Pages.Relics)
	if !q.done() {
		return
	}
	list, err := records.ListRelics(c.Request.Context(), db, user, f, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func addRelicImagesHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	relicID, ok := paramID(c, "relic_id")
	if !ok {
		return
	}
	files := uploadedFiles(c, "images")
	if len(files) == 0 {
		respondError(c, records.ErrImageRequired)
		return
	}
	// check scope before writing anything to storage
	if _, err := records.GetWritable[models.Relic](c.Request.Context(), db, user, relicID); err != nil {
		respondError(c, err)
		return
	}
	images, err := saveImages(c, "relics", files, mainIndex(c))
	if err != nil {
		respondError(c, err)
		return
	}
	all, err := records.AddRelicImages(c.Request.Context(), db, user, relicID, images)
	if err != nil {
		removeStored(c, imageKeys(images)...)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"images": all})
}

func setMainImageHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := records.SetMainImage(c.Request.Context(), db, user, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "main image updated"})
}

func deleteRelicImageHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	path, err := records.DeleteRelicImage(c.Request.Context(), db, user, id)
	if err != nil {
		respondError(c, err)
		return
	}
	removeStored(c, path)
	c.Status(http.StatusNoContent)
}
