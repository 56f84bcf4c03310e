package main

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"adoptm3/pkg/records"
	"adoptm3/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerTagNames sync.Once

func setupRoutes(r *gin.Engine) {
	registerTagNames.Do(useJSONFieldNames)

	r.POST("/signup", signupHandler)
	r.POST("/login", loginHandler)
	r.POST("/refresh", refreshHandler)
	r.POST("/revoke_refresh", revokeRefreshHandler)
	r.GET("/media/*path", mediaHandler)

	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/me", meHandler)
	authGroup.GET("/profile", getProfileHandler)
	authGroup.POST("/profile", updateProfileHandler)

	authGroup.POST("/create/state", createStateHandler)
	authGroup.GET("/list/state", listStatesHandler)
	authGroup.GET("/detail/state/:id", getStateHandler)
	authGroup.PUT("/update/state/:id", updateStateHandler)
	authGroup.DELETE("/delete/state/:id", deleteStateHandler)

	authGroup.POST("/create/city", createCityHandler)
	authGroup.GET("/list/city", listCitiesHandler)
	authGroup.GET("/detail/city/:id", getCityHandler)
	authGroup.PUT("/update/city/:id", updateCityHandler)
	authGroup.DELETE("/delete/city/:id", deleteCityHandler)

	authGroup.POST("/create/address", createAddressHandler)
	authGroup.GET("/list/address", listAddressesHandler)
	authGroup.GET("/detail/address/:id", getAddressHandler)
	authGroup.PUT("/update/address/:id", updateAddressHandler)
	authGroup.DELETE("/delete/address/:id", deleteAddressHandler)

	authGroup.POST("/create/client", createClientHandler)
	authGroup.GET("/list/client", listClientsHandler)
	authGroup.GET("/detail/client/:id", getClientHandler)
	authGroup.PUT("/update/client/:id", updateClientHandler)
	authGroup.DELETE("/delete/client/:id", deleteClientHandler)

	authGroup.POST("/create/relic", createRelicHandler)
	authGroup.GET("/list/relic", listRelicsHandler)
	authGroup.GET("/detail/relic/:id", getRelicHandler)
	authGroup.PUT("/update/relic/:id", updateRelicHandler)
	authGroup.DELETE("/delete/relic/:id", deleteRelicHandler)

	authGroup.POST("/create/relicimage/:relic_id", addRelicImagesHandler)
	authGroup.PUT("/update/relicimage/:id/main", setMainImageHandler)
	authGroup.DELETE("/delete/relicimage/:id", deleteRelicImageHandler)

	authGroup.POST("/create/adoption", createAdoptionHandler)
	authGroup.GET("/list/adoption", listAdoptionsHandler)
	authGroup.GET("/detail/adoption/:id", getAdoptionHandler)
	authGroup.PUT("/update/adoption/:id", updateAdoptionHandler)
	authGroup.DELETE("/delete/adoption/:id", deleteAdoptionHandler)
}

// useJSONFieldNames makes validator errors report json field names.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
}

func fieldErr(field, msg string) error {
	return &records.ValidationError{Fields: map[string]string{field: msg}}
}

// respondBindError reports binding failures as field errors when possible.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = validationMessage(fe)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "email":
		return "invalid email"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "eqfield":
		return "does not match"
	default:
		return "invalid value"
	}
}

// respondError maps domain errors to HTTP responses. Records outside the
// caller's scope are reported as missing.
func respondError(c *gin.Context, err error) {
	var verr *records.ValidationError
	var conflict *records.FieldConflict
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields})
	case errors.As(err, &conflict):
		msg := conflict.Err.Error()
		c.JSON(http.StatusConflict, gin.H{"error": msg, "fields": gin.H{conflict.Field: msg}})
	case errors.Is(err, records.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, records.ErrImageRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "fields": gin.H{"images": err.Error()}})
	case errors.Is(err, records.ErrInvalidImage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "fields": gin.H{"images": err.Error()}})
	case errors.Is(err, records.ErrStaleOwner), errors.Is(err, records.ErrInUse):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, records.ErrNoActor):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, records.ErrProvisionFailed):
		logger.Error(c.Request.Context(), "client provisioning failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": records.ErrProvisionFailed.Error()})
	default:
		logger.Error(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// query collects typed query parameters and remembers the invalid ones.
type query struct {
	c    *gin.Context
	errs records.ValidationError
}

func (q *query) str(key string) string { return q.c.Query(key) }

func (q *query) id(key string) *uint {
	v := q.c.Query(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		q.errs.Add(key, "must be a positive integer")
		return nil
	}
	u := uint(n)
	return &u
}

func (q *query) flag(key string) *bool {
	v := q.c.Query(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		q.errs.Add(key, "must be true or false")
		return nil
	}
	return &b
}

func (q *query) date(key string) *time.Time {
	v := q.c.Query(key)
	if v == "" {
		return nil
	}
	d, err := parseDate(v)
	if err != nil {
		q.errs.Add(key, "use YYYY-MM-DD")
		return nil
	}
	return &d
}

func (q *query) page(size int) records.Page {
	p := records.Page{Number: 1, Size: size}
	if v := q.c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			q.errs.Add("page", "must be a positive integer")
		} else {
			p.Number = n
		}
	}
	return p
}

// done writes a 400 when any parameter was invalid.
func (q *query) done() bool {
	if err := q.errs.Err(); err != nil {
		respondError(q.c, err)
		return false
	}
	return true
}

// saveImages validates and stores uploaded files. On failure the files
// already written are removed.
func saveImages(c *gin.Context, entity string, files []*multipart.FileHeader, mainIndex int) ([]records.NewImage, error) {
	ctx := c.Request.Context()
	out := make([]records.NewImage, 0, len(files))
	for i, fh := range files {
		if fh.Size > cfg.Storage.MaxUploadBytes {
			removeStored(c, imageKeys(out)...)
			return nil, fileTooLarge(fh.Filename)
		}
		f, err := fh.Open()
		if err != nil {
			removeStored(c, imageKeys(out)...)
			return nil, err
		}
		img, err := storage.SaveImage(ctx, store, entity, fh.Filename, f, imageRules())
		f.Close()
		if err != nil {
			removeStored(c, imageKeys(out)...)
			return nil, err
		}
		out = append(out, records.NewImage{
			StorePath:   img.Key,
			ContentType: img.ContentType,
			Width:       img.Width,
			Height:      img.Height,
			Size:        img.Size,
			Main:        i == mainIndex,
		})
	}
	return out, nil
}

func fileTooLarge(name string) error {
	return &records.ValidationError{Fields: map[string]string{
		"images": name + ": file exceeds " + strconv.FormatInt(cfg.Storage.MaxUploadBytes, 10) + " bytes",
	}}
}

func imageKeys(imgs []records.NewImage) []string {
	keys := make([]string, 0, len(imgs))
	for _, img := range imgs {
		keys = append(keys, img.StorePath)
	}
	return keys
}

// removeStored deletes objects whose rows were never written or are gone.
func removeStored(c *gin.Context, keys ...string) {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if err := store.Delete(c.Request.Context(), k); err != nil {
			logger.Warn(c.Request.Context(), "failed to remove stored file", "key", k, "error", err)
		}
	}
}

// uploadedFiles returns the files of a multipart field, nil for other bodies.
func uploadedFiles(c *gin.Context, field string) []*multipart.FileHeader {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil
	}
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File[field]
}

func mainIndex(c *gin.Context) int {
	n, err := strconv.Atoi(c.PostForm("main_index"))
	if err != nil {
		return -1
	}
	return n
}

// mediaHandler streams a stored upload.
func mediaHandler(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("path"), "/")
	rc, err := store.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) || errors.Is(err, storage.ErrInvalidKey) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		respondError(c, err)
		return
	}
	defer rc.Close()
	c.Header("Cache-Control", "public, max-age=86400")
	c.DataFromReader(http.StatusOK, -1, contentTypeFor(key), rc, nil)
}

func contentTypeFor(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
