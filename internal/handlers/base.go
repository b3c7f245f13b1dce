package handlers

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"foodgram/internal/middleware"
	"foodgram/internal/services"
	"foodgram/internal/utils"

	"github.com/gin-gonic/gin"
)

// Render helper to inject common variables like 'current user'
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}
	if user := middleware.CurrentUser(c); user != nil {
		obj["CurrentUser"] = user
	}
	obj["CurrentPath"] = c.Request.URL.Path
	c.HTML(code, name, obj)
}

// respondError maps service errors to statuses. Unknown errors are logged and
// reported as 500 without details.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	var serr *services.Error
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, verr.Fields)
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": msg(err)})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"detail": msg(err)})
	case errors.As(err, &serr):
		c.JSON(http.StatusBadRequest, gin.H{"errors": msg(err)})
	default:
		log.Printf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error."})
	}
}

// respondRemoveError is respondError for DELETE on a relation: removing
// something that was never there is a client mistake, not a missing page.
func respondRemoveError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrRelationMissing) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": msg(err)})
		return
	}
	respondError(c, err)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{msg(err)}})
}

func msg(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// pathID reads a numeric path parameter, answering 404 when it is not one.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	}
	return id, ok
}

func pageFromQuery(c *gin.Context, def int) services.Page {
	return services.NewPage(utils.StringToInt(c.Query("page")), utils.StringToInt(c.Query("limit")), def)
}

// Paginated is the list envelope shared by every paginated endpoint.
type Paginated struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

func paginated(c *gin.Context, page services.Page, total int64, results any) Paginated {
	out := Paginated{Count: total, Results: results}
	if page.HasNext(total) {
		next := pageURL(c, page.Number+1)
		out.Next = &next
	}
	if page.Number > 1 {
		prev := pageURL(c, page.Number-1)
		out.Previous = &prev
	}
	return out
}

func pageURL(c *gin.Context, number int) string {
	u := url.URL{Scheme: "http", Host: c.Request.Host, Path: c.Request.URL.Path}
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		u.Scheme = "https"
	}
	q := c.Request.URL.Query()
	if number <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Health is the liveness check.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
