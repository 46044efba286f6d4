package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/matsen/apa2tex/internal/bibtex"
	"github.com/matsen/apa2tex/internal/convert"
	"github.com/matsen/apa2tex/internal/match"
	"github.com/matsen/apa2tex/internal/reference"
	"github.com/matsen/apa2tex/internal/storage"
)

// Health returns a handler for GET /api/v1/health.
func Health(version string, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:  "healthy",
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: version,
		})
	}
}

// Convert returns a handler for POST /api/v1/convert.
//
// Unresolvable citations are not errors: they come back unchanged with
// messages, as from the CLI. Only a malformed request or bibliography
// fails the call.
func Convert(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ConvertRequest
		if status, detail := bind(c, &req); detail != nil {
			c.JSON(status, ConvertResponse{Error: detail})
			return
		}

		db, err := bibtex.Parse(req.BibTeX)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, ConvertResponse{
				Output: req.Document,
				Error:  &ErrorDetail{Code: ErrCodeInvalidBibTeX, Message: err.Error()},
			})
			return
		}

		refs := req.References
		if req.Reflow {
			refs = reference.Reflow(refs)
		}
		res := convert.New(refs, db, deps.ConvertOptions...).Convert(req.Document)

		resp := ConvertResponse{
			Success:   true,
			Output:    res.Output,
			Converted: res.Converted,
			Keys:      res.Keys,
			Messages:  res.Messages,
		}
		if deps.History != nil {
			id, err := deps.History.RecordRun(storage.NewRun(res, "", "", ""))
			if err != nil {
				deps.Logger.Error().Err(err).Msg("recording run")
			} else {
				resp.RunID = id
			}
		}

		c.JSON(http.StatusOK, resp)
	}
}

// Resolve returns a handler for POST /api/v1/resolve.
func Resolve(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ResolveRequest
		if status, detail := bind(c, &req); detail != nil {
			c.JSON(status, ResolveResponse{Error: detail})
			return
		}

		db, err := bibtex.Parse(req.BibTeX)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, ResolveResponse{
				Error: &ErrorDetail{Code: ErrCodeInvalidBibTeX, Message: err.Error()},
			})
			return
		}

		res, err := match.NewResolver(req.References, db, deps.Tiers...).Resolve(req.Author, req.Year)
		switch {
		case errors.Is(err, match.ErrNoReference):
			c.JSON(http.StatusNotFound, ResolveResponse{
				Resolution: &res,
				Error:      &ErrorDetail{Code: ErrCodeNoReference, Message: err.Error()},
			})
		case errors.Is(err, match.ErrNoEntry):
			c.JSON(http.StatusNotFound, ResolveResponse{
				Resolution: &res,
				Error:      &ErrorDetail{Code: ErrCodeNoEntry, Message: err.Error()},
			})
		case err != nil:
			c.JSON(http.StatusInternalServerError, ResolveResponse{
				Error: &ErrorDetail{Code: ErrCodeInternal, Message: err.Error()},
			})
		default:
			c.JSON(http.StatusOK, ResolveResponse{Success: true, Resolution: &res})
		}
	}
}

// Cited returns a handler for POST /api/v1/cited.
func Cited() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CitedRequest
		if status, detail := bind(c, &req); detail != nil {
			c.JSON(status, CitedResponse{Error: detail})
			return
		}

		db, err := bibtex.Parse(req.BibTeX)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, CitedResponse{
				Error: &ErrorDetail{Code: ErrCodeInvalidBibTeX, Message: err.Error()},
			})
			return
		}

		keys := convert.CitedKeys(req.Document)
		entries, missing := db.Subset(keys)
		if keys == nil {
			keys = []string{}
		}
		if missing == nil {
			missing = []string{}
		}

		c.JSON(http.StatusOK, CitedResponse{
			Success: true,
			Keys:    keys,
			Missing: missing,
			BibTeX:  bibtex.FormatList(entries),
		})
	}
}

// bind decodes the JSON body into req. On failure it returns the status
// and error to send.
func bind(c *gin.Context, req any) (int, *ErrorDetail) {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return http.StatusOK, nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, &ErrorDetail{
			Code:    ErrCodeTooLarge,
			Message: err.Error(),
		}
	}
	return http.StatusBadRequest, &ErrorDetail{
		Code:    ErrCodeInvalidInput,
		Message: err.Error(),
	}
}
