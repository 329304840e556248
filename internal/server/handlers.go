package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/r9s-ai/open-line-parsers/pkg/config"
	"github.com/r9s-ai/open-line-parsers/pkg/directive"
	"github.com/r9s-ai/open-line-parsers/pkg/rowexport"
	"github.com/r9s-ai/open-line-parsers/pkg/rowreader"
)

type handlers struct {
	cfg *config.Config
}

type rowsRequest struct {
	Content    string `json:"content"`
	Delimiter  string `json:"delimiter"`
	Comment    string `json:"comment"`
	MinColumns *int   `json:"min_columns"`
}

type rowsResponse struct {
	OK        bool               `json:"ok"`
	Count     int                `json:"count"`
	LineCount int                `json:"line_count"`
	Truncated int                `json:"truncated,omitempty"`
	Rows      []rowexport.Record `json:"rows"`
}

type directivesRequest struct {
	Content   string   `json:"content"`
	KnownKeys []string `json:"known_keys"`
	StopKeys  []string `json:"stop_keys"`
}

type directivesResponse struct {
	OK bool `json:"ok"`
	directive.Result
}

type splitRequest struct {
	Line string `json:"line"`
}

type splitResponse struct {
	OK        bool   `json:"ok"`
	Directive bool   `json:"directive"`
	Key       string `json:"key,omitempty"`
	Value     string `json:"value,omitempty"`
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func writeError(c *gin.Context, status int, err error) {
	c.JSON(status, errorResponse{OK: false, Error: err.Error()})
}

// bindJSON decodes the request body and writes the error response itself.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		writeError(c, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return false
	}
	return true
}

func (h *handlers) rowOptions(in rowsRequest) (rowreader.Options, error) {
	opts := h.cfg.RowOptions()
	if in.Delimiter != "" {
		if len(in.Delimiter) != 1 {
			return opts, fmt.Errorf("delimiter must be exactly one byte, got %q", in.Delimiter)
		}
		opts.Delimiter = in.Delimiter[0]
	}
	if in.Comment != "" {
		if len(in.Comment) != 1 {
			return opts, fmt.Errorf("comment must be exactly one byte, got %q", in.Comment)
		}
		opts.Comment = in.Comment[0]
	}
	if opts.Delimiter == opts.Comment {
		return opts, errors.New("delimiter and comment must differ")
	}
	if in.MinColumns != nil {
		if *in.MinColumns < 0 {
			return opts, errors.New("min_columns must be >= 0")
		}
		opts.MinColumns = *in.MinColumns
	}
	return opts, nil
}

func (h *handlers) rows(c *gin.Context) {
	var in rowsRequest
	if !bindJSON(c, &in) {
		return
	}
	opts, err := h.rowOptions(in)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	rr := rowreader.New(opts)
	recs, err := rowexport.Collect(rr, strings.NewReader(in.Content))
	if err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	if recs == nil {
		recs = []rowexport.Record{}
	}
	c.JSON(http.StatusOK, rowsResponse{
		OK:        true,
		Count:     len(recs),
		LineCount: rr.Line(),
		Truncated: rr.Truncated(),
		Rows:      recs,
	})
}

func (h *handlers) directives(c *gin.Context) {
	var in directivesRequest
	if !bindJSON(c, &in) {
		return
	}
	opts := directive.CollectOptions{
		Known:        h.cfg.Directives.KnownKeys,
		Stop:         h.cfg.Directives.StopKeys,
		MaxLineBytes: h.cfg.Directives.MaxLineBytes,
	}
	if in.KnownKeys != nil {
		opts.Known = in.KnownKeys
	}
	if in.StopKeys != nil {
		opts.Stop = in.StopKeys
	}
	res, err := directive.Collect(strings.NewReader(in.Content), opts)
	if err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	if res.Assignments == nil {
		res.Assignments = []directive.Assignment{}
	}
	c.JSON(http.StatusOK, directivesResponse{OK: true, Result: res})
}

func (h *handlers) split(c *gin.Context) {
	var in splitRequest
	if !bindJSON(c, &in) {
		return
	}
	key, value, ok := directive.Split(in.Line)
	c.JSON(http.StatusOK, splitResponse{OK: true, Directive: ok, Key: key, Value: value})
}
