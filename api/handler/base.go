package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskhub/backend/api/transport"
	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/pkg/httpcontext"
	"github.com/taskhub/backend/pkg/storequery"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data))
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status := mapError(err)
	var detail interface{}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
		if cause := errors.Unwrap(err); cause != nil {
			detail = cause.Error()
		}
	}
	h.respondJSON(ctx, status, transport.NewError(err.Error(), detail))
}

// respondProjected renders an entity through the select projection when one
// was supplied, or as-is otherwise.
func (h baseHandler) respondProjected(ctx *fasthttp.RequestCtx, status int, v interface{}, p storequery.Projection) {
	if len(p) == 0 {
		h.respondSuccess(ctx, status, v)
		return
	}
	doc, err := storequery.Project(v, p)
	if err != nil {
		h.respondError(ctx, domain.WrapError(domain.ErrCodeInternal, "projection failed", err))
		return
	}
	h.respondSuccess(ctx, status, doc)
}

// respondProjectedList renders a list response, applying the select
// projection per element when one was supplied.
func (h baseHandler) respondProjectedList(ctx *fasthttp.RequestCtx, items interface{}, p storequery.Projection) {
	if len(p) == 0 {
		h.respondSuccess(ctx, http.StatusOK, items)
		return
	}

	raw, err := json.Marshal(items)
	if err != nil {
		h.respondError(ctx, domain.WrapError(domain.ErrCodeInternal, "projection failed", err))
		return
	}
	var docs []map[string]interface{}
	if err := json.Unmarshal(raw, &docs); err != nil {
		h.respondError(ctx, domain.WrapError(domain.ErrCodeInternal, "projection failed", err))
		return
	}
	projected := make([]map[string]interface{}, 0, len(docs))
	for _, doc := range docs {
		projected = append(projected, p.Apply(doc))
	}
	h.respondSuccess(ctx, http.StatusOK, projected)
}

func mapError(err error) int {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeInvalid),
		domain.IsDomainError(err, domain.ErrCodeConflict):
		return http.StatusBadRequest
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// parseListQuery translates the generic list query parameters.
func parseListQuery(ctx *fasthttp.RequestCtx) storequery.Query {
	args := ctx.QueryArgs()
	return storequery.Query{
		Where:  storequery.ParseWhere(string(args.Peek("where"))),
		Sort:   storequery.ParseSort(string(args.Peek("sort"))),
		Select: storequery.ParseSelect(string(args.Peek("select"))),
		Skip:   parseInt(string(args.Peek("skip")), 0),
		Limit:  parseInt(string(args.Peek("limit")), 0),
		Count:  parseBool(string(args.Peek("count"))),
	}
}

func pathID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue("id").(string)
	return id
}

func parseInt(value string, fallback int) int {
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}

func parseBool(value string) bool {
	v, err := strconv.ParseBool(value)
	return err == nil && v
}
