package events

import (
	"net/http"
	c "snoozer/internal/core/domain/common"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/core/domain/owner"
	"snoozer/internal/http/handlers/response"
	eventpublisher "snoozer/internal/implementations/event_publisher"

	"github.com/r3labs/sse/v2"
)

const MAX_TOKEN_LEN = 256

type Handler struct {
	log       logging.Logger
	sseServer *sse.Server
	tokens    owner.StreamTokenValidator
}

func New(
	log logging.Logger,
	sseServer *sse.Server,
	tokens owner.StreamTokenValidator,
) *Handler {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if sseServer == nil {
		panic(e.NewNilArgumentError("sseServer"))
	}
	if tokens == nil {
		panic(e.NewNilArgumentError("tokens"))
	}
	return &Handler{log: log, sseServer: sseServer, tokens: tokens}
}

func (h *Handler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	address := c.NewEmail(query.Get("owner"))
	if !address.IsValid() {
		response.RenderError(rw, "invalid owner query parameter", http.StatusBadRequest)
		return
	}
	token := query.Get("token")
	if token == "" || len(token) > MAX_TOKEN_LEN || !h.tokens.ValidateStreamToken(address, owner.StreamToken(token)) {
		response.RenderUnauthorized(rw)
		return
	}

	streamID := eventpublisher.StreamID(address)
	query.Set("stream", streamID)
	r.URL.RawQuery = query.Encode()

	// The stream is dropped by the server once its last subscriber leaves.
	h.log.Info(r.Context(), "Subscribed to owner events.", logging.Entry("owner", address))
	h.sseServer.ServeHTTP(rw, r)
	h.log.Info(r.Context(), "Unsubscribed from owner events.", logging.Entry("owner", address))
}
