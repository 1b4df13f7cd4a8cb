package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StreamHandler mounts the websocket endpoint.
type StreamHandler struct {
	Stream http.Handler
}

func (h *StreamHandler) Register(r gin.IRouter) {
	if h.Stream == nil {
		return
	}
	r.GET("/ws", gin.WrapH(h.Stream))
}
