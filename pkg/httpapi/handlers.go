package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tweetrelay/pkg/logger"
	"tweetrelay/pkg/relay"
	"tweetrelay/pkg/stream"
)

type handler struct {
	relay   *relay.Relay
	maxBody int64
}

// stream validates the body, then hands the response over to the relay.
// Validation failures are the only non-stream responses.
func (h *handler) stream(source relay.Source) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.FromContext(c.Request.Context())

		if h.maxBody > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)
		}

		var body relay.FetchRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			log.WithError(err).Debug("rejecting malformed request body")
			invalid(c)
			return
		}

		req, err := h.relay.Prepare(source, body)
		if err != nil {
			log.WithError(err).Debug("rejecting invalid request")
			invalid(c)
			return
		}

		sw, err := stream.NewWriter(c.Writer)
		if err != nil {
			log.WithError(err).Error("response writer cannot stream")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming unsupported"})
			return
		}

		h.relay.Stream(c.Request.Context(), req, sw)
	}
}

func invalid(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": relay.InvalidRequestMessage})
}
