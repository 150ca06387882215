package app

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /events
func (a *App) eventsHandler(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	messageChan := a.hub.Subscribe()
	defer a.hub.Unsubscribe(messageChan)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		http.Error(c.Writer, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	for {
		select {
		case event := <-messageChan:
			payload, err := json.Marshal(event)
			if err != nil {
				a.logger.Error(err.Error())
				continue
			}
			_, err = fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event.Name, payload)
			if err != nil {
				a.logger.Error(err.Error())
				return
			}
			flusher.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}
