package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// FrameStreamer serves the annotated MJPEG stream.
type FrameStreamer interface {
	StreamMJPEGHTTP(w http.ResponseWriter, r *http.Request)
	Latest() []byte
}

type StreamHandler struct {
	streamer FrameStreamer
	width    int
	height   int
}

func NewStreamHandler(streamer FrameStreamer, width, height int) *StreamHandler {
	return &StreamHandler{streamer: streamer, width: width, height: height}
}

const indexHTML = `<!DOCTYPE html><html lang="en"><head><meta charset="UTF-8"><title>AI Surveillance Feed</title>
<style>
* { box-sizing: border-box; }
body{background-color:#111;display:flex;justify-content:center;align-items:center;height:100vh;margin:0;font-family:sans-serif;}
.container{width:%dpx;height:%dpx;border:2px solid #444;position:relative;}
img{width:100%%;height:100%%;display:block;}
h1{position:absolute;top:10px;left:10px;color:white;background-color:rgba(0,0,0,0.5);padding:10px;border-radius:5px;font-size:16px;z-index:10;}
</style></head>
<body><div class="container"><h1>AI Surveillance Feed</h1><img src="/video_feed" alt="Live feed"></div></body></html>`

// @Summary Viewer page
// @Description HTML page embedding the live annotated stream
// @Tags stream
// @Produce html
// @Success 200 {string} string
// @Router / [get]
func (h *StreamHandler) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(fmt.Sprintf(indexHTML, h.width, h.height)))
}

// @Summary Live MJPEG stream
// @Description multipart/x-mixed-replace stream of annotated frames
// @Tags stream
// @Produce multipart/x-mixed-replace
// @Success 200 {string} string
// @Router /video_feed [get]
func (h *StreamHandler) VideoFeed(c *gin.Context) {
	h.streamer.StreamMJPEGHTTP(c.Writer, c.Request)
}

// @Summary Latest frame
// @Description The most recent annotated frame as JPEG
// @Tags stream
// @Produce image/jpeg
// @Success 200 {file} binary
// @Failure 503 {object} map[string]string
// @Router /api/v1/frame [get]
func (h *StreamHandler) LatestFrame(c *gin.Context) {
	jpeg := h.streamer.Latest()
	if len(jpeg) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no frame available yet"})
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "image/jpeg", jpeg)
}
