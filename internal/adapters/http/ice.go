package http

import (
	nethttp "net/http"

	"github.com/dkeye/TalkNet/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
)

// ICEServers converts configured STUN/TURN entries into the shape a
// browser RTCPeerConnection accepts.
func ICEServers(servers []config.ICEServer) []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(servers))
	for _, s := range servers {
		if len(s.URLs) == 0 {
			continue
		}
		ice := webrtc.ICEServer{URLs: s.URLs, Username: s.Username}
		if s.Credential != "" {
			ice.Credential = s.Credential
			ice.CredentialType = webrtc.ICECredentialTypePassword
		}
		out = append(out, ice)
	}
	return out
}

func iceServersHandler(servers []config.ICEServer) gin.HandlerFunc {
	body := gin.H{"iceServers": ICEServers(servers)}
	return func(c *gin.Context) {
		c.JSON(nethttp.StatusOK, body)
	}
}
