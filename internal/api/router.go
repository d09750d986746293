package api

import "github.com/gin-gonic/gin"

// NewRouter builds the engine: /healthz is open, everything under
// /api/v1 requires the static bearer token.
func NewRouter(h *Handler, token string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLog())

	r.GET("/healthz", h.Health)

	v1 := r.Group("/api/v1", RequireToken(token))
	{
		complaints := v1.Group("/complaints")
		{
			complaints.POST("/ingest", h.IngestComplaints)
			complaints.POST("/rebuild", h.RebuildComplaints)
			complaints.GET("/latest", h.LatestComplaints)
			complaints.GET("/:date", h.ComplaintsForDate)
		}
		chats := v1.Group("/chats")
		{
			chats.POST("/analyze", h.AnalyzeChats)
			chats.GET("/latest", h.LatestChats)
			chats.GET("/:date", h.ChatsForDate)
		}
		delays := v1.Group("/delays")
		{
			delays.POST("/ingest", h.IngestDelays)
			delays.GET("/latest", h.LatestDelays)
			delays.GET("/:date", h.DelaysForDate)
		}
		pnl := v1.Group("/pnl")
		{
			pnl.POST("/ingest", h.IngestPnL)
			pnl.GET("/latest", h.LatestPnL)
			pnl.GET("/:date", h.PnLForDate)
		}
		nps := v1.Group("/nps")
		{
			nps.POST("/ingest", h.IngestNPS)
			nps.GET("/latest", h.LatestNPS)
			nps.GET("/:date", h.NPSForDate)
		}
		v1.DELETE("/admin/blobs", h.ClearBlobs)
	}
	return r
}
