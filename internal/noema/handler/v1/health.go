package v1

import (
	hoststat "github.com/likexian/host-stat-go"

	"github.com/gin-gonic/gin"

	"github.com/corvid-labs/noema/internal/noema/orchestrator"
	"github.com/corvid-labs/noema/pkg/version"
)

// HealthResponse is the response for GET /healthz.
type HealthResponse struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"active_sessions"`
	TotalSessions  int    `json:"total_sessions"`
	MemTotalMB     uint64 `json:"mem_total_mb,omitempty"`
	MemFreeMB      uint64 `json:"mem_free_mb,omitempty"`
}

// HealthHandler serves GET /healthz: session registry pressure plus a
// host-resource snapshot, for operators running noemad unattended.
type HealthHandler struct {
	orch *orchestrator.Orchestrator
}

func NewHealthHandler(orch *orchestrator.Orchestrator) *HealthHandler {
	return &HealthHandler{orch: orch}
}

func (h *HealthHandler) Get(c *gin.Context) {
	active, total := h.orch.Counts()
	resp := HealthResponse{
		Status:         "ok",
		ActiveSessions: active,
		TotalSessions:  total,
	}

	// Host stats are best-effort: a container without /proc access still
	// reports session health even if the memory query fails.
	if mem, err := hoststat.GetMemStat(); err == nil {
		resp.MemTotalMB = mem.MemTotal
		resp.MemFreeMB = mem.MemFree
	}

	c.JSON(200, resp)
}

// VersionHandler serves GET /version.
type VersionHandler struct{}

func NewVersionHandler() *VersionHandler { return &VersionHandler{} }

func (h *VersionHandler) Get(c *gin.Context) {
	c.JSON(200, version.Get())
}
