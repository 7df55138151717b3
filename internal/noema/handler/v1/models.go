package v1

import (
	"github.com/gin-gonic/gin"
	llmService "github.com/corvid-labs/noema/internal/noema/service/llm/domain/service"
	"github.com/corvid-labs/noema/internal/pkg/core"
	"github.com/corvid-labs/noema/pkg/errorx"
)

// ModelHandler handles GET /v1/models (OpenAI-compatible).
type ModelHandler struct {
	manager llmService.ModelManager
}

// NewModelHandler creates a new ModelHandler.
func NewModelHandler(manager llmService.ModelManager) *ModelHandler {
	return &ModelHandler{manager: manager}
}

// List handles GET /v1/models (OpenAI-compatible).
func (h *ModelHandler) List(c *gin.Context) {
	models, err := h.manager.ListAllModels(c.Request.Context())
	if err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrModelList, "list models"), nil)
		return
	}
	data := make([]ModelObject, 0, len(models))
	for _, model := range models {
		data = append(data, ModelObject{
			ID:      model.ModelID,
			Object:  "model",
			OwnedBy: model.ProviderID,
		})
	}

	// Also add the virtual "noema" model entry.
	data = append(data, ModelObject{
		ID:      "noema",
		Object:  "model",
		OwnedBy: "noema",
	})

	core.WriteResponse(c, nil, ModelListResponse{
		Object: "list",
		Data:   data,
	})
}
