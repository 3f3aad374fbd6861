package v1

import "github.com/kubev2v/shareddb/internal/models"

// Something is the JSON form of models.Something.
type Something struct {
	Pk   int64  `json:"pk"`
	Data string `json:"data"`
}

type CreateSomethingRequest struct {
	Data string `json:"data" binding:"required"`
}

type Error struct {
	Error string `json:"error"`
}

func NewSomethingFromModel(m models.Something) Something {
	return Something{Pk: m.ID, Data: m.Data}
}

func NewSomethingsFromModel(items []models.Something) []Something {
	out := make([]Something, 0, len(items))
	for _, item := range items {
		out = append(out, NewSomethingFromModel(item))
	}
	return out
}
