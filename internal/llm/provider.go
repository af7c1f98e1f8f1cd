package llm

import (
	"context"
	"errors"
)

// ErrUnavailable envuelve cualquier fallo del proveedor de texto (red, estado HTTP, respuesta vacía).
var ErrUnavailable = errors.New("llm unavailable")

// GenerateOptions limita la salida de cada llamada.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
}

// LLMClient define la interfaz para generar respuestas con un LLM.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}
