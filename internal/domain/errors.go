package domain

import "errors"

// Tipos de error del pipeline. Se envuelven con fmt.Errorf("%w: ...") y se comparan con errors.Is.
var (
	// ErrState: la operación no aplica al estado actual de la evaluación.
	ErrState = errors.New("invalid assessment state")
	// ErrValidation: entrada malformada o fuera de rango.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound: evaluación, carrera o pregunta inexistente (o ajena al usuario).
	ErrNotFound = errors.New("not found")
	// ErrPersistence: fallo de escritura en el store; aborta la transacción.
	ErrPersistence = errors.New("persistence failure")
	// ErrRecommendationGeneration agrupa cualquier fallo que aborta un lote de recomendaciones.
	ErrRecommendationGeneration = errors.New("recommendation generation failed")
)
