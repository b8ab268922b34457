// Package progressmock provides generated mocks for progress reporting.
package progressmock

//go:generate mockgen -typed -package progressmock -destination ./progressmock.gen.go github.com/act3-ai/forge/internal/progress Evaluator
