// Package storemock mocks the durable object-store interface.
package storemock

//go:generate go tool mockgen -typed -package storemock -destination ./storemock.gen.go github.com/act3-ai/forge/internal/storage Store
